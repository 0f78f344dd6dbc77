package models

import (
	"fmt"
	"time"
)

// ReminderKind classifies why a reminder was sent.
type ReminderKind string

const (
	ReminderUpcoming ReminderKind = "upcoming"
	ReminderDueToday ReminderKind = "due_today"
	ReminderOverdue  ReminderKind = "overdue"
)

// ReminderMarker records that a reminder was already delivered. Its
// existence (keyed by _id) is the sole deduplication authority: the
// scheduled dispatcher creates exactly one per customer per calendar day,
// and the evening sweep one per instrument per day in its own namespace.
type ReminderMarker struct {
	ID            string       `bson:"_id" json:"id"`
	Customer      string       `bson:"userEmail" json:"customer"`
	Kind          ReminderKind `bson:"tipoLembrete,omitempty" json:"kind,omitempty"`
	DueDate       *time.Time   `bson:"paymentDate,omitempty" json:"due_date,omitempty"`
	Amount        float64      `bson:"paymentAmount" json:"amount"`
	AmountFinal   float64      `bson:"paymentAmountWithFine" json:"amount_final"`
	DaysRemaining int          `bson:"diasRestantes" json:"days_remaining"`
	DaysOverdue   int          `bson:"diasAtraso" json:"days_overdue"`
	Overdue       bool         `bson:"emAtraso" json:"overdue"`
	PixPaymentID  string       `bson:"pixPaymentId,omitempty" json:"pix_payment_id,omitempty"`
	SentAt        time.Time    `bson:"sentAt" json:"sent_at"`
}

// DailyMarkerID is the marker key for the scheduled morning dispatch.
func DailyMarkerID(customer string, day time.Time) string {
	return fmt.Sprintf("%s_%s", customer, day.Format("2006-01-02"))
}

// EveningPixMarkerID is the marker key for the evening PIX sweep. It is
// keyed by instrument, not customer, so the sweep stays independent of the
// morning dispatch.
func EveningPixMarkerID(paymentID string, day time.Time) string {
	return fmt.Sprintf("evening_pix_%s_%s", paymentID, day.Format("2006-01-02"))
}
