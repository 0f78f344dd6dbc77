package models

import (
	"time"
)

// Recurrence defines how often rent is collected under a contract.
type Recurrence string

const (
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Unit returns one billing period anchored at t.
func (r Recurrence) Unit(t time.Time) time.Time {
	if r == RecurrenceWeekly {
		return t.AddDate(0, 0, 7)
	}
	return t.AddDate(0, 1, 0)
}

// Contract represents a rental contract. Contracts are created and
// deactivated by the main Papa Tango system; this service only reads them.
type Contract struct {
	ID         string     `bson:"_id,omitempty" json:"id,omitempty"`
	Customer   string     `bson:"cliente" json:"customer"` // customer document id (email)
	Active     bool       `bson:"statusContrato" json:"active"`
	StartDate  time.Time  `bson:"dataInicio" json:"start_date"`
	Recurrence Recurrence `bson:"tipoRecorrenciaPagamento,omitempty" json:"recurrence,omitempty"`
	RentalID   string     `bson:"aluguelId,omitempty" json:"rental_id,omitempty"`
	MotoID     string     `bson:"motoId,omitempty" json:"moto_id,omitempty"`
}

// EffectiveRecurrence falls back to monthly for legacy contracts that
// predate the recurrence field.
func (c *Contract) EffectiveRecurrence() Recurrence {
	if c.Recurrence == RecurrenceWeekly {
		return RecurrenceWeekly
	}
	return RecurrenceMonthly
}

// Rental holds the pricing terms for a rental unit; read-only here.
type Rental struct {
	ID            string  `bson:"_id,omitempty" json:"id,omitempty"`
	MotoID        string  `bson:"motoId,omitempty" json:"moto_id,omitempty"`
	Active        bool    `bson:"ativo" json:"active"`
	WeeklyAmount  float64 `bson:"valorSemanal,omitempty" json:"weekly_amount,omitempty"`
	MonthlyAmount float64 `bson:"valorMensal,omitempty" json:"monthly_amount,omitempty"`
}
