package models

import (
	"time"
)

// PaymentMethod identifies the kind of payment instrument.
type PaymentMethod string

const (
	MethodSlip PaymentMethod = "boleto"
	MethodPix  PaymentMethod = "pix"
)

// PaymentStatus is the lifecycle state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentRecord is a payment instrument issued through the processor.
// Records are created and cancelled by this service, never deleted.
// The document id is the processor's payment id. Invariant: at most one
// non-cancelled record exists per (customer, method); the reconciler's
// query-then-write sequence preserves it.
type PaymentRecord struct {
	ID          string        `bson:"_id,omitempty" json:"id,omitempty"`
	PaymentID   string        `bson:"paymentId" json:"payment_id"`
	Customer    string        `bson:"userEmail" json:"customer"`
	Name        string        `bson:"userName,omitempty" json:"name,omitempty"`
	Status      PaymentStatus `bson:"status" json:"status"`
	Method      PaymentMethod `bson:"paymentMethod" json:"method"`
	Amount      float64       `bson:"amount" json:"amount"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	ExternalRef string        `bson:"externalReference,omitempty" json:"external_ref,omitempty"`
	CreatedAt   time.Time     `bson:"dateCreated" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updatedAt,omitempty" json:"updated_at,omitempty"`

	// Instrument payload, populated from the processor response.
	SlipURL       string     `bson:"boletoUrl,omitempty" json:"slip_url,omitempty"`
	Barcode       string     `bson:"barcode,omitempty" json:"barcode,omitempty"`
	DigitableLine string     `bson:"digitableLine,omitempty" json:"digitable_line,omitempty"`
	PixQRCode     string     `bson:"pixQrCode,omitempty" json:"pix_qr_code,omitempty"`
	PixCopyPaste  string     `bson:"pixCopyPaste,omitempty" json:"pix_copy_paste,omitempty"`
	ExpiresAt     *time.Time `bson:"dateOfExpiration,omitempty" json:"expires_at,omitempty"`

	// Overdue audit fields captured at issue time.
	Overdue     bool       `bson:"emAtraso" json:"overdue"`
	DaysOverdue int        `bson:"diasAtraso" json:"days_overdue"`
	BaseAmount  float64    `bson:"valorOriginal" json:"base_amount"`
	NextDueDate *time.Time `bson:"proximaDataPagamento,omitempty" json:"next_due_date,omitempty"`

	// Cancellation audit.
	Note        string     `bson:"observacao,omitempty" json:"note,omitempty"`
	CancelledAt *time.Time `bson:"dateCancelled,omitempty" json:"cancelled_at,omitempty"`
}

// HasPixCode reports whether the record carries a usable PIX code.
func (p *PaymentRecord) HasPixCode() bool {
	return p.PixQRCode != ""
}

// SlipExpired reports whether a slip's expiry date is strictly before the
// given day (midnight-normalized). Records without an expiry never expire.
func (p *PaymentRecord) SlipExpired(today time.Time) bool {
	if p.ExpiresAt == nil {
		return false
	}
	return p.ExpiresAt.Before(today)
}
