package store

import (
	"context"
	"time"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
)

// The stores wrap the document database behind collection-scoped
// interfaces. Lookup methods return (nil, nil) when no document matches;
// errors are reserved for real store failures.

// ContractStore reads rental contracts (owned by the main system).
type ContractStore interface {
	ActiveByCustomer(ctx context.Context, customer string) ([]models.Contract, error)
	AllActive(ctx context.Context) ([]models.Contract, error)
}

// RentalStore reads rental pricing terms (owned by the main system).
type RentalStore interface {
	ByID(ctx context.Context, id string) (*models.Rental, error)
	ActiveByMoto(ctx context.Context, motoID string) (*models.Rental, error)
}

// CustomerStore reads customer records (owned by the main system).
type CustomerStore interface {
	ByID(ctx context.Context, id string) (*models.Customer, error)
	ByPhone(ctx context.Context, phone string) (*models.Customer, error)
	All(ctx context.Context) ([]models.Customer, error)
}

// PaymentStore owns payment instrument records.
type PaymentStore interface {
	// LastApproved returns the most recently created approved payment.
	LastApproved(ctx context.Context, customer string) (*models.PaymentRecord, error)
	// PendingByMethod returns the most recent pending instrument of the
	// given method for the customer.
	PendingByMethod(ctx context.Context, customer string, method models.PaymentMethod) (*models.PaymentRecord, error)
	// PendingPixCreatedBetween lists pending PIX instruments created in
	// [from, to), for the evening sweep.
	PendingPixCreatedBetween(ctx context.Context, from, to time.Time) ([]models.PaymentRecord, error)
	Create(ctx context.Context, rec *models.PaymentRecord) error
	// Cancel flips a record to cancelled with an audit note. Records are
	// never deleted.
	Cancel(ctx context.Context, paymentID, note string) error
}

// ReminderStore owns reminder markers.
type ReminderStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Create inserts a marker with its composite _id. A duplicate-key
	// error means the reminder was already claimed for that key.
	Create(ctx context.Context, marker *models.ReminderMarker) error
}
