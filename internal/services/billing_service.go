package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
)

// Fallback rent amounts, used only by the scheduled reminder sweep when a
// contract points at no resolvable rental record. Interactive paths must
// fail with ErrRentalTermsMissing instead.
const (
	fallbackWeeklyAmount  = 70.0
	fallbackMonthlyAmount = 250.0
)

var (
	lateFeeFactor    = decimal.NewFromFloat(1.02)
	lateFeePerDay    = decimal.NewFromInt(10)
	oneCentTolerance = decimal.NewFromFloat(0.01)
)

// IBillingService computes the current billing position of a contract:
// next due date, remaining/overdue day counts and fee-adjusted amount.
// BillingState is derived fresh on every call and never persisted.
type IBillingService interface {
	// StateFor computes the billing state for a contract, resolving the
	// rental terms and the customer's last approved payment. Fails with
	// ErrRentalTermsMissing when no rental record resolves.
	StateFor(ctx context.Context, contract *models.Contract, now time.Time) (*models.BillingState, error)
	// StateForSweep is StateFor with the documented fallback amounts when
	// the rental record is entirely absent, keeping the scheduled sweep
	// resilient to incomplete contract data.
	StateForSweep(ctx context.Context, contract *models.Contract, now time.Time) (*models.BillingState, error)
	// Compute is the pure calculation, exposed for callers that already
	// hold the inputs. lastApprovedAt is nil when the customer never paid.
	Compute(contract *models.Contract, baseAmount decimal.Decimal, lastApprovedAt *time.Time, now time.Time) *models.BillingState
	// ResolveRental finds the rental terms for a contract, by rental id
	// first and by active rental on the contract's vehicle as a fallback.
	// Returns (nil, nil) when neither resolves.
	ResolveRental(ctx context.Context, contract *models.Contract) (*models.Rental, error)
}

// billingService implements IBillingService.
type billingService struct {
	rentals  store.RentalStore
	payments store.PaymentStore
	loc      *time.Location
}

// NewBillingService creates a new BillingService. loc is the business
// timezone used for midnight normalization and day arithmetic.
func NewBillingService(rentals store.RentalStore, payments store.PaymentStore, loc *time.Location) IBillingService {
	return &billingService{rentals: rentals, payments: payments, loc: loc}
}

func (s *billingService) ResolveRental(ctx context.Context, contract *models.Contract) (*models.Rental, error) {
	if contract.RentalID != "" {
		rental, err := s.rentals.ByID(ctx, contract.RentalID)
		if err != nil {
			return nil, fmt.Errorf("failed to load rental %s: %w", contract.RentalID, err)
		}
		if rental != nil {
			return rental, nil
		}
	}
	if contract.MotoID != "" {
		rental, err := s.rentals.ActiveByMoto(ctx, contract.MotoID)
		if err != nil {
			return nil, fmt.Errorf("failed to load rental for moto %s: %w", contract.MotoID, err)
		}
		if rental != nil {
			return rental, nil
		}
	}
	return nil, nil
}

func (s *billingService) StateFor(ctx context.Context, contract *models.Contract, now time.Time) (*models.BillingState, error) {
	rental, err := s.ResolveRental(ctx, contract)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, fmt.Errorf("contract %s: %w", contract.ID, ErrRentalTermsMissing)
	}
	return s.stateWithAmount(ctx, contract, rentalAmount(contract, rental), now)
}

func (s *billingService) StateForSweep(ctx context.Context, contract *models.Contract, now time.Time) (*models.BillingState, error) {
	rental, err := s.ResolveRental(ctx, contract)
	if err != nil {
		return nil, err
	}
	var amount decimal.Decimal
	if rental != nil {
		amount = rentalAmount(contract, rental)
	} else if contract.EffectiveRecurrence() == models.RecurrenceWeekly {
		amount = decimal.NewFromFloat(fallbackWeeklyAmount)
	} else {
		amount = decimal.NewFromFloat(fallbackMonthlyAmount)
	}
	return s.stateWithAmount(ctx, contract, amount, now)
}

func (s *billingService) stateWithAmount(ctx context.Context, contract *models.Contract, amount decimal.Decimal, now time.Time) (*models.BillingState, error) {
	last, err := s.payments.LastApproved(ctx, contract.Customer)
	if err != nil {
		return nil, fmt.Errorf("failed to load last approved payment for %s: %w", contract.Customer, err)
	}
	var lastApprovedAt *time.Time
	if last != nil {
		lastApprovedAt = &last.CreatedAt
	}
	return s.Compute(contract, amount, lastApprovedAt, now), nil
}

func (s *billingService) Compute(contract *models.Contract, baseAmount decimal.Decimal, lastApprovedAt *time.Time, now time.Time) *models.BillingState {
	recurrence := contract.EffectiveRecurrence()

	base := contract.StartDate
	if lastApprovedAt != nil {
		base = *lastApprovedAt
	}
	base = midnightIn(base, s.loc)
	today := midnightIn(now, s.loc)

	due := recurrence.Unit(base)
	if lastApprovedAt == nil {
		// First unpaid cycle after signup: never due on day zero.
		for !due.After(base) {
			due = recurrence.Unit(due)
		}
	}

	state := &models.BillingState{
		DueDate:     due,
		BaseAmount:  baseAmount,
		FinalAmount: baseAmount,
	}
	switch days := daysBetween(today, due); {
	case days < 0:
		state.Overdue = true
		state.DaysOverdue = -days
		fee := lateFeePerDay.Mul(decimal.NewFromInt(int64(state.DaysOverdue)))
		state.FinalAmount = baseAmount.Mul(lateFeeFactor).Add(fee).Round(2)
	default:
		state.DaysRemaining = days
	}
	return state
}

// daysBetween counts calendar days from one midnight to another. Rounding
// absorbs the odd-length days around DST transitions.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
}

// rentalAmount picks the rent for the contract's recurrence, falling back
// to the documented default when the matching field was never filled in.
func rentalAmount(contract *models.Contract, rental *models.Rental) decimal.Decimal {
	if contract.EffectiveRecurrence() == models.RecurrenceWeekly {
		if rental.WeeklyAmount > 0 {
			return decimal.NewFromFloat(rental.WeeklyAmount)
		}
		return decimal.NewFromFloat(fallbackWeeklyAmount)
	}
	if rental.MonthlyAmount > 0 {
		return decimal.NewFromFloat(rental.MonthlyAmount)
	}
	return decimal.NewFromFloat(fallbackMonthlyAmount)
}
