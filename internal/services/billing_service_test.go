package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBillingFixture(rentals *fakeRentalStore, payments *fakePaymentStore) IBillingService {
	if rentals == nil {
		rentals = &fakeRentalStore{}
	}
	if payments == nil {
		payments = &fakePaymentStore{}
	}
	return NewBillingService(rentals, payments, time.UTC)
}

func TestComputeFirstCycleMonthly(t *testing.T) {
	svc := newBillingFixture(nil, nil)
	contract := &models.Contract{
		Customer:   "ana@example.com",
		StartDate:  date(2024, time.January, 15),
		Recurrence: models.RecurrenceMonthly,
	}

	state := svc.Compute(contract, decimal.NewFromInt(250), nil, date(2024, time.February, 15))

	assert.Equal(t, date(2024, time.February, 15), state.DueDate)
	assert.False(t, state.Overdue)
	assert.Equal(t, 0, state.DaysRemaining)
	assert.Equal(t, 0, state.DaysOverdue)
	assert.True(t, state.FinalAmount.Equal(decimal.NewFromInt(250)))
}

func TestComputeOverdueFee(t *testing.T) {
	svc := newBillingFixture(nil, nil)
	contract := &models.Contract{
		Customer:   "ana@example.com",
		StartDate:  date(2024, time.January, 15),
		Recurrence: models.RecurrenceMonthly,
	}

	state := svc.Compute(contract, decimal.NewFromInt(250), nil, date(2024, time.February, 18))

	assert.True(t, state.Overdue)
	assert.Equal(t, 3, state.DaysOverdue)
	assert.Equal(t, 0, state.DaysRemaining)
	// 250*1.02 + 10*3
	assert.True(t, state.FinalAmount.Equal(decimal.NewFromInt(285)), "got %s", state.FinalAmount)
}

func TestComputeWeeklyFromLastPayment(t *testing.T) {
	svc := newBillingFixture(nil, nil)
	contract := &models.Contract{
		Customer:   "bia@example.com",
		StartDate:  date(2024, time.January, 1),
		Recurrence: models.RecurrenceWeekly,
	}
	lastPaid := date(2024, time.March, 1)

	state := svc.Compute(contract, decimal.NewFromInt(70), &lastPaid, date(2024, time.March, 5))

	assert.Equal(t, date(2024, time.March, 8), state.DueDate)
	assert.Equal(t, 3, state.DaysRemaining)
	assert.False(t, state.Overdue)
	assert.True(t, state.FinalAmount.Equal(decimal.NewFromInt(70)))
}

func TestComputeDueDateStrictlyAfterBase(t *testing.T) {
	svc := newBillingFixture(nil, nil)
	for _, rec := range []models.Recurrence{models.RecurrenceWeekly, models.RecurrenceMonthly} {
		contract := &models.Contract{
			Customer:   "c@example.com",
			StartDate:  date(2024, time.June, 10),
			Recurrence: rec,
		}
		state := svc.Compute(contract, decimal.NewFromInt(100), nil, date(2024, time.June, 10))
		assert.True(t, state.DueDate.After(contract.StartDate), "%s due date must follow start", rec)
	}
}

func TestComputeNormalizesBaseToMidnight(t *testing.T) {
	svc := newBillingFixture(nil, nil)
	contract := &models.Contract{
		Customer:   "d@example.com",
		StartDate:  time.Date(2024, time.January, 15, 18, 30, 0, 0, time.UTC),
		Recurrence: models.RecurrenceMonthly,
	}

	state := svc.Compute(contract, decimal.NewFromInt(250), nil, date(2024, time.February, 15))

	assert.Equal(t, date(2024, time.February, 15), state.DueDate)
	assert.Equal(t, 0, state.DaysRemaining)
}

func TestStateForResolvesRentalAndLastPayment(t *testing.T) {
	rentals := &fakeRentalStore{rentals: []models.Rental{
		{ID: "r1", MotoID: "m1", Active: true, MonthlyAmount: 300},
	}}
	payments := &fakePaymentStore{records: []*models.PaymentRecord{
		{PaymentID: "10", Customer: "ana@example.com", Status: models.PaymentStatusApproved, CreatedAt: date(2024, time.April, 2)},
		{PaymentID: "11", Customer: "ana@example.com", Status: models.PaymentStatusApproved, CreatedAt: date(2024, time.May, 2)},
	}}
	svc := newBillingFixture(rentals, payments)
	contract := &models.Contract{
		ID:         "c1",
		Customer:   "ana@example.com",
		StartDate:  date(2024, time.January, 15),
		Recurrence: models.RecurrenceMonthly,
		RentalID:   "r1",
	}

	state, err := svc.StateFor(context.Background(), contract, date(2024, time.May, 20))
	require.NoError(t, err)

	// Based on the latest approved payment, not the contract start.
	assert.Equal(t, date(2024, time.June, 2), state.DueDate)
	assert.True(t, state.BaseAmount.Equal(decimal.NewFromInt(300)))
}

func TestStateForMissingRental(t *testing.T) {
	svc := newBillingFixture(&fakeRentalStore{}, &fakePaymentStore{})
	contract := &models.Contract{ID: "c1", Customer: "ana@example.com", StartDate: date(2024, time.January, 1)}

	_, err := svc.StateFor(context.Background(), contract, date(2024, time.February, 1))
	assert.ErrorIs(t, err, ErrRentalTermsMissing)
}

func TestStateForSweepFallbackAmounts(t *testing.T) {
	svc := newBillingFixture(&fakeRentalStore{}, &fakePaymentStore{})

	weekly := &models.Contract{Customer: "w@example.com", StartDate: date(2024, time.January, 1), Recurrence: models.RecurrenceWeekly}
	state, err := svc.StateForSweep(context.Background(), weekly, date(2024, time.January, 8))
	require.NoError(t, err)
	assert.True(t, state.BaseAmount.Equal(decimal.NewFromInt(70)))

	monthly := &models.Contract{Customer: "m@example.com", StartDate: date(2024, time.January, 1)}
	state, err = svc.StateForSweep(context.Background(), monthly, date(2024, time.February, 1))
	require.NoError(t, err)
	assert.True(t, state.BaseAmount.Equal(decimal.NewFromInt(250)))
}

func TestResolveRentalFallsBackToMoto(t *testing.T) {
	rentals := &fakeRentalStore{rentals: []models.Rental{
		{ID: "r9", MotoID: "m9", Active: true, WeeklyAmount: 80},
	}}
	svc := newBillingFixture(rentals, nil)
	contract := &models.Contract{Customer: "x@example.com", MotoID: "m9"}

	rental, err := svc.ResolveRental(context.Background(), contract)
	require.NoError(t, err)
	require.NotNil(t, rental)
	assert.Equal(t, "r9", rental.ID)
}

func TestAmountMatchesTolerance(t *testing.T) {
	state := &models.BillingState{FinalAmount: decimal.NewFromFloat(285.00)}
	assert.True(t, state.AmountMatches(285.0))
	assert.True(t, state.AmountMatches(285.005))
	assert.False(t, state.AmountMatches(285.02))
	assert.False(t, state.AmountMatches(284.5))
}
