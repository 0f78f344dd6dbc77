package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
)

const testSupportPhone = "(85) 99268-4035"

type reminderFixture struct {
	contracts *fakeContractStore
	customers *fakeCustomerStore
	payments  *fakePaymentStore
	reminders *fakeReminderStore
	transport *fakeTransport
	charger   *fakeCharger
	qr        *fakeQRPublisher
	svc       *reminderService
}

func newReminderFixture(t *testing.T, now time.Time) *reminderFixture {
	t.Helper()
	f := &reminderFixture{
		contracts: &fakeContractStore{},
		customers: &fakeCustomerStore{},
		payments:  &fakePaymentStore{},
		reminders: newFakeReminderStore(),
		transport: &fakeTransport{},
		charger:   &fakeCharger{},
		qr:        &fakeQRPublisher{},
	}
	rentals := &fakeRentalStore{rentals: []models.Rental{
		{ID: "r1", MotoID: "m1", Active: true, WeeklyAmount: 70, MonthlyAmount: 250},
	}}
	billing := NewBillingService(rentals, f.payments, time.UTC)
	instruments := NewPaymentService(f.payments, f.charger, time.UTC)
	svc := NewReminderService(f.contracts, f.customers, f.payments, f.reminders,
		billing, instruments, f.transport, f.qr, time.UTC, testSupportPhone)
	f.svc = svc.(*reminderService)
	f.svc.clock = func() time.Time { return now }
	return f
}

func (f *reminderFixture) addCustomerWithContract(id, phone string, start time.Time, recurrence models.Recurrence) {
	f.customers.customers = append(f.customers.customers, models.Customer{ID: id, Name: "Ana", Phone: phone})
	f.contracts.contracts = append(f.contracts.contracts, models.Contract{
		ID:         "c_" + id,
		Customer:   id,
		Active:     true,
		StartDate:  start,
		Recurrence: recurrence,
		RentalID:   "r1",
	})
}

func TestReminderKindPolicy(t *testing.T) {
	cases := []struct {
		name       string
		recurrence models.Recurrence
		remaining  int
		overdue    int
		wantKind   models.ReminderKind
		wantOK     bool
	}{
		{"monthly due today", models.RecurrenceMonthly, 0, 0, models.ReminderDueToday, true},
		{"monthly 3 ahead", models.RecurrenceMonthly, 3, 0, models.ReminderUpcoming, true},
		{"monthly 4 ahead", models.RecurrenceMonthly, 4, 0, "", false},
		{"weekly due today", models.RecurrenceWeekly, 0, 0, models.ReminderDueToday, true},
		{"weekly 3 ahead", models.RecurrenceWeekly, 3, 0, "", false},
		{"weekly 1 overdue", models.RecurrenceWeekly, 0, 1, models.ReminderOverdue, true},
		{"monthly 3 overdue", models.RecurrenceMonthly, 0, 3, models.ReminderOverdue, true},
		{"monthly 4 overdue", models.RecurrenceMonthly, 0, 4, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := &models.BillingState{
				DaysRemaining: tc.remaining,
				DaysOverdue:   tc.overdue,
				Overdue:       tc.overdue > 0,
			}
			kind, ok := reminderKind(tc.recurrence, state)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantKind, kind)
			}
		})
	}
}

func TestSendPaymentRemindersDueTodayWithPix(t *testing.T) {
	// Monthly contract started Jan 15; Feb 15 is due today.
	now := date(2024, time.February, 15)
	f := newReminderFixture(t, now)
	f.addCustomerWithContract("ana@example.com", "5585912345678", date(2024, time.January, 15), models.RecurrenceMonthly)
	f.charger.resp = pixResponse("77", 250)

	stats, err := f.svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Failed)

	// head+intro, copy-paste code, closing; plus the QR image.
	require.Len(t, f.transport.texts, 3)
	assert.Equal(t, "5585912345678@c.us", f.transport.texts[0].to)
	assert.Contains(t, f.transport.texts[0].body, "VENCE HOJE")
	assert.Equal(t, "pix-code-77", f.transport.texts[1].body)
	require.Len(t, f.transport.images, 1)
	assert.Equal(t, []string{"77"}, f.qr.published)

	marker, ok := f.reminders.markers[models.DailyMarkerID("ana@example.com", now)]
	require.True(t, ok, "marker written after sends")
	assert.Equal(t, models.ReminderDueToday, marker.Kind)
	assert.Equal(t, "77", marker.PixPaymentID)
	assert.Equal(t, 250.0, marker.Amount)
}

func TestSendPaymentRemindersSecondRunNoOp(t *testing.T) {
	now := date(2024, time.February, 15)
	f := newReminderFixture(t, now)
	f.addCustomerWithContract("ana@example.com", "5585912345678", date(2024, time.January, 15), models.RecurrenceMonthly)
	f.charger.resp = pixResponse("77", 250)

	_, err := f.svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	sends := len(f.transport.texts)

	stats, err := f.svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, 0, stats.Failed)
	assert.Len(t, f.transport.texts, sends, "second same-day run sends nothing")
}

func TestSendPaymentRemindersWeeklyAheadSkipped(t *testing.T) {
	// Weekly, last approved payment Mar 1 -> due Mar 8; Mar 5 leaves 3
	// days, which weekly does not remind for.
	now := date(2024, time.March, 5)
	f := newReminderFixture(t, now)
	f.addCustomerWithContract("bia@example.com", "5585987654321", date(2024, time.January, 5), models.RecurrenceWeekly)
	f.payments.records = append(f.payments.records, &models.PaymentRecord{
		PaymentID: "1", Customer: "bia@example.com",
		Status: models.PaymentStatusApproved, CreatedAt: date(2024, time.March, 1),
	})

	stats, err := f.svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Equal(t, 0, stats.Failed)
	assert.Empty(t, f.transport.texts)
	assert.Empty(t, f.reminders.markers)
}

func TestSendPaymentRemindersOverdueDegradesToText(t *testing.T) {
	// 3 days overdue and the processor is down: the reminder still goes
	// out, text-only.
	now := date(2024, time.February, 18)
	f := newReminderFixture(t, now)
	f.addCustomerWithContract("ana@example.com", "5585912345678", date(2024, time.January, 15), models.RecurrenceMonthly)
	f.charger.err = assert.AnError

	stats, err := f.svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, f.transport.texts, 1)
	assert.Contains(t, f.transport.texts[0].body, "PAGAMENTO EM ATRASO")
	assert.Contains(t, f.transport.texts[0].body, "R$ 285.00")
	assert.Empty(t, f.transport.images)

	marker := f.reminders.markers[models.DailyMarkerID("ana@example.com", now)]
	require.NotNil(t, marker)
	assert.Equal(t, models.ReminderOverdue, marker.Kind)
	assert.Empty(t, marker.PixPaymentID)
	assert.Equal(t, 285.0, marker.AmountFinal)
}

func TestSendPaymentRemindersCountsBrokenContracts(t *testing.T) {
	now := date(2024, time.February, 15)
	f := newReminderFixture(t, now)
	// Contract with no linked customer.
	f.contracts.contracts = append(f.contracts.contracts, models.Contract{ID: "c0", Active: true, StartDate: date(2024, time.January, 15)})
	// Customer without a phone.
	f.customers.customers = append(f.customers.customers, models.Customer{ID: "mute@example.com"})
	f.contracts.contracts = append(f.contracts.contracts, models.Contract{
		ID: "c1", Customer: "mute@example.com", Active: true, StartDate: date(2024, time.January, 15), RentalID: "r1",
	})
	// A healthy one.
	f.addCustomerWithContract("ana@example.com", "5585912345678", date(2024, time.January, 15), models.RecurrenceMonthly)
	f.charger.resp = pixResponse("77", 250)

	stats, err := f.svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 2, stats.Failed)
}

func TestSendEveningPixReminders(t *testing.T) {
	now := time.Date(2024, time.February, 15, 21, 0, 0, 0, time.UTC)
	f := newReminderFixture(t, now)
	f.customers.customers = append(f.customers.customers, models.Customer{ID: "ana@example.com", Name: "Ana", Phone: "5585912345678"})
	f.payments.records = append(f.payments.records, &models.PaymentRecord{
		PaymentID: "77",
		Customer:  "ana@example.com",
		Status:    models.PaymentStatusPending,
		Method:    models.MethodPix,
		Amount:    250,
		PixQRCode: "pix-code-77",
		CreatedAt: time.Date(2024, time.February, 15, 10, 12, 0, 0, time.UTC),
	})
	// Pending PIX from yesterday is out of scope.
	f.payments.records = append(f.payments.records, &models.PaymentRecord{
		PaymentID: "70",
		Customer:  "ana@example.com",
		Status:    models.PaymentStatusPending,
		Method:    models.MethodPix,
		Amount:    250,
		PixQRCode: "pix-code-70",
		CreatedAt: time.Date(2024, time.February, 14, 10, 12, 0, 0, time.UTC),
	})

	stats, err := f.svc.SendEveningPixReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, f.transport.texts, 3)
	assert.Contains(t, f.transport.texts[0].body, "LEMBRETE NOTURNO")
	assert.Equal(t, "pix-code-77", f.transport.texts[1].body)
	require.Len(t, f.transport.images, 1)

	today := date(2024, time.February, 15)
	_, ok := f.reminders.markers[models.EveningPixMarkerID("77", today)]
	assert.True(t, ok)

	// Second run the same evening is a no-op.
	stats, err = f.svc.SendEveningPixReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sent)
	assert.Len(t, f.transport.texts, 3)
}
