package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/db"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/messages"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/utils"
)

// ReminderRunStats aggregates one scheduled run.
type ReminderRunStats struct {
	Sent   int
	Failed int
}

// IReminderService runs the scheduled reminder sweeps.
type IReminderService interface {
	// SendPaymentReminders walks all active contracts, applies the
	// eligibility policy and sends at most one reminder per customer per
	// calendar day. Per-customer failures are logged and counted, never
	// abort the batch.
	SendPaymentReminders(ctx context.Context) (*ReminderRunStats, error)
	// SendEveningPixReminders re-sends the PIX payload of instruments
	// created today and still pending, once per instrument per day.
	SendEveningPixReminders(ctx context.Context) (*ReminderRunStats, error)
}

// reminderService implements IReminderService. Contracts are processed
// sequentially to bound the outbound burst rate against the transport.
type reminderService struct {
	contracts    store.ContractStore
	customers    store.CustomerStore
	payments     store.PaymentStore
	reminders    store.ReminderStore
	billing      IBillingService
	instruments  IPaymentService
	transport    Transport
	qr           QRPublisher
	loc          *time.Location
	supportPhone string

	clock func() time.Time
}

// NewReminderService creates a new ReminderService. qr may be nil; image
// sends are then skipped and reminders degrade to text plus copy-paste
// code.
func NewReminderService(
	contracts store.ContractStore,
	customers store.CustomerStore,
	payments store.PaymentStore,
	reminders store.ReminderStore,
	billing IBillingService,
	instruments IPaymentService,
	transport Transport,
	qr QRPublisher,
	loc *time.Location,
	supportPhone string,
) IReminderService {
	return &reminderService{
		contracts:    contracts,
		customers:    customers,
		payments:     payments,
		reminders:    reminders,
		billing:      billing,
		instruments:  instruments,
		transport:    transport,
		qr:           qr,
		loc:          loc,
		supportPhone: supportPhone,
		clock:        time.Now,
	}
}

// reminderKind applies the eligibility policy. Monthly contracts remind up
// to three days ahead, weekly only on the day; 1-3 days overdue reminds
// either way and takes precedence.
func reminderKind(recurrence models.Recurrence, state *models.BillingState) (models.ReminderKind, bool) {
	if state.DaysOverdue >= 1 && state.DaysOverdue <= 3 {
		return models.ReminderOverdue, true
	}
	if state.Overdue {
		return "", false
	}
	switch recurrence {
	case models.RecurrenceWeekly:
		if state.DaysRemaining == 0 {
			return models.ReminderDueToday, true
		}
	default:
		if state.DaysRemaining == 0 {
			return models.ReminderDueToday, true
		}
		if state.DaysRemaining <= 3 {
			return models.ReminderUpcoming, true
		}
	}
	return "", false
}

func (s *reminderService) SendPaymentReminders(ctx context.Context) (*ReminderRunStats, error) {
	log.Println("Starting payment reminder sweep")
	now := s.clock()
	today := midnightIn(now, s.loc)

	contracts, err := s.contracts.AllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active contracts: %w", err)
	}
	if len(contracts) == 0 {
		log.Println("No active contracts found")
		return &ReminderRunStats{}, nil
	}

	stats := &ReminderRunStats{}
	for i := range contracts {
		contract := &contracts[i]
		if err := s.remindContract(ctx, contract, now, today, stats); err != nil {
			log.Printf("Reminder failed for contract %s (customer %s): %v", contract.ID, contract.Customer, err)
			stats.Failed++
		}
	}
	log.Printf("Payment reminder sweep done. Sent: %d, failed: %d", stats.Sent, stats.Failed)
	return stats, nil
}

// remindContract handles one contract. A nil return means either a
// reminder was sent (stats updated) or the contract was legitimately
// skipped; an error counts as a failure.
func (s *reminderService) remindContract(ctx context.Context, contract *models.Contract, now, today time.Time, stats *ReminderRunStats) error {
	if contract.Customer == "" {
		return fmt.Errorf("%w: no linked customer", ErrContractDataIncomplete)
	}
	customer, err := s.customers.ByID(ctx, contract.Customer)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return fmt.Errorf("%w: customer %s not found", ErrContractDataIncomplete, contract.Customer)
	}
	if customer.Phone == "" {
		return fmt.Errorf("%w: customer %s has no phone", ErrContractDataIncomplete, customer.ID)
	}

	markerID := models.DailyMarkerID(customer.ID, today)
	exists, err := s.reminders.Exists(ctx, markerID)
	if err != nil {
		return fmt.Errorf("failed to check reminder marker: %w", err)
	}
	if exists {
		log.Printf("Reminder already sent today for %s, skipping", customer.ID)
		return nil
	}

	state, err := s.billing.StateForSweep(ctx, contract, now)
	if err != nil {
		return fmt.Errorf("failed to compute billing state: %w", err)
	}
	kind, eligible := reminderKind(contract.EffectiveRecurrence(), state)
	if !eligible {
		return nil
	}

	// Best-effort PIX attach: a processor failure degrades the reminder
	// to text-only, it does not fail the customer.
	var pix *models.PaymentRecord
	if s.instruments != nil {
		result, err := s.instruments.EnsureInstrument(ctx, customer, contract, models.MethodPix, state, now)
		if err != nil {
			log.Printf("Could not attach PIX for %s: %v", customer.ID, err)
		} else {
			pix = result.Record
		}
	}

	to := utils.JIDFromPhone(customer.Phone)
	name := customer.DisplayName()
	head := messages.ReminderHead(kind, name, state)

	if pix != nil && pix.HasPixCode() {
		if err := s.transport.SendText(ctx, to, head+messages.ReminderPixIntro()); err != nil {
			return fmt.Errorf("failed to send reminder: %w", err)
		}
		if err := s.transport.SendText(ctx, to, pix.PixQRCode); err != nil {
			return fmt.Errorf("failed to send pix code: %w", err)
		}
		s.sendQRImage(ctx, to, pix.PaymentID, pix.PixQRCode)
		if err := s.transport.SendText(ctx, to, messages.ReminderClosing(kind, s.supportPhone)); err != nil {
			return fmt.Errorf("failed to send reminder closing: %w", err)
		}
	} else {
		pix = nil
		if err := s.transport.SendText(ctx, to, head+messages.ReminderTextOnly(kind, s.supportPhone)); err != nil {
			return fmt.Errorf("failed to send reminder: %w", err)
		}
	}

	marker := &models.ReminderMarker{
		ID:            markerID,
		Customer:      customer.ID,
		Kind:          kind,
		DueDate:       &state.DueDate,
		Amount:        state.BaseAmount.InexactFloat64(),
		AmountFinal:   state.FinalAmount.InexactFloat64(),
		DaysRemaining: state.DaysRemaining,
		DaysOverdue:   state.DaysOverdue,
		Overdue:       state.Overdue,
		SentAt:        now,
	}
	if pix != nil {
		marker.PixPaymentID = pix.PaymentID
	}
	if err := s.reminders.Create(ctx, marker); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// Another instance claimed this customer today after our
			// sends went out; nothing left to do.
			log.Printf("Reminder marker for %s already claimed", customer.ID)
			stats.Sent++
			return nil
		}
		return fmt.Errorf("failed to write reminder marker: %w", err)
	}
	log.Printf("Payment reminder sent to %s (%s)", customer.ID, kind)
	stats.Sent++
	return nil
}

func (s *reminderService) SendEveningPixReminders(ctx context.Context) (*ReminderRunStats, error) {
	log.Println("Starting evening PIX reminder sweep")
	now := s.clock()
	today := midnightIn(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)

	pending, err := s.payments.PendingPixCreatedBetween(ctx, today, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's pending pix: %w", err)
	}
	if len(pending) == 0 {
		log.Println("No pending PIX instruments created today")
		return &ReminderRunStats{}, nil
	}

	stats := &ReminderRunStats{}
	for i := range pending {
		rec := &pending[i]
		sent, err := s.resendPix(ctx, rec, now, today)
		if err != nil {
			log.Printf("Evening PIX reminder failed for %s (payment %s): %v", rec.Customer, rec.PaymentID, err)
			stats.Failed++
			continue
		}
		if sent {
			stats.Sent++
		}
	}
	log.Printf("Evening PIX sweep done. Sent: %d, failed: %d", stats.Sent, stats.Failed)
	return stats, nil
}

func (s *reminderService) resendPix(ctx context.Context, rec *models.PaymentRecord, now, today time.Time) (bool, error) {
	markerID := models.EveningPixMarkerID(rec.PaymentID, today)
	exists, err := s.reminders.Exists(ctx, markerID)
	if err != nil {
		return false, fmt.Errorf("failed to check evening marker: %w", err)
	}
	if exists {
		return false, nil
	}

	customer, err := s.customers.ByID(ctx, rec.Customer)
	if err != nil {
		return false, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil || customer.Phone == "" {
		return false, fmt.Errorf("%w: customer %s unreachable", ErrContractDataIncomplete, rec.Customer)
	}
	if !rec.HasPixCode() {
		return false, errors.New("payment record carries no pix code")
	}

	to := utils.JIDFromPhone(customer.Phone)
	if err := s.transport.SendText(ctx, to, messages.EveningPixHead(customer.DisplayName(), rec)); err != nil {
		return false, fmt.Errorf("failed to send evening reminder: %w", err)
	}
	if err := s.transport.SendText(ctx, to, rec.PixQRCode); err != nil {
		return false, fmt.Errorf("failed to send pix code: %w", err)
	}
	s.sendQRImage(ctx, to, rec.PaymentID, rec.PixQRCode)
	if err := s.transport.SendText(ctx, to, messages.EveningPixClosing(s.supportPhone)); err != nil {
		return false, fmt.Errorf("failed to send evening closing: %w", err)
	}

	marker := &models.ReminderMarker{
		ID:           markerID,
		Customer:     rec.Customer,
		Amount:       rec.Amount,
		DaysOverdue:  rec.DaysOverdue,
		Overdue:      rec.Overdue,
		PixPaymentID: rec.PaymentID,
		SentAt:       now,
	}
	if err := s.reminders.Create(ctx, marker); err != nil && !db.IsMongoDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to write evening marker: %w", err)
	}
	log.Printf("Evening PIX reminder sent to %s (payment %s)", rec.Customer, rec.PaymentID)
	return true, nil
}

// sendQRImage publishes and sends the QR image. Failures degrade the
// reminder to the copy-paste code already sent.
func (s *reminderService) sendQRImage(ctx context.Context, to, paymentID, code string) {
	if s.qr == nil {
		return
	}
	url, err := s.qr.PublishPixQR(ctx, paymentID, code)
	if err != nil {
		log.Printf("Failed to publish QR image for payment %s: %v", paymentID, err)
		return
	}
	if err := s.transport.SendImage(ctx, to, url, messages.QRImageFilename, messages.QRImageCaption); err != nil {
		log.Printf("Failed to send QR image for payment %s: %v", paymentID, err)
	}
}
