package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/mercadopago"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
)

// slipMinimumAmount is the processor's floor for slip issuance.
var slipMinimumAmount = decimal.NewFromInt(3)

const (
	slipCancelNote = "Cancelado automaticamente devido a atraso no pagamento e boleto vencido"
	pixCancelNote  = "Cancelado automaticamente devido a atraso no pagamento"
)

// InstrumentResult is the outcome of an ensure-instrument reconciliation.
type InstrumentResult struct {
	Record *models.PaymentRecord
	// Reused is true when an existing pending record was returned without
	// a processor call.
	Reused bool
	// AmountMismatch is true when an unexpired slip was reused even though
	// its amount differs from the current fee-adjusted total; the caller
	// surfaces the discrepancy instead of reissuing.
	AmountMismatch bool
	// Reissued is true when a stale record was cancelled before creating
	// the returned one.
	Reissued bool
}

// IPaymentService reconciles payment instruments: at most one non-cancelled
// record per (customer, method), reusing, cancelling and issuing through
// the processor as needed.
type IPaymentService interface {
	// EnsureInstrument finds or creates the single authoritative pending
	// instrument of the given method. Calls for the same (customer,
	// method) are serialized; the store offers no atomic check-and-create.
	EnsureInstrument(ctx context.Context, customer *models.Customer, contract *models.Contract, method models.PaymentMethod, state *models.BillingState, now time.Time) (*InstrumentResult, error)
}

// paymentService implements IPaymentService.
type paymentService struct {
	payments store.PaymentStore
	charger  mercadopago.Charger
	loc      *time.Location

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(payments store.PaymentStore, charger mercadopago.Charger, loc *time.Location) IPaymentService {
	return &paymentService{
		payments: payments,
		charger:  charger,
		loc:      loc,
		locks:    make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing reconciliation for one (customer,
// method) pair. Locks are never evicted; the key space is bounded by the
// customer base.
func (s *paymentService) keyLock(customer string, method models.PaymentMethod) *sync.Mutex {
	key := customer + "|" + string(method)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *paymentService) EnsureInstrument(ctx context.Context, customer *models.Customer, contract *models.Contract, method models.PaymentMethod, state *models.BillingState, now time.Time) (*InstrumentResult, error) {
	if method == models.MethodSlip && state.FinalAmount.LessThan(slipMinimumAmount) {
		return nil, ErrSlipAmountBelowMinimum
	}

	l := s.keyLock(customer.ID, method)
	l.Lock()
	defer l.Unlock()

	pending, err := s.payments.PendingByMethod(ctx, customer.ID, method)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending %s for %s: %w", method, customer.ID, err)
	}

	reissued := false
	if pending != nil {
		match := state.AmountMatches(pending.Amount)
		if method == models.MethodSlip {
			// A live, payable slip is never invalidated by a same-day fee
			// recalculation; the amount discrepancy is surfaced instead.
			today := midnightIn(now, s.loc)
			if unexpired := !pending.SlipExpired(today); match || unexpired {
				return &InstrumentResult{
					Record:         pending,
					Reused:         true,
					AmountMismatch: unexpired && !match,
				}, nil
			}
		} else if match {
			return &InstrumentResult{Record: pending, Reused: true}, nil
		}

		note := pixCancelNote
		if method == models.MethodSlip {
			note = slipCancelNote
		}
		log.Printf("Cancelling stale %s %s for %s: amount %.2f, current %s",
			method, pending.PaymentID, customer.ID, pending.Amount, state.FinalAmount.StringFixed(2))
		if err := s.payments.Cancel(ctx, pending.PaymentID, note); err != nil {
			return nil, fmt.Errorf("failed to cancel stale %s %s: %w", method, pending.PaymentID, err)
		}
		reissued = true
	}

	rec, err := s.createInstrument(ctx, customer, contract, method, state, now)
	if err != nil {
		return nil, err
	}
	return &InstrumentResult{Record: rec, Reissued: reissued}, nil
}

// createInstrument issues a new charge and persists its record. The charge
// carries the base amount plus the days-overdue count; fee computation is
// owned by the processor.
func (s *paymentService) createInstrument(ctx context.Context, customer *models.Customer, contract *models.Contract, method models.PaymentMethod, state *models.BillingState, now time.Time) (*models.PaymentRecord, error) {
	recurrence := contract.EffectiveRecurrence()
	description := "Pagamento Mensal"
	if recurrence == models.RecurrenceWeekly {
		description = "Pagamento Semanal"
	}

	req := &mercadopago.ChargeRequest{
		TransactionAmount: state.BaseAmount.Round(2).InexactFloat64(),
		Description:       description,
		DaysOverdue:       state.DaysOverdue,
		Payer: mercadopago.Payer{
			Email:     customer.ID,
			FirstName: customer.FirstName(),
			LastName:  customer.LastName(),
			Identification: mercadopago.Identification{
				Type:   "CPF",
				Number: customer.TaxID(),
			},
		},
	}

	var pType mercadopago.PaymentType
	switch method {
	case models.MethodSlip:
		pType = mercadopago.PaymentTypeSlip
		req.Payer.Address = payerAddress(customer)
		req.ExternalReference = fmt.Sprintf("user_%s", customer.ID)
	default:
		pType = mercadopago.PaymentTypePix
		req.ExternalReference = fmt.Sprintf("user_%s_%d", customer.ID, now.UnixMilli())
		req.StatementDescriptor = "PAPA TANGO MOTOS"
	}
	req.PaymentType = pType

	resp, err := s.charger.CreateCharge(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s charge for %s: %w", method, customer.ID, err)
	}
	inst, err := resp.Instrument(pType)
	if err != nil {
		return nil, fmt.Errorf("charge response for %s: %w", customer.ID, err)
	}

	amount := inst.Amount
	if amount <= 0 {
		amount = state.FinalAmount.InexactFloat64()
	}
	dueDate := state.DueDate
	rec := &models.PaymentRecord{
		ID:            inst.PaymentID,
		PaymentID:     inst.PaymentID,
		Customer:      customer.ID,
		Name:          customer.DisplayName(),
		Status:        models.PaymentStatus(inst.Status),
		Method:        method,
		Amount:        amount,
		Description:   description,
		ExternalRef:   req.ExternalReference,
		CreatedAt:     now,
		UpdatedAt:     now,
		SlipURL:       inst.SlipURL,
		Barcode:       inst.Barcode,
		DigitableLine: inst.DigitableLine,
		PixQRCode:     inst.QRCode,
		PixCopyPaste:  inst.QRCodeBase64,
		ExpiresAt:     inst.ExpiresAt,
		Overdue:       state.Overdue,
		DaysOverdue:   state.DaysOverdue,
		BaseAmount:    state.BaseAmount.InexactFloat64(),
		NextDueDate:   &dueDate,
	}
	if err := s.payments.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist %s %s for %s: %w", method, rec.PaymentID, customer.ID, err)
	}
	log.Printf("Issued %s %s for %s, amount %.2f (base %.2f, %d days overdue)",
		method, rec.PaymentID, customer.ID, rec.Amount, rec.BaseAmount, rec.DaysOverdue)
	return rec, nil
}

// payerAddress builds the slip billing address, defaulting every missing
// field the way the mobile app does.
func payerAddress(customer *models.Customer) *mercadopago.PayerAddress {
	addr := customer.Address
	if addr == nil {
		addr = &models.Address{}
	}
	a := &mercadopago.PayerAddress{
		ZipCode:      models.DigitsOnly(addr.PostalCode),
		StreetName:   addr.Street,
		StreetNumber: addr.Number,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		FederalUnit:  addr.State,
	}
	if a.ZipCode == "" {
		a.ZipCode = "60000000"
	}
	if a.StreetName == "" {
		a.StreetName = "Rua não informada"
	}
	if a.StreetNumber == "" {
		a.StreetNumber = "0"
	}
	if a.Neighborhood == "" {
		a.Neighborhood = "Bairro não informado"
	}
	if a.City == "" {
		a.City = "Fortaleza"
	}
	if a.FederalUnit == "" {
		a.FederalUnit = "CE"
	}
	return a
}

// midnightIn normalizes t to 00:00 of its calendar day in loc.
func midnightIn(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
