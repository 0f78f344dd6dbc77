package whatsapp

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/messages"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/utils"
)

// gratitudeWords short-circuits thank-you replies; "1" in "obrigado" must
// not reach the numbered menu matching.
var gratitudeWords = []string{
	"obrigado", "obrigada", "obg", "valeu", "grato", "grata",
	"thanks", "agradeço", "vlw", "flw",
}

// Router classifies inbound messages and drives the interactive billing
// flows. It is stateless per message.
type Router struct {
	customers    services.ICustomerService
	contracts    store.ContractStore
	billing      services.IBillingService
	instruments  services.IPaymentService
	transport    services.Transport
	qr           services.QRPublisher
	supportPhone string

	clock func() time.Time
}

// NewRouter creates a Router. qr may be nil; PIX responses then skip the
// image send.
func NewRouter(
	customers services.ICustomerService,
	contracts store.ContractStore,
	billing services.IBillingService,
	instruments services.IPaymentService,
	transport services.Transport,
	qr services.QRPublisher,
	supportPhone string,
) *Router {
	return &Router{
		customers:    customers,
		contracts:    contracts,
		billing:      billing,
		instruments:  instruments,
		transport:    transport,
		qr:           qr,
		supportPhone: supportPhone,
		clock:        time.Now,
	}
}

// Handle processes one inbound message. Per-message errors are answered
// with an apologetic fallback and logged; the returned error is reserved
// for transport failures on the reply itself.
func (r *Router) Handle(ctx context.Context, msg *InboundMessage) error {
	if msg.IsGroupMsg {
		return nil
	}
	switch msg.Type {
	case "ptt", "audio":
		return r.transport.SendText(ctx, msg.From, messages.AudioUnsupported())
	case "image", "document":
		return r.transport.SendText(ctx, msg.From, messages.ProofReceived(r.supportPhone))
	}
	if msg.Body == "" {
		return nil
	}

	phone := utils.PhoneFromJID(msg.From)
	customer, err := r.customers.FindByPhone(ctx, phone)
	if err != nil {
		log.Printf("Failed to resolve customer for %s: %v", phone, err)
		return r.transport.SendText(ctx, msg.From, messages.GenericError(r.supportPhone))
	}
	if customer == nil {
		log.Printf("No customer found for number %s", phone)
		return r.transport.SendText(ctx, msg.From, messages.Onboarding(r.supportPhone))
	}

	text := strings.ToLower(msg.Body)
	for _, w := range gratitudeWords {
		if strings.Contains(text, w) {
			return r.transport.SendText(ctx, msg.From, messages.Gratitude())
		}
	}

	switch {
	case containsAny(text, "pagamento", "pagar", "1"):
		return r.sendPaymentInfo(ctx, msg.From, customer)
	case containsAny(text, "boleto", "2"):
		return r.sendSlip(ctx, msg.From, customer)
	case containsAny(text, "pix", "3"):
		return r.sendPix(ctx, msg.From, customer)
	case containsAny(text, "atraso", "atrasado", "4"):
		return r.checkOverdue(ctx, msg.From, customer)
	case containsAny(text, "atendimento", "atendente", "5"):
		return r.transport.SendText(ctx, msg.From, messages.Agent(r.supportPhone))
	default:
		return r.transport.SendText(ctx, msg.From, messages.Menu(customer.DisplayName()))
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// activeContract loads the customer's first active contract, answering
// the no-contract message when none exists.
func (r *Router) activeContract(ctx context.Context, to string, customer *models.Customer) (*models.Contract, error) {
	contracts, err := r.contracts.ActiveByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, r.transport.SendText(ctx, to, messages.NoActiveContracts(r.supportPhone))
	}
	return &contracts[0], nil
}

// billingStateOrReply computes the billing state, answering the
// rental-terms fallback on ErrRentalTermsMissing. A (nil, nil) return
// means the flow already replied.
func (r *Router) billingStateOrReply(ctx context.Context, to string, contract *models.Contract) (*models.BillingState, error) {
	state, err := r.billing.StateFor(ctx, contract, r.clock())
	if err != nil {
		if errors.Is(err, services.ErrRentalTermsMissing) {
			return nil, r.transport.SendText(ctx, to, messages.RentalTermsMissing(r.supportPhone))
		}
		return nil, err
	}
	return state, nil
}

func (r *Router) sendPaymentInfo(ctx context.Context, to string, customer *models.Customer) error {
	contract, err := r.activeContract(ctx, to, customer)
	if err != nil || contract == nil {
		return r.replyError(ctx, to, err, messages.GenericError(r.supportPhone))
	}
	state, err := r.billingStateOrReply(ctx, to, contract)
	if err != nil || state == nil {
		return r.replyError(ctx, to, err, messages.GenericError(r.supportPhone))
	}
	return r.transport.SendText(ctx, to, messages.PaymentInfo(customer.DisplayName(), state))
}

func (r *Router) checkOverdue(ctx context.Context, to string, customer *models.Customer) error {
	contract, err := r.activeContract(ctx, to, customer)
	if err != nil || contract == nil {
		return r.replyError(ctx, to, err, messages.GenericError(r.supportPhone))
	}
	state, err := r.billingStateOrReply(ctx, to, contract)
	if err != nil || state == nil {
		return r.replyError(ctx, to, err, messages.GenericError(r.supportPhone))
	}
	return r.transport.SendText(ctx, to, messages.OverdueCheck(customer.DisplayName(), state, r.supportPhone))
}

func (r *Router) sendSlip(ctx context.Context, to string, customer *models.Customer) error {
	contract, err := r.activeContract(ctx, to, customer)
	if err != nil || contract == nil {
		return r.replyError(ctx, to, err, messages.SlipError(r.supportPhone))
	}
	state, err := r.billingStateOrReply(ctx, to, contract)
	if err != nil || state == nil {
		return r.replyError(ctx, to, err, messages.SlipError(r.supportPhone))
	}
	if err := r.transport.SendText(ctx, to, messages.SlipGenerating()); err != nil {
		return err
	}

	result, err := r.instruments.EnsureInstrument(ctx, customer, contract, models.MethodSlip, state, r.clock())
	if err != nil {
		if errors.Is(err, services.ErrSlipAmountBelowMinimum) {
			return r.transport.SendText(ctx, to, messages.SlipBelowMinimum())
		}
		return r.replyError(ctx, to, err, messages.SlipError(r.supportPhone))
	}

	var body string
	switch {
	case result.Reused:
		body = messages.SlipExisting(result.Record, result.AmountMismatch, state.FinalAmount, state)
	case result.Reissued:
		if err := r.transport.SendText(ctx, to, messages.SlipCancelled()); err != nil {
			return err
		}
		body = messages.SlipCreated(result.Record, state)
	default:
		body = messages.SlipCreated(result.Record, state)
	}
	if err := r.transport.SendText(ctx, to, body); err != nil {
		return err
	}
	return r.transport.SendText(ctx, to, messages.SlipBarcode(result.Record))
}

func (r *Router) sendPix(ctx context.Context, to string, customer *models.Customer) error {
	contract, err := r.activeContract(ctx, to, customer)
	if err != nil || contract == nil {
		return r.replyError(ctx, to, err, messages.PixError(r.supportPhone))
	}
	state, err := r.billingStateOrReply(ctx, to, contract)
	if err != nil || state == nil {
		return r.replyError(ctx, to, err, messages.PixError(r.supportPhone))
	}
	if err := r.transport.SendText(ctx, to, messages.PixGenerating()); err != nil {
		return err
	}

	result, err := r.instruments.EnsureInstrument(ctx, customer, contract, models.MethodPix, state, r.clock())
	if err != nil {
		return r.replyError(ctx, to, err, messages.PixError(r.supportPhone))
	}

	if result.Reused {
		if err := r.transport.SendText(ctx, to, messages.PixExistingFound()); err != nil {
			return err
		}
	} else if result.Reissued {
		if err := r.transport.SendText(ctx, to, messages.PixCancelled()); err != nil {
			return err
		}
	}

	rec := result.Record
	if err := r.transport.SendText(ctx, to, messages.PixCreated(rec, state)); err != nil {
		return err
	}
	if err := r.transport.SendText(ctx, to, rec.PixQRCode); err != nil {
		return err
	}
	if r.qr != nil && rec.HasPixCode() {
		if url, qrErr := r.qr.PublishPixQR(ctx, rec.PaymentID, rec.PixQRCode); qrErr != nil {
			log.Printf("Failed to publish QR image for payment %s: %v", rec.PaymentID, qrErr)
		} else if imgErr := r.transport.SendImage(ctx, to, url, messages.QRImageFilename, messages.QRImageCaption); imgErr != nil {
			log.Printf("Failed to send QR image for payment %s: %v", rec.PaymentID, imgErr)
		}
	}
	return nil
}

// replyError logs err (when set) and answers with the flow's apology. A
// nil err means the flow already replied.
func (r *Router) replyError(ctx context.Context, to string, err error, apology string) error {
	if err == nil {
		return nil
	}
	log.Printf("Interactive flow failed for %s: %v", to, err)
	return r.transport.SendText(ctx, to, apology)
}
