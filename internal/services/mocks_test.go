package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/mercadopago"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
)

// In-memory store fakes. They mirror the query semantics of the Mongo
// implementations so the services can be exercised without a database.

type fakeContractStore struct {
	contracts []models.Contract
}

func (f *fakeContractStore) ActiveByCustomer(_ context.Context, customer string) ([]models.Contract, error) {
	var out []models.Contract
	for _, c := range f.contracts {
		if c.Active && c.Customer == customer {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContractStore) AllActive(_ context.Context) ([]models.Contract, error) {
	var out []models.Contract
	for _, c := range f.contracts {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeRentalStore struct {
	rentals []models.Rental
}

func (f *fakeRentalStore) ByID(_ context.Context, id string) (*models.Rental, error) {
	for i := range f.rentals {
		if f.rentals[i].ID == id {
			return &f.rentals[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRentalStore) ActiveByMoto(_ context.Context, motoID string) (*models.Rental, error) {
	for i := range f.rentals {
		if f.rentals[i].Active && f.rentals[i].MotoID == motoID {
			return &f.rentals[i], nil
		}
	}
	return nil, nil
}

type fakeCustomerStore struct {
	customers []models.Customer
}

func (f *fakeCustomerStore) ByID(_ context.Context, id string) (*models.Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == id {
			return &f.customers[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCustomerStore) ByPhone(_ context.Context, phone string) (*models.Customer, error) {
	for i := range f.customers {
		if f.customers[i].Phone == phone {
			return &f.customers[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCustomerStore) All(_ context.Context) ([]models.Customer, error) {
	return f.customers, nil
}

type fakePaymentStore struct {
	records   []*models.PaymentRecord
	createErr error
}

func (f *fakePaymentStore) LastApproved(_ context.Context, customer string) (*models.PaymentRecord, error) {
	var best *models.PaymentRecord
	for _, r := range f.records {
		if r.Customer != customer || r.Status != models.PaymentStatusApproved {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	return best, nil
}

func (f *fakePaymentStore) PendingByMethod(_ context.Context, customer string, method models.PaymentMethod) (*models.PaymentRecord, error) {
	var best *models.PaymentRecord
	for _, r := range f.records {
		if r.Customer != customer || r.Method != method || r.Status != models.PaymentStatusPending {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	return best, nil
}

func (f *fakePaymentStore) PendingPixCreatedBetween(_ context.Context, from, to time.Time) ([]models.PaymentRecord, error) {
	var out []models.PaymentRecord
	for _, r := range f.records {
		if r.Method != models.MethodPix || r.Status != models.PaymentStatusPending {
			continue
		}
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakePaymentStore) Create(_ context.Context, rec *models.PaymentRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakePaymentStore) Cancel(_ context.Context, paymentID, note string) error {
	for _, r := range f.records {
		if r.PaymentID == paymentID {
			r.Status = models.PaymentStatusCancelled
			r.Note = note
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakePaymentStore) nonCancelled(customer string, method models.PaymentMethod) int {
	n := 0
	for _, r := range f.records {
		if r.Customer == customer && r.Method == method && r.Status != models.PaymentStatusCancelled {
			n++
		}
	}
	return n
}

type fakeReminderStore struct {
	markers map[string]*models.ReminderMarker
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{markers: make(map[string]*models.ReminderMarker)}
}

func (f *fakeReminderStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.markers[id]
	return ok, nil
}

func (f *fakeReminderStore) Create(_ context.Context, marker *models.ReminderMarker) error {
	if _, ok := f.markers[marker.ID]; ok {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	f.markers[marker.ID] = marker
	return nil
}

type sentText struct {
	to   string
	body string
}

type sentImage struct {
	to, url, filename, caption string
}

type fakeTransport struct {
	texts  []sentText
	images []sentImage
	err    error
}

func (f *fakeTransport) SendText(_ context.Context, recipient, body string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, sentText{to: recipient, body: body})
	return nil
}

func (f *fakeTransport) SendImage(_ context.Context, recipient, imageURL, filename, caption string) error {
	if f.err != nil {
		return f.err
	}
	f.images = append(f.images, sentImage{to: recipient, url: imageURL, filename: filename, caption: caption})
	return nil
}

func (f *fakeTransport) textsContaining(sub string) int {
	n := 0
	for _, t := range f.texts {
		if strings.Contains(t.body, sub) {
			n++
		}
	}
	return n
}

type fakeCharger struct {
	resp     *mercadopago.ChargeResponse
	err      error
	requests []*mercadopago.ChargeRequest
}

func (f *fakeCharger) CreateCharge(_ context.Context, req *mercadopago.ChargeRequest) (*mercadopago.ChargeResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeQRPublisher struct {
	published []string
	err       error
}

func (f *fakeQRPublisher) PublishPixQR(_ context.Context, paymentID, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, paymentID)
	return "https://img.example.com/pix_" + paymentID + ".png", nil
}
