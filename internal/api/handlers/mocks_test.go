package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/whatsapp"
)

// --- Mocks shared by the handler tests ---

type MockMessageRouter struct {
	mock.Mock
}

func (m *MockMessageRouter) Handle(ctx context.Context, msg *whatsapp.InboundMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockSessionGateway struct {
	mock.Mock
}

func (m *MockSessionGateway) SessionStatus(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSessionGateway) QRCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendText(ctx context.Context, recipient, body string) error {
	args := m.Called(ctx, recipient, body)
	return args.Error(0)
}

func (m *MockTransport) SendImage(ctx context.Context, recipient, imageURL, filename, caption string) error {
	args := m.Called(ctx, recipient, imageURL, filename, caption)
	return args.Error(0)
}

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) ByID(ctx context.Context, id string) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerStore) ByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	args := m.Called(ctx, phone)
	if c := args.Get(0); c != nil {
		return c.(*models.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomerStore) All(ctx context.Context) ([]models.Customer, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]models.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) SendPaymentReminders(ctx context.Context) (*services.ReminderRunStats, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*services.ReminderRunStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReminderService) SendEveningPixReminders(ctx context.Context) (*services.ReminderRunStats, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*services.ReminderRunStats), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}
