package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/utils"
)

// phoneSuffixLen is the trailing-digit window shared by every format a
// Brazilian mobile number gets stored under.
const phoneSuffixLen = 8

// ICustomerService resolves customers for inbound messages and reminders.
type ICustomerService interface {
	// FindByID loads a customer by document id (email). (nil, nil) when
	// absent.
	FindByID(ctx context.Context, id string) (*models.Customer, error)
	// FindByPhone resolves a customer from a raw WhatsApp number, trying
	// every known storage format and falling back to a trailing-digit
	// scan. (nil, nil) when no customer matches.
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
}

// customerService implements ICustomerService.
type customerService struct {
	customers store.CustomerStore
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(customers store.CustomerStore) ICustomerService {
	return &customerService{customers: customers}
}

func (s *customerService) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	return s.customers.ByID(ctx, id)
}

func (s *customerService) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	for _, candidate := range utils.PhoneCandidates(phone) {
		customer, err := s.customers.ByPhone(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to look up customer by phone %s: %w", candidate, err)
		}
		if customer != nil {
			return customer, nil
		}
	}

	// No exact format matched; scan by the trailing digits shared across
	// formats.
	suffix := utils.PhoneSuffix(phone, phoneSuffixLen)
	if suffix == "" {
		return nil, nil
	}
	all, err := s.customers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan customers by phone suffix: %w", err)
	}
	for i := range all {
		c := &all[i]
		if c.Phone != "" && strings.HasSuffix(c.Phone, suffix) {
			log.Printf("Customer %s matched by phone suffix %s", c.ID, suffix)
			return c, nil
		}
	}
	return nil, nil
}
