package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/models"
)

// Collection names match the schema shared with the main Papa Tango system.
const (
	contractsCollection = "contratos"
	rentalsCollection   = "alugueis"
	customersCollection = "users"
	paymentsCollection  = "payments"
	remindersCollection = "whatsappReminders"
)

type contractStore struct{ col *mongo.Collection }

// NewContractStore creates a ContractStore backed by MongoDB.
func NewContractStore(db *mongo.Database) ContractStore {
	return &contractStore{col: db.Collection(contractsCollection)}
}

func (s *contractStore) ActiveByCustomer(ctx context.Context, customer string) ([]models.Contract, error) {
	filter := bson.M{"cliente": customer, "statusContrato": true}
	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts for %s: %w", customer, err)
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		return nil, fmt.Errorf("failed to decode contracts for %s: %w", customer, err)
	}
	return contracts, nil
}

func (s *contractStore) AllActive(ctx context.Context) ([]models.Contract, error) {
	cursor, err := s.col.Find(ctx, bson.M{"statusContrato": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query active contracts: %w", err)
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		return nil, fmt.Errorf("failed to decode active contracts: %w", err)
	}
	return contracts, nil
}

type rentalStore struct{ col *mongo.Collection }

// NewRentalStore creates a RentalStore backed by MongoDB.
func NewRentalStore(db *mongo.Database) RentalStore {
	return &rentalStore{col: db.Collection(rentalsCollection)}
}

func (s *rentalStore) ByID(ctx context.Context, id string) (*models.Rental, error) {
	var rental models.Rental
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rental)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rental %s: %w", id, err)
	}
	return &rental, nil
}

func (s *rentalStore) ActiveByMoto(ctx context.Context, motoID string) (*models.Rental, error) {
	filter := bson.M{"motoId": motoID, "ativo": true}
	var rental models.Rental
	err := s.col.FindOne(ctx, filter).Decode(&rental)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rental for moto %s: %w", motoID, err)
	}
	return &rental, nil
}

type customerStore struct{ col *mongo.Collection }

// NewCustomerStore creates a CustomerStore backed by MongoDB.
func NewCustomerStore(db *mongo.Database) CustomerStore {
	return &customerStore{col: db.Collection(customersCollection)}
}

func (s *customerStore) ByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return &customer, nil
}

func (s *customerStore) ByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := s.col.FindOne(ctx, bson.M{"telefone": phone}).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer by phone %s: %w", phone, err)
	}
	return &customer, nil
}

func (s *customerStore) All(ctx context.Context) ([]models.Customer, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer cursor.Close(ctx)

	var customers []models.Customer
	if err = cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return customers, nil
}

type paymentStore struct{ col *mongo.Collection }

// NewPaymentStore creates a PaymentStore backed by MongoDB.
func NewPaymentStore(db *mongo.Database) PaymentStore {
	return &paymentStore{col: db.Collection(paymentsCollection)}
}

func (s *paymentStore) LastApproved(ctx context.Context, customer string) (*models.PaymentRecord, error) {
	filter := bson.M{"userEmail": customer, "status": models.PaymentStatusApproved}
	opts := options.FindOne().SetSort(bson.D{{Key: "dateCreated", Value: -1}})

	var rec models.PaymentRecord
	err := s.col.FindOne(ctx, filter, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last approved payment for %s: %w", customer, err)
	}
	return &rec, nil
}

func (s *paymentStore) PendingByMethod(ctx context.Context, customer string, method models.PaymentMethod) (*models.PaymentRecord, error) {
	filter := bson.M{
		"userEmail":     customer,
		"status":        models.PaymentStatusPending,
		"paymentMethod": method,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "dateCreated", Value: -1}})

	var rec models.PaymentRecord
	err := s.col.FindOne(ctx, filter, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending %s payment for %s: %w", method, customer, err)
	}
	return &rec, nil
}

func (s *paymentStore) PendingPixCreatedBetween(ctx context.Context, from, to time.Time) ([]models.PaymentRecord, error) {
	filter := bson.M{
		"status":        models.PaymentStatusPending,
		"paymentMethod": models.MethodPix,
		"dateCreated":   bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending PIX payments: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []models.PaymentRecord
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode pending PIX payments: %w", err)
	}
	return recs, nil
}

func (s *paymentStore) Create(ctx context.Context, rec *models.PaymentRecord) error {
	if rec.ID == "" {
		rec.ID = rec.PaymentID
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to create payment record %s: %w", rec.PaymentID, err)
	}
	return nil
}

func (s *paymentStore) Cancel(ctx context.Context, paymentID, note string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":        models.PaymentStatusCancelled,
		"observacao":    note,
		"dateCancelled": now,
		"updatedAt":     now,
	}}
	result, err := s.col.UpdateOne(ctx, bson.M{"_id": paymentID}, update)
	if err != nil {
		return fmt.Errorf("db error cancelling payment %s: %w", paymentID, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

type reminderStore struct{ col *mongo.Collection }

// NewReminderStore creates a ReminderStore backed by MongoDB.
func NewReminderStore(db *mongo.Database) ReminderStore {
	return &reminderStore{col: db.Collection(remindersCollection)}
}

func (s *reminderStore) Exists(ctx context.Context, id string) (bool, error) {
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check reminder marker %s: %w", id, err)
	}
	return true, nil
}

func (s *reminderStore) Create(ctx context.Context, marker *models.ReminderMarker) error {
	if _, err := s.col.InsertOne(ctx, marker); err != nil {
		return fmt.Errorf("failed to create reminder marker %s: %w", marker.ID, err)
	}
	return nil
}
