// Package mercadopago talks to the payment-processing cloud function that
// fronts Mercado Pago. The function owns late-fee arithmetic: charge
// requests carry the base amount plus the days-overdue count, and the
// response reports the final charged amount.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// PaymentType selects the instrument kind of a charge.
type PaymentType string

const (
	PaymentTypeSlip PaymentType = "boleto"
	PaymentTypePix  PaymentType = "pix"
)

var (
	// ErrUnavailable covers network failures, timeouts and non-2xx replies.
	ErrUnavailable = errors.New("payment processor unavailable")
	// ErrInvalidResponse covers 2xx replies missing required fields.
	ErrInvalidResponse = errors.New("invalid payment processor response")
)

// Identification is the payer's tax document.
type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// PayerAddress is required for slip charges.
type PayerAddress struct {
	ZipCode      string `json:"zip_code"`
	StreetName   string `json:"street_name"`
	StreetNumber string `json:"street_number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	FederalUnit  string `json:"federal_unit"`
}

// Payer describes who the charge is issued against.
type Payer struct {
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Identification Identification `json:"identification"`
	Address        *PayerAddress  `json:"address,omitempty"`
}

// ChargeRequest is the processor's request contract. TransactionAmount is
// the BASE amount; the processor applies the late fee from DaysOverdue.
type ChargeRequest struct {
	PaymentType         PaymentType `json:"paymentType"`
	TransactionAmount   float64     `json:"transactionAmount"`
	Description         string      `json:"description"`
	Payer               Payer       `json:"payer"`
	DaysOverdue         int         `json:"diasAtraso"`
	ExternalReference   string      `json:"externalReference"`
	StatementDescriptor string      `json:"statementDescriptor,omitempty"`
}

// Barcode tolerates both shapes the processor has been seen returning:
// a bare string and an object with a content field.
type Barcode struct {
	Content string
}

func (b *Barcode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Content = s
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.Content = obj.Content
	return nil
}

// TransactionDetails carries the slip payload.
type TransactionDetails struct {
	ExternalResourceURL string   `json:"external_resource_url"`
	Barcode             *Barcode `json:"barcode"`
	DigitableLine       string   `json:"digitable_line"`
	DateOfExpiration    string   `json:"date_of_expiration"`
}

// TransactionData carries the PIX payload.
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

// PointOfInteraction wraps the PIX transaction data.
type PointOfInteraction struct {
	TransactionData *TransactionData `json:"transaction_data"`
}

// ChargeResponse is the raw processor reply. Older deployments of the
// cloud function nested part of the payload under payment_details; the
// Instrument normalization tries all known paths.
type ChargeResponse struct {
	ID                 json.Number         `json:"id"`
	Status             string              `json:"status"`
	TransactionAmount  float64             `json:"transaction_amount"`
	DateOfExpiration   string              `json:"date_of_expiration"`
	TransactionDetails *TransactionDetails `json:"transaction_details"`
	PointOfInteraction *PointOfInteraction `json:"point_of_interaction"`
	PaymentDetails     *ChargeResponse     `json:"paymentDetails"`
}

// Instrument is the canonical, normalized view of an issued charge.
type Instrument struct {
	PaymentID     string
	Status        string
	Amount        float64 // fee-adjusted amount reported by the processor; 0 when absent
	SlipURL       string
	Barcode       string
	DigitableLine string
	QRCode        string
	QRCodeBase64  string
	ExpiresAt     *time.Time
}

var expirationLayouts = []string{
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339,
	"2006-01-02",
}

func parseExpiration(s string) *time.Time {
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Instrument normalizes the shape-shifting response payload into a single
// canonical value, trying known source shapes in priority order. It fails
// with ErrInvalidResponse when the fields required for the payment type
// are missing.
func (r *ChargeResponse) Instrument(paymentType PaymentType) (*Instrument, error) {
	if r.ID.String() == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrInvalidResponse)
	}
	inst := &Instrument{
		PaymentID: r.ID.String(),
		Status:    r.Status,
		Amount:    r.TransactionAmount,
	}
	if inst.Status == "" {
		inst.Status = "pending"
	}

	sources := []*ChargeResponse{r}
	if r.PaymentDetails != nil {
		sources = append(sources, r.PaymentDetails)
	}

	for _, src := range sources {
		if td := src.TransactionDetails; td != nil {
			if inst.SlipURL == "" {
				inst.SlipURL = td.ExternalResourceURL
			}
			if inst.DigitableLine == "" {
				inst.DigitableLine = td.DigitableLine
			}
			if inst.Barcode == "" && td.Barcode != nil {
				inst.Barcode = td.Barcode.Content
			}
			if inst.ExpiresAt == nil && td.DateOfExpiration != "" {
				inst.ExpiresAt = parseExpiration(td.DateOfExpiration)
			}
		}
		if poi := src.PointOfInteraction; poi != nil && poi.TransactionData != nil {
			if inst.QRCode == "" {
				inst.QRCode = poi.TransactionData.QRCode
			}
			if inst.QRCodeBase64 == "" {
				inst.QRCodeBase64 = poi.TransactionData.QRCodeBase64
			}
		}
		if inst.ExpiresAt == nil && src.DateOfExpiration != "" {
			inst.ExpiresAt = parseExpiration(src.DateOfExpiration)
		}
	}

	switch paymentType {
	case PaymentTypeSlip:
		if inst.SlipURL == "" {
			return nil, fmt.Errorf("%w: slip response missing external_resource_url", ErrInvalidResponse)
		}
	case PaymentTypePix:
		if inst.QRCode == "" {
			return nil, fmt.Errorf("%w: pix response missing qr_code", ErrInvalidResponse)
		}
	}
	return inst, nil
}

// Charger issues charges against the processor.
type Charger interface {
	CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
}

// Client is the HTTP implementation of Charger.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a processor client. The timeout bounds the whole HTTP
// exchange so a hung processor cannot stall a dispatch loop indefinitely.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateCharge posts the charge request and decodes the raw response.
func (c *Client) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Mercado Pago dedupes retried requests on this key.
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(respBody, 256))
	}

	var charge ChargeResponse
	if err := json.Unmarshal(respBody, &charge); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &charge, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
