// Package qr renders PIX codes as QR images and publishes them for image
// sends.
package qr

import (
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/storage"
)

// imageSize matches the pairing QR size expected by WhatsApp scanners.
const imageSize = 300

// Publisher renders a PIX code as a 300px PNG with high error correction
// and uploads it, returning a URL the transport can send as an image.
type Publisher struct {
	store storage.IS3Storage
}

// NewPublisher creates a Publisher backed by the given object store.
func NewPublisher(store storage.IS3Storage) *Publisher {
	return &Publisher{store: store}
}

// PublishPixQR encodes code and uploads the PNG keyed by payment id, so
// re-sends of the same instrument reuse the object.
func (p *Publisher) PublishPixQR(ctx context.Context, paymentID, code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.High, imageSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode pix qr: %w", err)
	}
	return p.store.UploadPNG(ctx, fmt.Sprintf("whatsapp/qr/pix_%s.png", paymentID), png)
}
