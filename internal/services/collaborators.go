package services

import "context"

// Transport sends outbound chat messages. recipient is an opaque channel
// handle (a WhatsApp JID here). Implemented by the gateway client.
type Transport interface {
	SendText(ctx context.Context, recipient, body string) error
	SendImage(ctx context.Context, recipient, imageURL, filename, caption string) error
}

// QRPublisher renders a PIX code as a QR image and makes it fetchable by
// URL for image sends.
type QRPublisher interface {
	PublishPixQR(ctx context.Context, paymentID, code string) (string, error)
}
