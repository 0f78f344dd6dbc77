package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/config"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/email"
)

// SessionGateway reports the WhatsApp gateway session state and its
// pairing QR code.
type SessionGateway interface {
	SessionStatus(ctx context.Context) (string, error)
	QRCode(ctx context.Context) (string, error)
}

// QRCodeHandler serves the pairing page. When the gateway session drops
// and a fresh pairing QR appears, the admin is notified by email so the
// bot does not stay silently disconnected.
type QRCodeHandler struct {
	cfg         *config.Config
	gateway     SessionGateway
	emailSender email.Sender

	mu           sync.Mutex
	lastNotified string
}

func NewQRCodeHandler(cfg *config.Config, gateway SessionGateway, emailSender email.Sender) *QRCodeHandler {
	return &QRCodeHandler{
		cfg:         cfg,
		gateway:     gateway,
		emailSender: emailSender,
	}
}

// ShowPage handles GET /qrcode: an auto-refreshing HTML page with the
// current pairing QR.
func (h *QRCodeHandler) ShowPage(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.gateway.SessionStatus(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
		return
	}
	if status == "CONNECTED" {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot já está conectado ao WhatsApp."})
		return
	}

	qrCode, err := h.gateway.QRCode(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
		return
	}
	if qrCode == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "QR Code não disponível no momento. O bot pode já estar conectado ou ainda não gerou o QR code.",
		})
		return
	}

	h.notifyAdmin(qrCode)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, qrPage(qrImageSrc(qrCode)))
}

// Status handles GET /qrcode/status.
func (h *QRCodeHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.gateway.SessionStatus(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
		return
	}
	qrCode := ""
	if status != "CONNECTED" {
		qrCode, err = h.gateway.QRCode(ctx)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Gateway unreachable"})
			return
		}
		if qrCode != "" {
			h.notifyAdmin(qrCode)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":  status == "CONNECTED",
		"status":     status,
		"hasQrCode":  qrCode != "",
		"serverTime": time.Now().UTC().Format(time.RFC3339),
	})
}

// notifyAdmin emails the pairing alert once per distinct QR payload.
func (h *QRCodeHandler) notifyAdmin(qrCode string) {
	if h.emailSender == nil || h.cfg.AdminEmail == "" {
		return
	}
	h.mu.Lock()
	if h.lastNotified == qrCode {
		h.mu.Unlock()
		return
	}
	h.lastNotified = qrCode
	h.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := email.NotifyQRCode(ctx, h.emailSender, h.cfg, qrCode); err != nil {
			log.Printf("Failed to email pairing QR notification: %v", err)
		}
	}()
}

func qrImageSrc(qrCode string) string {
	if strings.HasPrefix(qrCode, "data:") {
		return qrCode
	}
	return "data:image/png;base64," + qrCode
}

func qrPage(imgSrc string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>Papa Tango - WhatsApp QR Code</title>
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <style>
    body { font-family: Arial, sans-serif; text-align: center; margin: 20px; background-color: #f5f5f5; }
    .container { max-width: 500px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    img { max-width: 100%%; height: auto; border: 1px solid #ddd; border-radius: 5px; }
    h1 { color: #4a4a4a; }
    .refresh-text { color: #666; font-size: 14px; margin-top: 20px; }
    .status { margin-top: 15px; padding: 10px; background-color: #e8f5e9; border-radius: 5px; }
  </style>
</head>
<body>
  <div class="container">
    <h1>WhatsApp QR Code</h1>
    <p>Escaneie este QR code com seu WhatsApp para autenticar o bot</p>
    <img src="%s" alt="WhatsApp QR Code">
    <p class="status">Status: Aguardando escaneamento</p>
    <p class="refresh-text">Esta página será atualizada automaticamente a cada 10 segundos</p>
  </div>
  <script>
    setTimeout(function() {
      window.location.reload();
    }, 10000);
  </script>
</body>
</html>`, imgSrc)
}
