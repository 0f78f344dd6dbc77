package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/api/handlers"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/api/middleware"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/config"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/email"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
)

// SetupRouter configures and returns the Gin engine serving the gateway
// webhook, the pairing page and the ops endpoints.
func SetupRouter(
	cfg *config.Config,
	msgRouter handlers.MessageRouter,
	gateway handlers.SessionGateway,
	transport services.Transport,
	customers store.CustomerStore,
	reminders services.IReminderService,
	emailSender email.Sender,
) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	webhookHandler := handlers.NewWebhookHandler(msgRouter)
	opsHandler := handlers.NewOpsHandler(transport, customers, reminders)
	qrCodeHandler := handlers.NewQRCodeHandler(cfg, gateway, emailSender)

	r.GET("/", opsHandler.Status)
	r.POST("/webhook", webhookHandler.HandleEvent)

	r.POST("/send-code", opsHandler.SendCode)
	r.GET("/verify-user", opsHandler.VerifyUser)

	r.POST("/test/morning-reminders", opsHandler.TriggerMorningReminders)
	r.POST("/test/evening-reminders", opsHandler.TriggerEveningReminders)

	r.GET("/qrcode", qrCodeHandler.ShowPage)
	r.GET("/qrcode/status", qrCodeHandler.Status)

	return r
}
