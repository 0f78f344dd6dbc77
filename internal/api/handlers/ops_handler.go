package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/messages"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/utils"
)

// OpsHandler exposes the operational endpoints used by the main Papa Tango
// system and by operators: verification codes, customer lookups and manual
// reminder triggers.
type OpsHandler struct {
	transport services.Transport
	customers store.CustomerStore
	reminders services.IReminderService
}

func NewOpsHandler(transport services.Transport, customers store.CustomerStore, reminders services.IReminderService) *OpsHandler {
	return &OpsHandler{
		transport: transport,
		customers: customers,
		reminders: reminders,
	}
}

// Status handles GET /.
func (h *OpsHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"message": "Papa Tango WhatsApp Bot está funcionando!",
	})
}

// SendCodeRequest is the body of POST /send-code.
type SendCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// SendCode handles POST /send-code: delivers an app verification code to a
// phone number over WhatsApp.
func (h *OpsHandler) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phone and code are required"})
		return
	}

	log.Printf("Sending verification code to %s", req.Phone)
	recipient := utils.JIDFromPhone(req.Phone)
	if err := h.transport.SendText(c.Request.Context(), recipient, messages.VerificationCode(req.Code)); err != nil {
		log.Printf("Failed to send verification code to %s: %v", req.Phone, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Code sent"})
}

// CustomerSummary is the lookup payload returned by VerifyUser.
type CustomerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// VerifyUser handles GET /verify-user?phone=: exact-match lookup, falling
// back to the full customer listing so an operator can spot formatting
// mismatches.
func (h *OpsHandler) VerifyUser(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phone query parameter is required"})
		return
	}

	customer, err := h.customers.ByPhone(c.Request.Context(), phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Customer lookup failed"})
		return
	}
	if customer != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Customer found",
			"data": CustomerSummary{
				ID:    customer.ID,
				Name:  customer.DisplayName(),
				Phone: customer.Phone,
			},
		})
		return
	}

	all, err := h.customers.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Customer listing failed"})
		return
	}
	listing := make([]CustomerSummary, 0, len(all))
	for _, cust := range all {
		if cust.Phone == "" {
			continue
		}
		listing = append(listing, CustomerSummary{
			ID:    cust.ID,
			Name:  cust.DisplayName(),
			Phone: cust.Phone,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   false,
		"message":   "No customer with that exact phone",
		"customers": listing,
	})
}

// TriggerMorningReminders handles POST /test/morning-reminders: runs the
// daily sweep immediately, outside its schedule.
func (h *OpsHandler) TriggerMorningReminders(c *gin.Context) {
	log.Println("Manual trigger: morning payment reminder sweep")
	stats, err := h.reminders.SendPaymentReminders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": stats.Sent, "failed": stats.Failed})
}

// TriggerEveningReminders handles POST /test/evening-reminders.
func (h *OpsHandler) TriggerEveningReminders(c *gin.Context) {
	log.Println("Manual trigger: evening PIX reminder sweep")
	stats, err := h.reminders.SendEveningPixReminders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": stats.Sent, "failed": stats.Failed})
}
