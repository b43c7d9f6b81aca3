package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/niyyah-app/niyyah-api/internal/service"
)

// WebhookHandler receives sale notifications from the storefront
type WebhookHandler struct {
	activationService *service.ActivationService
}

func NewWebhookHandler(activationService *service.ActivationService) *WebhookHandler {
	return &WebhookHandler{activationService: activationService}
}

// HandleSale godoc
// @Summary Create an unclaimed license for a completed sale
// @Description Events other than successful.sale are acknowledged and ignored.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param body body model.SaleWebhookPayload true "Sale event"
// @Success 200 {object} model.WebhookResponse
// @Failure 400 {object} model.WebhookResponse
// @Failure 500 {object} model.WebhookResponse
// @Router /webhook/chariow [post]
func (h *WebhookHandler) HandleSale(c *gin.Context) {
	var payload model.SaleWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, model.WebhookResponse{Success: false, Message: "Invalid payload"})
		return
	}

	if payload.Event != model.SaleEventSuccessful {
		c.JSON(http.StatusOK, model.WebhookResponse{Success: false, Message: "Event type not handled"})
		return
	}
	if strings.TrimSpace(payload.Customer.Phone) == "" {
		c.JSON(http.StatusBadRequest, model.WebhookResponse{Success: false, Message: "Missing customer phone number"})
		return
	}
	if strings.TrimSpace(payload.Sale.ID) == "" {
		c.JSON(http.StatusBadRequest, model.WebhookResponse{Success: false, Message: "Missing sale ID"})
		return
	}

	license, created, err := h.activationService.CreateLicense(c.Request.Context(), service.SourceWebhook, service.NewLicense{
		Phone:         payload.Customer.Phone,
		OrderID:       payload.Sale.ID,
		CustomerName:  customerName(payload.Customer),
		CustomerEmail: payload.Customer.Email,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, model.WebhookResponse{Success: false, Message: service.MessageOf(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, model.WebhookResponse{Success: false, Message: "Internal server error"})
		return
	}

	message := "Activation code created successfully"
	if !created {
		message = "Activation code already exists"
	}

	c.JSON(http.StatusOK, model.WebhookResponse{
		Success: true,
		Message: message,
		Data: gin.H{
			"phone":    license.Phone,
			"order_id": payload.Sale.ID,
		},
	})
}

// Health godoc
// @Summary Webhook liveness probe
// @Tags Webhook
// @Produce json
// @Success 200 {object} map[string]string
// @Router /webhook/chariow [get]
func (h *WebhookHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Sale webhook endpoint is active",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// customerName prefers the full name, then first and last name, then "Client"
func customerName(customer model.CustomerInfo) string {
	if name := strings.TrimSpace(customer.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(customer.FirstName + " " + customer.LastName); name != "" {
		return name
	}
	return "Client"
}
