package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movieflix/middleware"
	"movieflix/services"
)

type CreateOrderInput struct {
	PlanType string `json:"planType" binding:"required,oneof=monthly yearly"`
}

type VerifyPaymentInput struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	PlanType  string `json:"planType"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid plan type")
		return
	}

	order, err := h.billing.CreateOrder(c.Request.Context(), userID, input.PlanType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":  order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"keyId":    order.KeyID,
	})
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	var input VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Missing payment details")
		return
	}

	sub, err := h.billing.VerifyPayment(c.Request.Context(), userID, services.VerifyPaymentRequest{
		OrderID:   input.OrderID,
		PaymentID: input.PaymentID,
		Signature: input.Signature,
		PlanType:  input.PlanType,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Payment verified and subscription activated",
		"subscription": sub,
	})
}

func (h *Handler) PaymentHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	payments, err := h.billing.History(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
