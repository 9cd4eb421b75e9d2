package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movieflix/middleware"
)

func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.billing.ListPlans()})
}

func (h *Handler) CurrentSubscription(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	sub, err := h.billing.CurrentSubscription(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
