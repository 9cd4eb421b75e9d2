package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movieflix/services"
)

type SendOTPInput struct {
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=32"`
	Type  string `json:"type" binding:"omitempty,oneof=email phone"`
}

type VerifyOTPInput struct {
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"omitempty,max=32"`
	Type      string `json:"type" binding:"omitempty,oneof=email phone"`
	OTP       string `json:"otp" binding:"omitempty,numeric"`
	RequestID string `json:"requestId" binding:"omitempty,uuid"`
}

func (h *Handler) SendOTP(c *gin.Context) {
	var input SendOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid email, phone or type")
		return
	}

	issued, err := h.passcodes.Issue(c.Request.Context(), services.PasscodeRequest{
		Email:   input.Email,
		Phone:   input.Phone,
		Channel: input.Type,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{
		"message":   "OTP sent successfully",
		"requestId": issued.RequestID,
		"expiresAt": issued.ExpiresAt,
	}
	if issued.Code != "" {
		resp["otp"] = issued.Code
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var input VerifyOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid OTP verification request")
		return
	}

	sess, err := h.passcodes.Verify(c.Request.Context(), services.VerifyRequest{
		PasscodeRequest: services.PasscodeRequest{
			Email:   input.Email,
			Phone:   input.Phone,
			Channel: input.Type,
		},
		Code:      input.OTP,
		RequestID: input.RequestID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP verified successfully",
		"token":   sess.Token,
		"user":    userResponse(sess.User.ID, sess.User.Email),
	})
}
