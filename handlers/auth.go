package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"movieflix/middleware"
)

type SignupInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
}

type SigninInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ProfileInput struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Valid email and password required")
		return
	}

	sess, err := h.identity.Signup(c.Request.Context(), input.Email, input.Password, input.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := userResponse(sess.User.ID, sess.User.Email)
	if sess.User.Phone != nil {
		user["phone"] = *sess.User.Phone
	}
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": user})
}

func (h *Handler) Signin(c *gin.Context) {
	var input SigninInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Email and password required")
		return
	}

	sess, err := h.identity.Signin(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": sess.Token, "user": userResponse(sess.User.ID, sess.User.Email)})
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	user, err := h.identity.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profileResponse(user.ID, user.Email, user.CreatedAt)})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid profile update")
		return
	}

	sess, err := h.identity.UpdateProfile(c.Request.Context(), userID, input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"user":    profileResponse(sess.User.ID, sess.User.Email, sess.User.CreatedAt),
		"token":   sess.Token,
	})
}
