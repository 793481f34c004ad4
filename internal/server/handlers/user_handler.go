package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/service/accounts"
)

// UserHandler handles registration, sessions and profile endpoints.
type UserHandler struct {
	svc    *accounts.Service
	logger *zap.Logger
}

// NewUserHandler constructs the HTTP handler adapter.
func NewUserHandler(svc *accounts.Service, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{svc: svc, logger: logger}
}

type registerBody struct {
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a Student account (self-service).
func (h *UserHandler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), accounts.RegisterInput{
		UserName: body.UserName,
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "Student registered successfully")
}

type loginBody struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and returns the token pair plus the user.
func (h *UserHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), body.UserName, body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         user,
	}, "User logged in successfully")
}

// Logout clears the caller's refresh token.
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "User logged out successfully")
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the token pair.
func (h *UserHandler) Refresh(c *gin.Context) {
	var body refreshBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Unauthorized("no refresh token provided"))
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, pair, "Access token refreshed successfully")
}

type changePasswordBody struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword updates the caller's password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var body changePasswordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), currentUser(c), body.CurrentPassword, body.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Password changed successfully")
}

type updateProfileBody struct {
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
}

// UpdateProfile changes the caller's username and/or full name.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), currentUser(c), body.UserName, body.FullName)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user, "User profile updated successfully")
}

// Me returns the authenticated caller.
func (h *UserHandler) Me(c *gin.Context) {
	respond(c, http.StatusOK, currentUser(c), "Current user fetched successfully")
}
