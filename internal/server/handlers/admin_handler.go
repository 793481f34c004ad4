package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/service/accounts"
	"biostorex/internal/service/reporting"
)

// AdminHandler handles account administration and reporting endpoints.
type AdminHandler struct {
	accounts  *accounts.Service
	reporting *reporting.Service
	logger    *zap.Logger
}

// NewAdminHandler constructs the HTTP handler adapter.
func NewAdminHandler(accountsSvc *accounts.Service, reportingSvc *reporting.Service, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{accounts: accountsSvc, reporting: reportingSvc, logger: logger}
}

// AddStorekeeper provisions a storekeeper account.
func (h *AdminHandler) AddStorekeeper(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	user, err := h.accounts.AddStorekeeper(c.Request.Context(), currentUser(c), accounts.RegisterInput{
		UserName: body.UserName,
		FullName: body.FullName,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "Storekeeper created successfully")
}

// Blacklist deactivates an account.
func (h *AdminHandler) Blacklist(c *gin.Context) {
	user, err := h.accounts.SetActive(c.Request.Context(), currentUser(c), c.Param("id"), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user, "User blacklisted successfully")
}

// Activate re-enables a blacklisted account.
func (h *AdminHandler) Activate(c *gin.Context) {
	user, err := h.accounts.SetActive(c.Request.Context(), currentUser(c), c.Param("id"), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user, "User activated successfully")
}

// ListUsers lists every account.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, users, "Users fetched successfully")
}

// InventoryReport generates the low-stock / near-expiry report on demand.
func (h *AdminHandler) InventoryReport(c *gin.Context) {
	report, err := h.reporting.InventoryReportFor(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, report, "Inventory report generated successfully")
}
