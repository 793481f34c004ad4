package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/service/requests"
)

// RequestHandler handles the material-request lifecycle endpoints.
type RequestHandler struct {
	svc    *requests.Service
	logger *zap.Logger
}

// NewRequestHandler constructs the HTTP handler adapter.
func NewRequestHandler(svc *requests.Service, logger *zap.Logger) *RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestHandler{svc: svc, logger: logger}
}

type createRequestBody struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Create submits a new PENDING request.
func (h *RequestHandler) Create(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	req, err := h.svc.RequestItem(c.Request.Context(), currentUser(c), body.ItemID, body.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, req, "Request submitted successfully")
}

// Approve moves a request to APPROVED.
func (h *RequestHandler) Approve(c *gin.Context) {
	req, err := h.svc.Approve(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, req, "Request approved successfully")
}

type declineBody struct {
	Reason string `json:"reason"`
}

// Decline moves a request to DECLINED.
func (h *RequestHandler) Decline(c *gin.Context) {
	var body declineBody
	_ = c.ShouldBindJSON(&body) // reason is optional

	req, err := h.svc.Decline(c.Request.Context(), currentUser(c), c.Param("id"), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, req, "Request declined")
}

// Issue moves a request to ISSUED, depleting stock.
func (h *RequestHandler) Issue(c *gin.Context) {
	req, err := h.svc.Issue(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, req, "Item issued successfully")
}

type returnBody struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

// Return moves a request to RETURNED, restoring stock.
func (h *RequestHandler) Return(c *gin.Context) {
	var body returnBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	req, err := h.svc.Return(c.Request.Context(), currentUser(c), c.Param("id"), body.Quantity, body.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, req, "Item returned successfully")
}

// Mine lists the caller's own requests.
func (h *RequestHandler) Mine(c *gin.Context) {
	reqs, err := h.svc.MyRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, reqs, "Your requests fetched successfully")
}

// All lists every request.
func (h *RequestHandler) All(c *gin.Context) {
	reqs, err := h.svc.AllRequests(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, reqs, "All requests fetched successfully")
}
