package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/service/inventory"
)

// ItemHandler handles catalog and stock mutation endpoints.
type ItemHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewItemHandler constructs the HTTP handler adapter.
func NewItemHandler(svc *inventory.Service, logger *zap.Logger) *ItemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemHandler{svc: svc, logger: logger}
}

// AddStock ingests a multipart form: item fields plus an optional image.
func (h *ItemHandler) AddStock(c *gin.Context) {
	quantity, err := atoiForm(c, "quantity")
	if err != nil {
		respondError(c, apperr.Validation("quantity must be a number"))
		return
	}

	in := inventory.AddStockInput{
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
		UnitType: c.PostForm("unitType"),
		Quantity: quantity,
		BatchNo:  c.PostForm("batchNo"),
	}

	if raw := c.PostForm("expiryDate"); raw != "" {
		expiry, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, apperr.Validation("expiryDate must be YYYY-MM-DD"))
			return
		}
		in.ExpiryDate = &expiry
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, apperr.Validation("could not read uploaded image"))
			return
		}
		defer file.Close()
		in.ImageName = fileHeader.Filename
		in.Image = file
	}

	item, err := h.svc.AddStock(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, item, "Stock added successfully")
}

type removeStockBody struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
	BatchNo  string `json:"batchNo"`
	Note     string `json:"note"`
}

// RemoveStock decrements stock; a nil item in the response means the item
// was deleted because its stock reached zero.
func (h *ItemHandler) RemoveStock(c *gin.Context) {
	var body removeStockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Validation("invalid request body"))
		return
	}

	item, err := h.svc.RemoveStock(c.Request.Context(), currentUser(c), inventory.RemoveStockInput{
		ItemID:   body.ItemID,
		Quantity: body.Quantity,
		BatchNo:  body.BatchNo,
		Note:     body.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if item == nil {
		respond(c, http.StatusOK, nil, "Stock removed and item deleted as stock reached 0")
		return
	}
	respond(c, http.StatusOK, item, "Stock removed successfully")
}

// List returns the whole catalog.
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, items, "Items fetched successfully")
}

// Get returns a single item.
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, item, "Item fetched successfully")
}

// StockLogs returns the add/remove audit trail for an item.
func (h *ItemHandler) StockLogs(c *gin.Context) {
	logs, err := h.svc.StockLogs(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, logs, "Stock logs fetched successfully")
}

// IssueLogs returns the issue/return audit trail for an item.
func (h *ItemHandler) IssueLogs(c *gin.Context) {
	logs, err := h.svc.IssueLogs(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, logs, "Issue logs fetched successfully")
}

func atoiForm(c *gin.Context, field string) (int, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
