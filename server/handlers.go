package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"product_catalog/domain"
)

const requestIDKey = "request_id"

// Response messages. Conflict messages must contain "Duplicate": clients
// key on it to tell an identifier clash from other bad requests.
const (
	MsgNotFound     = "Not product found with that identifier"
	MsgDuplicate    = "Duplicate identifier found in the database"
	MsgInvalidBody  = "Invalid body, check 'errors' property for more info"
	MsgInternal     = "Internal server error"
	MsgCreated      = "Product added successfully"
	MsgUpdated      = "Product updated successfully"
	MsgRemoved      = "Product removed successfully"
	MsgEmptyPatch   = "At least one field must be provided for update"
	errNameNotFound = "NotFoundError"
	errNameBad      = "BadRequestError"
	errNameInternal = "InternalServerError"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Name    string             `json:"name"`
	Message string             `json:"message"`
	Errors  domain.FieldErrors `json:"errors,omitempty"`
}

// ListResponse is returned by GET /products.
type ListResponse struct {
	Data []domain.Product `json:"data"`
}

// MutationResponse is returned by create, update and delete.
type MutationResponse struct {
	Message string          `json:"message"`
	Data    *domain.Product `json:"data,omitempty"`
}

// createRequest mirrors domain.Product with the structural rules enforced
// at the API boundary.
type createRequest struct {
	ID           string      `json:"id" binding:"required,min=3,max=10"`
	Name         string      `json:"name" binding:"required,min=5,max=100"`
	Description  string      `json:"description" binding:"required,min=10,max=200"`
	Logo         string      `json:"logo" binding:"required"`
	DateRelease  domain.Date `json:"date_release"`
	DateRevision domain.Date `json:"date_revision"`
}

var bindingFields = map[string]struct{ field, msg string }{
	"ID":          {domain.FieldID, domain.MsgIDLength},
	"Name":        {domain.FieldName, domain.MsgNameLength},
	"Description": {domain.FieldDescription, domain.MsgDescriptionLength},
	"Logo":        {domain.FieldLogo, domain.MsgRequired},
}

// Handlers contains HTTP request handlers for product operations.
type Handlers struct {
	store  domain.ProductStore
	logger *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(store domain.ProductStore, logger *slog.Logger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListProducts handles GET /products.
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.store.List(c.Request.Context())
	if err != nil {
		h.writeStoreError(c, err, "list")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: products})
}

// VerifyIdentifier handles GET /products/verification/:id.
func (h *Handlers) VerifyIdentifier(c *gin.Context) {
	exists, err := h.store.Exists(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err, "verify")
		return
	}
	c.JSON(http.StatusOK, exists)
}

// GetProduct handles GET /products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeStoreError(c, err, "get")
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct handles POST /products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	fields := domain.FieldErrors{}
	if req.DateRelease.IsZero() {
		fields[domain.FieldDateRelease] = domain.MsgRequired
	}
	if req.DateRevision.IsZero() {
		fields[domain.FieldDateRevision] = domain.MsgRequired
	}
	if !fields.Valid() {
		c.JSON(http.StatusBadRequest, ErrorBody{Name: errNameBad, Message: MsgInvalidBody, Errors: fields})
		return
	}

	stored, err := h.store.Create(c.Request.Context(), domain.Product(req))
	if err != nil {
		h.writeStoreError(c, err, "create")
		return
	}
	h.logger.Info("product created", "product_id", stored.ID, "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, MutationResponse{Message: MsgCreated, Data: &stored})
}

// UpdateProduct handles PUT /products/:id. The body may be partial; an id
// inside the body is ignored.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	var patch domain.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writeBindError(c, err)
		return
	}
	if patch.IsEmpty() {
		// a missing target is reported before an empty body
		exists, err := h.store.Exists(c.Request.Context(), id)
		if err != nil {
			h.writeStoreError(c, err, "update")
			return
		}
		if !exists {
			h.writeStoreError(c, domain.NewProductNotFoundError(id), "update")
			return
		}
		c.JSON(http.StatusBadRequest, ErrorBody{Name: errNameBad, Message: MsgEmptyPatch})
		return
	}

	merged, err := h.store.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.writeStoreError(c, err, "update")
		return
	}
	h.logger.Info("product updated", "product_id", id, "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, MutationResponse{Message: MsgUpdated, Data: &merged})
}

// DeleteProduct handles DELETE /products/:id.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeStoreError(c, err, "delete")
		return
	}
	h.logger.Info("product removed", "product_id", id, "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusOK, MutationResponse{Message: MsgRemoved})
}

// writeStoreError maps repository errors onto HTTP responses.
func (h *Handlers) writeStoreError(c *gin.Context, err error, operation string) {
	switch {
	case domain.IsProductNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorBody{Name: errNameNotFound, Message: MsgNotFound})
	case domain.IsDuplicateProductError(err):
		c.JSON(http.StatusBadRequest, ErrorBody{Name: errNameBad, Message: MsgDuplicate})
	default:
		h.logger.Error("store operation failed",
			"operation", operation,
			"error", err,
			"request_id", c.GetString(requestIDKey),
		)
		c.JSON(http.StatusInternalServerError, ErrorBody{Name: errNameInternal, Message: MsgInternal})
	}
}

func (h *Handlers) writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorBody{Name: errNameBad, Message: "Invalid body: " + err.Error()})
		return
	}
	fields := domain.FieldErrors{}
	for _, fe := range verrs {
		if f, ok := bindingFields[fe.StructField()]; ok {
			fields[f.field] = f.msg
		}
	}
	c.JSON(http.StatusBadRequest, ErrorBody{Name: errNameBad, Message: MsgInvalidBody, Errors: fields})
}
