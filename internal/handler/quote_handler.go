package handler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/repository"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/service"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/sse"
	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuoteHandler serves quotations: CRUD, the send flow, draft autosave, the
// public tokened view and the change event stream.
type QuoteHandler struct {
	svc *service.QuoteService
	hub *sse.Hub
}

func NewQuoteHandler(svc *service.QuoteService, hub *sse.Hub) *QuoteHandler {
	return &QuoteHandler{svc: svc, hub: hub}
}

func (h *QuoteHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"status":      c.Query("status"),
		"customer_id": c.Query("customer_id"),
		"created_by":  c.Query("created_by"),
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

func (h *QuoteHandler) Get(c *gin.Context) {
	quote, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, quote)
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req service.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quote, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			BadRequest(c, "Unknown customer or product")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Created(c, quote)
}

func (h *QuoteHandler) Update(c *gin.Context) {
	var req service.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quote, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, quote)
}

type sendQuoteRequest struct {
	TTLHours int `json:"ttl_hours" binding:"omitempty,gt=0"`
}

// Send issues the public access token, emails the customer and marks the
// quote sent. An optional ttl_hours overrides the configured token lifetime.
func (h *QuoteHandler) Send(c *gin.Context) {
	var req sendQuoteRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	quote, err := h.svc.Send(c.Request.Context(), c.Param("id"), time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		if errors.Is(err, service.ErrCustomerNoEmail) {
			BadRequest(c, "Customer has no email address")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, quote)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *QuoteHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quote, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		if strings.Contains(err.Error(), "invalid status") {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, quote)
}

// Archive moves a quote to the archived status without touching its record.
func (h *QuoteHandler) Archive(c *gin.Context) {
	quote, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), entity.QuoteStatusArchived)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, quote)
}

// Delete removes quotes never sent and archives the rest.
func (h *QuoteHandler) Delete(c *gin.Context) {
	archived, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"archived": archived})
}

// AutosaveDraft accepts the latest editor state. The write is debounced
// server-side; the response reports the controller flags so the editor can
// render its save indicator.
func (h *QuoteHandler) AutosaveDraft(c *gin.Context) {
	var req service.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	saving, saved, dirty, err := h.svc.Autosave(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Quote not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{
		"saving": saving,
		"saved":  saved,
		"dirty":  dirty,
	})
}

// ReleaseDraft ends an editing session, cancelling any pending autosave.
func (h *QuoteHandler) ReleaseDraft(c *gin.Context) {
	h.svc.ReleaseDraft(c.Param("id"))
	Success(c, nil)
}

// AccessByToken serves the public quote view. No auth middleware; the token
// in the path is the credential.
func (h *QuoteHandler) AccessByToken(c *gin.Context) {
	tokenString := c.Param("token")
	if tokenString == "" || strings.Count(tokenString, ".") != 2 {
		BadRequest(c, "Malformed access token")
		return
	}

	quote, err := h.svc.AccessByToken(c.Request.Context(), tokenString)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			Unauthorized(c, "Access token expired")
		case errors.Is(err, token.ErrInvalid):
			Unauthorized(c, "Invalid access token")
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "Quote not found")
		default:
			InternalError(c, err.Error())
		}
		return
	}
	Success(c, quote)
}

// BackfillExpirations re-derives expiration_date from stored access tokens.
// Admin only; safe to run repeatedly.
func (h *QuoteHandler) BackfillExpirations(c *gin.Context) {
	result, err := h.svc.BackfillExpirations(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

// Events streams quote change notifications over SSE until the client
// disconnects.
func (h *QuoteHandler) Events(c *gin.Context) {
	client := &sse.Client{
		ID:     uuid.New().String()[:32],
		UserID: GetUserID(c),
		Events: make(chan sse.Event, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, event.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
