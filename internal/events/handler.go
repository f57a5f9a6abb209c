package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/revelry-events/backend/internal/middleware"
	"github.com/revelry-events/backend/internal/models"
	"github.com/revelry-events/backend/internal/organizations"
	"github.com/revelry-events/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	Venue          string  `json:"venue"`
	StartsAt       string  `json:"starts_at" binding:"required"`
	EndsAt         *string `json:"ends_at"`
	OrganizationID *string `json:"organization_id"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo    *Repository
	orgRepo *organizations.Repository
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, orgRepo *organizations.Repository) *Handler {
	return &Handler{repo: repo, orgRepo: orgRepo}
}

// Create handles POST /events (organizer or admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}

	var orgID *uuid.UUID
	if req.OrganizationID != nil {
		id, err := uuid.Parse(*req.OrganizationID)
		if err != nil {
			response.BadRequest(c, "invalid organization_id")
			return
		}
		ownerID, err := h.orgRepo.GetOwnerID(c.Request.Context(), id)
		if err != nil {
			response.NotFound(c, "organization not found")
			return
		}
		if ownerID != userID {
			response.Forbidden(c, "only the organization owner can create its events")
			return
		}
		orgID = &id
	}

	ev := &models.Event{
		Title:          req.Title,
		Description:    req.Description,
		Venue:          req.Venue,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		CreatedBy:      userID,
		OrganizationID: orgID,
	}
	if err := h.repo.Create(c.Request.Context(), ev); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, ev)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	ev, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, ev)
}

// List handles GET /events. Query ?mine=1 returns only events created by the current user.
func (h *Handler) List(c *gin.Context) {
	var createdBy *uuid.UUID
	if c.Query("mine") == "1" {
		uid := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		createdBy = &uid
	}
	list, err := h.repo.List(c.Request.Context(), createdBy, nil)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /events/:id. Manage access is enforced by route middleware.
func (h *Handler) Update(c *gin.Context) {
	ev := c.MustGet(ContextEvent).(*models.Event)

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Venue       *string `json:"venue"`
		StartsAt    *string `json:"starts_at"`
		EndsAt      *string `json:"ends_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	title, desc, venue := ev.Title, ev.Description, ev.Venue
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		desc = *req.Description
	}
	if req.Venue != nil {
		venue = *req.Venue
	}
	var startsAt, endsAt *time.Time
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		startsAt = &t
	}
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}
	if err := h.repo.Update(c.Request.Context(), ev.ID, title, desc, venue, startsAt, endsAt); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	updated, _ := h.repo.GetByID(c.Request.Context(), ev.ID)
	response.OK(c, updated)
}

// Delete handles DELETE /events/:id. Manage access is enforced by route middleware.
func (h *Handler) Delete(c *gin.Context) {
	ev := c.MustGet(ContextEvent).(*models.Event)
	if err := h.repo.Delete(c.Request.Context(), ev.ID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}
