package guests

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/revelry-events/backend/internal/auth"
	"github.com/revelry-events/backend/internal/events"
	"github.com/revelry-events/backend/internal/models"
	"github.com/revelry-events/backend/pkg/response"
)

// Store is the persistence surface the guest-list handlers need.
// *Repository implements it; tests substitute a mock.
type Store interface {
	ListTicketRows(ctx context.Context, eventID uuid.UUID) ([]TicketRow, error)
	ListManualGuests(ctx context.Context, eventID uuid.UUID) ([]models.EventGuest, error)
	GetUserSnapshots(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	ListGuestEmails(ctx context.Context, eventID uuid.UUID) (map[string]struct{}, error)
	InsertManualGuests(ctx context.Context, eventID uuid.UUID, guests []NewManualGuest) error
	UpdateManualGuestStatus(ctx context.Context, eventID, guestID uuid.UUID, status models.GuestStatus) (bool, error)
	GetToggleAnchor(ctx context.Context, eventID, ticketID uuid.UUID) (*ToggleAnchor, error)
	BulkSetTicketStatus(ctx context.Context, eventID, userID uuid.UUID, orderID *uuid.UUID, to models.TicketStatus) (int64, error)
	DeleteManualGuest(ctx context.Context, eventID, guestID uuid.UUID) (bool, error)
}

// AddRequest is the body for POST /events/:id/guests.
type AddRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// StatusRequest is the body for PATCH /events/:id/guests/:guestId.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles guest-list HTTP endpoints. All routes sit behind the
// event manage-access gate, which loads the event into context.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a guests handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /events/:id/guests. Recomputes the guest list from
// current persisted state on every call; nothing is cached.
func (h *Handler) List(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	ctx := c.Request.Context()

	tickets, err := h.store.ListTicketRows(ctx, ev.ID)
	if err != nil {
		h.logger.Error("list ticket rows failed", zap.Error(err), zap.String("event_id", ev.ID.String()))
		response.Internal(c, "failed to load guest list")
		return
	}
	manual, err := h.store.ListManualGuests(ctx, ev.ID)
	if err != nil {
		h.logger.Error("list manual guests failed", zap.Error(err), zap.String("event_id", ev.ID.String()))
		response.Internal(c, "failed to load guest list")
		return
	}
	response.OK(c, Materialize(tickets, manual))
}

// Add handles POST /events/:id/guests. Adds platform users as manual
// guests, skipping emails that already have a guest record for this
// event. Insert races on the same email are swallowed; the next read
// reflects whichever write won.
func (h *Handler) Add(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)

	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		response.BadRequest(c, "user_ids required")
		return
	}
	ids := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		ref, err := auth.ParseUserRef(raw)
		if err != nil {
			response.BadRequest(c, "invalid user id: "+raw)
			return
		}
		ids = append(ids, ref.ID)
	}

	ctx := c.Request.Context()
	users, err := h.store.GetUserSnapshots(ctx, ids)
	if err != nil {
		response.Internal(c, "failed to load users")
		return
	}
	existing, err := h.store.ListGuestEmails(ctx, ev.ID)
	if err != nil {
		response.Internal(c, "failed to load guest list")
		return
	}

	var toInsert []NewManualGuest
	for i := range users {
		u := &users[i]
		if _, dup := existing[u.Email]; dup {
			continue
		}
		toInsert = append(toInsert, NewManualGuest{
			FullName: u.DisplayName(),
			Email:    u.Email,
			Phone:    u.Phone,
		})
	}
	if len(toInsert) > 0 {
		if err := h.store.InsertManualGuests(ctx, ev.ID, toInsert); err != nil {
			h.logger.Error("insert manual guests failed", zap.Error(err), zap.String("event_id", ev.ID.String()))
			response.Internal(c, "failed to add guests")
			return
		}
	}
	response.OK(c, gin.H{"ok": true, "added": len(toInsert)})
}

// UpdateStatus handles PATCH /events/:id/guests/:guestId. The id is
// first tried as a manual guest; otherwise it is the anchor ticket of a
// grouped row, and every paid/scanned ticket in that purchase group is
// flipped in one bulk update so the whole order checks in together.
func (h *Handler) UpdateStatus(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)

	guestID, err := uuid.Parse(c.Param("guestId"))
	if err != nil {
		response.BadRequest(c, "invalid guest id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	status := models.GuestStatus(req.Status)
	if status != models.GuestCheckedIn && status != models.GuestPendingArrival {
		response.BadRequest(c, "status must be checked_in or pending_arrival")
		return
	}

	ctx := c.Request.Context()
	ok, err := h.store.UpdateManualGuestStatus(ctx, ev.ID, guestID, status)
	if err != nil {
		response.Internal(c, "failed to update guest")
		return
	}
	if ok {
		response.OK(c, gin.H{"ok": true})
		return
	}

	anchor, err := h.store.GetToggleAnchor(ctx, ev.ID, guestID)
	if err != nil {
		response.Internal(c, "failed to resolve guest")
		return
	}
	if anchor == nil {
		response.NotFound(c, "guest not found for this event")
		return
	}
	target := models.TicketPaid
	if status == models.GuestCheckedIn {
		target = models.TicketScanned
	}
	affected, err := h.store.BulkSetTicketStatus(ctx, ev.ID, anchor.UserID, anchor.OrderID, target)
	if err != nil {
		h.logger.Error("bulk ticket status update failed", zap.Error(err),
			zap.String("event_id", ev.ID.String()), zap.String("ticket_id", guestID.String()))
		response.Internal(c, "failed to update tickets")
		return
	}
	if affected == 0 {
		response.NotFound(c, "guest not found for this event")
		return
	}
	response.OK(c, gin.H{"ok": true})
}

// Remove handles DELETE /events/:id/guests/:guestId. Only manual guests
// can be removed; deleting a ticket-backed attendee would desynchronize
// tickets and guest list, so those rows 404 here.
func (h *Handler) Remove(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)

	guestID, err := uuid.Parse(c.Param("guestId"))
	if err != nil {
		response.BadRequest(c, "invalid guest id")
		return
	}
	ok, err := h.store.DeleteManualGuest(c.Request.Context(), ev.ID, guestID)
	if err != nil {
		response.Internal(c, "failed to remove guest")
		return
	}
	if !ok {
		response.NotFound(c, "guest not found or cannot be removed")
		return
	}
	response.OK(c, gin.H{"ok": true})
}
