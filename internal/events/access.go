package events

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revelry-events/backend/internal/middleware"
	"github.com/revelry-events/backend/internal/models"
	"github.com/revelry-events/backend/pkg/response"
)

// ContextEvent is the context key for the event loaded by the manage-access gate.
const ContextEvent = "event"

// EventGetter loads events for the gate.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// OrgOwnerGetter resolves an organization's owner.
type OrgOwnerGetter interface {
	GetOwnerID(ctx context.Context, orgID uuid.UUID) (uuid.UUID, error)
}

// RequireEventManageAccess validates that the current user may manage
// the event in the :id path param: either they created it, or they own
// its organization. A missing organization row is treated as "not
// org-owned" rather than an error. The loaded event is stored in
// context under ContextEvent so handlers do not fetch it again.
func RequireEventManageAccess(events EventGetter, orgs OrgOwnerGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid event id")
			c.Abort()
			return
		}
		ev, err := events.GetByID(c.Request.Context(), eventID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				response.NotFound(c, "event not found")
			} else {
				response.Internal(c, "failed to load event")
			}
			c.Abort()
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		if ev.CreatedBy == userID {
			c.Set(ContextEvent, ev)
			c.Next()
			return
		}
		if ev.OrganizationID != nil {
			ownerID, err := orgs.GetOwnerID(c.Request.Context(), *ev.OrganizationID)
			if err == nil && ownerID == userID {
				c.Set(ContextEvent, ev)
				c.Next()
				return
			}
		}
		response.Forbidden(c, "not authorized to manage this event")
		c.Abort()
	}
}
