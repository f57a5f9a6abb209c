package trackinglinks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/revelry-events/backend/internal/events"
	"github.com/revelry-events/backend/internal/middleware"
	"github.com/revelry-events/backend/internal/models"
	"github.com/revelry-events/backend/pkg/queue"
	"github.com/revelry-events/backend/pkg/response"
)

// Vanity codes: 3 to 32 chars, letters, digits, hyphens.
var vanityCodeRegex = regexp.MustCompile(`^[A-Za-z0-9-]{3,32}$`)

const cacheKeyPrefix = "tlink:"

type cachedLink struct {
	ID          uuid.UUID `json:"id"`
	Destination string    `json:"destination"`
}

// CreateRequest is the body for POST /events/:id/tracking-links.
type CreateRequest struct {
	Destination string `json:"destination" binding:"required"`
	Code        string `json:"code"` // optional vanity code
}

// Handler handles tracking-link HTTP endpoints.
type Handler struct {
	repo     *Repository
	cache    *redis.Client
	jobs     *queue.Queue
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewHandler creates a tracking-links handler.
func NewHandler(repo *Repository, cache *redis.Client, jobs *queue.Queue, cacheTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, cache: cache, jobs: jobs, cacheTTL: cacheTTL, logger: logger}
}

// Create handles POST /events/:id/tracking-links. Codes are unique per
// organization; without a vanity code one is generated with bounded
// retries against the uniqueness check.
func (h *Handler) Create(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "destination required")
		return
	}
	dest, err := url.ParseRequestURI(req.Destination)
	if err != nil || (dest.Scheme != "http" && dest.Scheme != "https") {
		response.BadRequest(c, "destination must be an absolute http(s) URL")
		return
	}

	ctx := c.Request.Context()
	code := req.Code
	if code != "" {
		if !vanityCodeRegex.MatchString(code) {
			response.BadRequest(c, "code must be 3-32 letters, digits or hyphens")
			return
		}
		taken, err := h.repo.CodeTakenInOrg(ctx, ev.OrganizationID, code)
		if err != nil {
			response.Internal(c, "failed to check code")
			return
		}
		if taken {
			response.Conflict(c, "code already in use")
			return
		}
	} else {
		code, err = GenerateCode(ctx, func(ctx context.Context, candidate string) (bool, error) {
			return h.repo.CodeTakenInOrg(ctx, ev.OrganizationID, candidate)
		})
		if err != nil {
			h.logger.Error("generate code failed", zap.Error(err))
			response.Internal(c, "failed to generate code")
			return
		}
	}

	link := &models.TrackingLink{
		EventID:        ev.ID,
		OrganizationID: ev.OrganizationID,
		CreatedBy:      userID,
		Code:           code,
		Destination:    req.Destination,
	}
	if err := h.repo.Create(ctx, link); err != nil {
		response.Internal(c, "failed to create tracking link")
		return
	}
	response.Created(c, link)
}

// List handles GET /events/:id/tracking-links.
func (h *Handler) List(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	list, err := h.repo.ListByEvent(c.Request.Context(), ev.ID)
	if err != nil {
		response.Internal(c, "failed to list tracking links")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /events/:id/tracking-links/:linkId.
func (h *Handler) Delete(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	linkID, err := uuid.Parse(c.Param("linkId"))
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), ev.ID, linkID)
	if err != nil {
		response.Internal(c, "failed to delete tracking link")
		return
	}
	if !ok {
		response.NotFound(c, "tracking link not found")
		return
	}
	response.OK(c, gin.H{"ok": true})
}

// Analytics handles GET /events/:id/tracking-links/analytics. Per-member
// rollup of link count and click totals.
func (h *Handler) Analytics(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	stats, err := h.repo.AnalyticsByMember(c.Request.Context(), ev.ID)
	if err != nil {
		response.Internal(c, "failed to load analytics")
		return
	}
	response.OK(c, stats)
}

// Resolve handles GET /t/:code (public). Destination lookups are cached
// in Redis; each hit enqueues a click job for the worker so the redirect
// never waits on the counter write.
func (h *Handler) Resolve(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "code required")
		return
	}
	ctx := c.Request.Context()

	var cached cachedLink
	hit := false
	if raw, err := h.cache.Get(ctx, cacheKeyPrefix+code).Result(); err == nil {
		if json.Unmarshal([]byte(raw), &cached) == nil {
			hit = true
		}
	}
	if !hit {
		link, err := h.repo.GetByCode(ctx, code)
		if err != nil {
			response.Internal(c, "failed to resolve link")
			return
		}
		if link == nil {
			response.NotFound(c, "unknown link")
			return
		}
		cached = cachedLink{ID: link.ID, Destination: link.Destination}
		if raw, err := json.Marshal(cached); err == nil {
			if err := h.cache.Set(ctx, cacheKeyPrefix+code, raw, h.cacheTTL).Err(); err != nil {
				h.logger.Warn("cache set failed", zap.Error(err), zap.String("code", code))
			}
		}
	}

	click := queue.ClickPayload{
		LinkID:     cached.ID,
		Referrer:   c.GetHeader("Referer"),
		UserAgent:  c.GetHeader("User-Agent"),
		OccurredAt: time.Now(),
	}
	if err := h.jobs.EnqueueClick(ctx, click); err != nil {
		h.logger.Warn("enqueue click failed", zap.Error(err), zap.String("link_id", cached.ID.String()))
	}
	c.Redirect(http.StatusFound, cached.Destination)
}
