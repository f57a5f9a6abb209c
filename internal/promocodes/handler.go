package promocodes

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/revelry-events/backend/internal/events"
	"github.com/revelry-events/backend/internal/models"
	"github.com/revelry-events/backend/pkg/response"
)

// CreateRequest is the body for POST /events/:id/promo-codes.
type CreateRequest struct {
	Code          string     `json:"code" binding:"required"`
	DiscountType  string     `json:"discount_type" binding:"required"`
	DiscountValue int        `json:"discount_value" binding:"required"`
	MaxUses       int        `json:"max_uses"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
}

// ValidateRequest is the body for POST /events/:id/promo-codes/validate.
// Redeem consumes one use on success.
type ValidateRequest struct {
	Code   string `json:"code" binding:"required"`
	Redeem bool   `json:"redeem"`
}

// Handler handles promo-code HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a promo-codes handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /events/:id/promo-codes.
func (h *Handler) Create(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code, discount_type and discount_value are required")
		return
	}
	if req.DiscountType != models.PromoDiscountPercent && req.DiscountType != models.PromoDiscountFixed {
		response.BadRequest(c, "discount_type must be percent or fixed")
		return
	}
	if req.DiscountValue <= 0 || (req.DiscountType == models.PromoDiscountPercent && req.DiscountValue > 100) {
		response.BadRequest(c, "invalid discount_value")
		return
	}
	if req.MaxUses < 0 {
		response.BadRequest(c, "max_uses cannot be negative")
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		response.BadRequest(c, "code cannot be blank")
		return
	}
	validFrom := time.Now()
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}
	p := &models.PromoCode{
		EventID:       ev.ID,
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxUses:       req.MaxUses,
		ValidFrom:     validFrom,
		ValidUntil:    req.ValidUntil,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			response.Conflict(c, "promo code already exists for this event")
			return
		}
		h.logger.Error("create promo code failed", zap.Error(err), zap.String("event_id", ev.ID.String()))
		response.Internal(c, "failed to create promo code")
		return
	}
	response.Created(c, p)
}

// List handles GET /events/:id/promo-codes.
func (h *Handler) List(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	list, err := h.repo.ListByEvent(c.Request.Context(), ev.ID)
	if err != nil {
		response.Internal(c, "failed to list promo codes")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /events/:id/promo-codes/:codeId.
func (h *Handler) Delete(c *gin.Context) {
	ev := c.MustGet(events.ContextEvent).(*models.Event)
	codeID, err := uuid.Parse(c.Param("codeId"))
	if err != nil {
		response.BadRequest(c, "invalid promo code id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), ev.ID, codeID)
	if err != nil {
		response.Internal(c, "failed to delete promo code")
		return
	}
	if !ok {
		response.NotFound(c, "promo code not found")
		return
	}
	response.OK(c, gin.H{"ok": true})
}

// Validate handles POST /events/:id/promo-codes/validate. Any signed-in
// user may call it at checkout; it is not behind the manage gate. With
// redeem set it also consumes a use; the conditional update keeps
// concurrent redemptions under the cap.
func (h *Handler) Validate(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "code required")
		return
	}

	ctx := c.Request.Context()
	p, err := h.repo.GetByCode(ctx, eventID, strings.TrimSpace(req.Code))
	if err != nil {
		response.Internal(c, "failed to look up promo code")
		return
	}
	if p == nil {
		response.NotFound(c, "promo code not found")
		return
	}
	now := time.Now()
	if now.Before(p.ValidFrom) || (p.ValidUntil != nil && now.After(*p.ValidUntil)) {
		response.OK(c, gin.H{"valid": false, "reason": "outside validity window"})
		return
	}
	if p.MaxUses > 0 && p.UsedCount >= p.MaxUses {
		response.OK(c, gin.H{"valid": false, "reason": "promo code exhausted"})
		return
	}
	if req.Redeem {
		ok, err := h.repo.Redeem(ctx, p.ID)
		if err != nil {
			response.Internal(c, "failed to redeem promo code")
			return
		}
		if !ok {
			response.OK(c, gin.H{"valid": false, "reason": "promo code exhausted"})
			return
		}
	}
	response.OK(c, gin.H{
		"valid":          true,
		"code":           p.Code,
		"discount_type":  p.DiscountType,
		"discount_value": p.DiscountValue,
	})
}
