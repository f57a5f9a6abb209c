package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revelry-events/backend/internal/middleware"
	"github.com/revelry-events/backend/internal/models"
)

type MockEventGetter struct {
	mock.Mock
}

func (m *MockEventGetter) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

type MockOrgOwnerGetter struct {
	mock.Mock
}

func (m *MockOrgOwnerGetter) GetOwnerID(ctx context.Context, orgID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(orgID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

var (
	creatorID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	ownerID    = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	strangerID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
	gateOrgID  = uuid.MustParse("dddddddd-0000-0000-0000-000000000001")
	gateEvent  = uuid.MustParse("ee000000-0000-0000-0000-000000000001")
)

func gateRouter(events EventGetter, orgs OrgOwnerGetter, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, userID) })
	r.GET("/events/:id/guests", RequireEventManageAccess(events, orgs), func(c *gin.Context) {
		ev := c.MustGet(ContextEvent).(*models.Event)
		c.JSON(http.StatusOK, gin.H{"event_id": ev.ID.String()})
	})
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGateAllowsCreator(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).Return(&models.Event{ID: gateEvent, CreatedBy: creatorID}, nil)

	w := get(gateRouter(eventsRepo, orgsRepo, creatorID), "/events/"+gateEvent.String()+"/guests")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), gateEvent.String())
	orgsRepo.AssertNotCalled(t, "GetOwnerID", mock.Anything)
}

func TestGateAllowsOrgOwner(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).
		Return(&models.Event{ID: gateEvent, CreatedBy: creatorID, OrganizationID: &gateOrgID}, nil)
	orgsRepo.On("GetOwnerID", gateOrgID).Return(ownerID, nil)

	w := get(gateRouter(eventsRepo, orgsRepo, ownerID), "/events/"+gateEvent.String()+"/guests")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateForbidsStranger(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).
		Return(&models.Event{ID: gateEvent, CreatedBy: creatorID, OrganizationID: &gateOrgID}, nil)
	orgsRepo.On("GetOwnerID", gateOrgID).Return(ownerID, nil)

	w := get(gateRouter(eventsRepo, orgsRepo, strangerID), "/events/"+gateEvent.String()+"/guests")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGateForbidsNonCreatorWithoutOrg(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).Return(&models.Event{ID: gateEvent, CreatedBy: creatorID}, nil)

	w := get(gateRouter(eventsRepo, orgsRepo, strangerID), "/events/"+gateEvent.String()+"/guests")
	assert.Equal(t, http.StatusForbidden, w.Code)
	orgsRepo.AssertNotCalled(t, "GetOwnerID", mock.Anything)
}

func TestGateMissingOrgTreatedAsNotOwned(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).
		Return(&models.Event{ID: gateEvent, CreatedBy: creatorID, OrganizationID: &gateOrgID}, nil)
	orgsRepo.On("GetOwnerID", gateOrgID).Return(uuid.Nil, pgx.ErrNoRows)

	w := get(gateRouter(eventsRepo, orgsRepo, ownerID), "/events/"+gateEvent.String()+"/guests")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGateRejectsMalformedEventID(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)

	w := get(gateRouter(eventsRepo, orgsRepo, creatorID), "/events/not-a-uuid/guests")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	eventsRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestGateUnknownEvent404(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).Return(nil, pgx.ErrNoRows)

	w := get(gateRouter(eventsRepo, orgsRepo, creatorID), "/events/"+gateEvent.String()+"/guests")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGateRepositoryError500(t *testing.T) {
	eventsRepo := new(MockEventGetter)
	orgsRepo := new(MockOrgOwnerGetter)
	eventsRepo.On("GetByID", gateEvent).Return(nil, errors.New("connection reset"))

	w := get(gateRouter(eventsRepo, orgsRepo, creatorID), "/events/"+gateEvent.String()+"/guests")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
