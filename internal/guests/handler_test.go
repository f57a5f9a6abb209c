package guests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revelry-events/backend/internal/events"
	"github.com/revelry-events/backend/internal/models"
)

// MockStore mocks the guest persistence surface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListTicketRows(ctx context.Context, eventID uuid.UUID) ([]TicketRow, error) {
	args := m.Called(eventID)
	return args.Get(0).([]TicketRow), args.Error(1)
}

func (m *MockStore) ListManualGuests(ctx context.Context, eventID uuid.UUID) ([]models.EventGuest, error) {
	args := m.Called(eventID)
	return args.Get(0).([]models.EventGuest), args.Error(1)
}

func (m *MockStore) GetUserSnapshots(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	args := m.Called(ids)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStore) ListGuestEmails(ctx context.Context, eventID uuid.UUID) (map[string]struct{}, error) {
	args := m.Called(eventID)
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockStore) InsertManualGuests(ctx context.Context, eventID uuid.UUID, guests []NewManualGuest) error {
	args := m.Called(eventID, guests)
	return args.Error(0)
}

func (m *MockStore) UpdateManualGuestStatus(ctx context.Context, eventID, guestID uuid.UUID, status models.GuestStatus) (bool, error) {
	args := m.Called(eventID, guestID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) GetToggleAnchor(ctx context.Context, eventID, ticketID uuid.UUID) (*ToggleAnchor, error) {
	args := m.Called(eventID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ToggleAnchor), args.Error(1)
}

func (m *MockStore) BulkSetTicketStatus(ctx context.Context, eventID, userID uuid.UUID, orderID *uuid.UUID, to models.TicketStatus) (int64, error) {
	args := m.Called(eventID, userID, orderID, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) DeleteManualGuest(ctx context.Context, eventID, guestID uuid.UUID) (bool, error) {
	args := m.Called(eventID, guestID)
	return args.Bool(0), args.Error(1)
}

var testEvent = &models.Event{
	ID:        uuid.MustParse("ee000000-0000-0000-0000-000000000001"),
	Title:     "Launch Party",
	CreatedBy: uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000aa"),
}

func guestRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(events.ContextEvent, testEvent) })
	r.GET("/events/:id/guests", h.List)
	r.POST("/events/:id/guests", h.Add)
	r.PATCH("/events/:id/guests/:guestId", h.UpdateStatus)
	r.DELETE("/events/:id/guests/:guestId", h.Remove)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestListReturnsMaterializedRows(t *testing.T) {
	store := new(MockStore)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.On("ListTicketRows", testEvent.ID).Return([]TicketRow{
		paidTicket("99999999-0000-0000-0000-000000001234", buyerA, nil, created),
	}, nil)
	store.On("ListManualGuests", testEvent.ID).Return([]models.EventGuest{}, nil)

	w, env := doJSON(t, guestRouter(store), http.MethodGet, "/events/"+testEvent.ID.String()+"/guests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var rows []Row
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "ORD-1234", rows[0].OrderNumber)
	store.AssertExpectations(t)
}

func TestAddSkipsExistingEmails(t *testing.T) {
	store := new(MockStore)
	userNew := models.User{
		ID:        uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
		Email:     "new@example.com",
		FirstName: "New",
		LastName:  "Person",
	}
	userDup := models.User{
		ID:    uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002"),
		Email: "dup@example.com",
	}
	store.On("GetUserSnapshots", mock.Anything).Return([]models.User{userNew, userDup}, nil)
	store.On("ListGuestEmails", testEvent.ID).Return(map[string]struct{}{"dup@example.com": {}}, nil)
	store.On("InsertManualGuests", testEvent.ID, []NewManualGuest{
		{FullName: "New Person", Email: "new@example.com"},
	}).Return(nil)

	body := AddRequest{UserIDs: []string{userNew.ID.String(), userDup.ID.String()}}
	w, env := doJSON(t, guestRouter(store), http.MethodPost, "/events/"+testEvent.ID.String()+"/guests", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Added int `json:"added"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Added)
	store.AssertExpectations(t)
}

func TestAddAcceptsLegacyIDs(t *testing.T) {
	store := new(MockStore)
	// 24-hex legacy id zero-padded into UUID space.
	legacyUUID := uuid.MustParse("00000000-507f-1f77-bcf8-6cd799439011")
	store.On("GetUserSnapshots", []uuid.UUID{legacyUUID}).
		Return([]models.User{{ID: legacyUUID, Email: "legacy@example.com"}}, nil)
	store.On("ListGuestEmails", testEvent.ID).Return(map[string]struct{}{}, nil)
	store.On("InsertManualGuests", testEvent.ID, mock.Anything).Return(nil)

	body := AddRequest{UserIDs: []string{"507f1f77bcf86cd799439011"}}
	w, _ := doJSON(t, guestRouter(store), http.MethodPost, "/events/"+testEvent.ID.String()+"/guests", body)
	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestAddRejectsMalformedID(t *testing.T) {
	store := new(MockStore)
	body := AddRequest{UserIDs: []string{"not-an-id"}}
	w, env := doJSON(t, guestRouter(store), http.MethodPost, "/events/"+testEvent.ID.String()+"/guests", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	store.AssertNotCalled(t, "GetUserSnapshots", mock.Anything)
}

func TestUpdateStatusManualGuest(t *testing.T) {
	store := new(MockStore)
	guestID := uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	store.On("UpdateManualGuestStatus", testEvent.ID, guestID, models.GuestCheckedIn).Return(true, nil)

	body := StatusRequest{Status: "checked_in"}
	w, _ := doJSON(t, guestRouter(store), http.MethodPatch, "/events/"+testEvent.ID.String()+"/guests/"+guestID.String(), body)
	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertNotCalled(t, "GetToggleAnchor", mock.Anything, mock.Anything)
}

func TestUpdateStatusBulkTogglesOrderGroup(t *testing.T) {
	store := new(MockStore)
	ticketID := uuid.MustParse("99999999-0000-0000-0000-000000000001")
	orderID := uuid.MustParse("11111111-0000-0000-0000-000000000001")
	anchor := &ToggleAnchor{UserID: buyerA, OrderID: &orderID}

	store.On("UpdateManualGuestStatus", testEvent.ID, ticketID, models.GuestCheckedIn).Return(false, nil)
	store.On("GetToggleAnchor", testEvent.ID, ticketID).Return(anchor, nil)
	store.On("BulkSetTicketStatus", testEvent.ID, buyerA, &orderID, models.TicketScanned).Return(int64(3), nil)

	body := StatusRequest{Status: "checked_in"}
	w, _ := doJSON(t, guestRouter(store), http.MethodPatch, "/events/"+testEvent.ID.String()+"/guests/"+ticketID.String(), body)
	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestUpdateStatusUncheckMapsToPaid(t *testing.T) {
	store := new(MockStore)
	ticketID := uuid.MustParse("99999999-0000-0000-0000-000000000001")
	anchor := &ToggleAnchor{UserID: buyerA}

	store.On("UpdateManualGuestStatus", testEvent.ID, ticketID, models.GuestPendingArrival).Return(false, nil)
	store.On("GetToggleAnchor", testEvent.ID, ticketID).Return(anchor, nil)
	store.On("BulkSetTicketStatus", testEvent.ID, buyerA, (*uuid.UUID)(nil), models.TicketPaid).Return(int64(1), nil)

	body := StatusRequest{Status: "pending_arrival"}
	w, _ := doJSON(t, guestRouter(store), http.MethodPatch, "/events/"+testEvent.ID.String()+"/guests/"+ticketID.String(), body)
	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	store := new(MockStore)
	guestID := uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	body := StatusRequest{Status: "refunded"}
	w, _ := doJSON(t, guestRouter(store), http.MethodPatch, "/events/"+testEvent.ID.String()+"/guests/"+guestID.String(), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "UpdateManualGuestStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatusUnknownGuest404(t *testing.T) {
	store := new(MockStore)
	guestID := uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	store.On("UpdateManualGuestStatus", testEvent.ID, guestID, models.GuestCheckedIn).Return(false, nil)
	store.On("GetToggleAnchor", testEvent.ID, guestID).Return(nil, nil)

	body := StatusRequest{Status: "checked_in"}
	w, _ := doJSON(t, guestRouter(store), http.MethodPatch, "/events/"+testEvent.ID.String()+"/guests/"+guestID.String(), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveManualGuest(t *testing.T) {
	store := new(MockStore)
	guestID := uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	store.On("DeleteManualGuest", testEvent.ID, guestID).Return(true, nil)

	w, _ := doJSON(t, guestRouter(store), http.MethodDelete, "/events/"+testEvent.ID.String()+"/guests/"+guestID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestRemoveTicketGuest404(t *testing.T) {
	store := new(MockStore)
	ticketID := uuid.MustParse("99999999-0000-0000-0000-000000000001")
	store.On("DeleteManualGuest", testEvent.ID, ticketID).Return(false, nil)

	w, env := doJSON(t, guestRouter(store), http.MethodDelete, "/events/"+testEvent.ID.String()+"/guests/"+ticketID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}
