package announcements

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecast/backend/internal/models"
)

type fakeStore struct {
	active   []models.Announcement
	all      []models.Announcement
	created  []models.Announcement
	toggled  map[uuid.UUID]bool
	known    map[uuid.UUID]bool
	storeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{toggled: map[uuid.UUID]bool{}, known: map[uuid.UUID]bool{}}
}

func (f *fakeStore) ListActive(context.Context, time.Time) ([]models.Announcement, error) {
	return f.active, f.storeErr
}

func (f *fakeStore) List(context.Context) ([]models.Announcement, error) {
	return f.all, f.storeErr
}

func (f *fakeStore) Create(_ context.Context, a *models.Announcement) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeStore) SetActive(_ context.Context, id uuid.UUID, active bool) (bool, error) {
	if f.storeErr != nil {
		return false, f.storeErr
	}
	if !f.known[id] {
		return false, nil
	}
	f.toggled[id] = active
	return true, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if f.storeErr != nil {
		return false, f.storeErr
	}
	return f.known[id], nil
}

func newTestRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil)
	router := gin.New()
	router.GET("/announcements", h.ListActive)
	router.POST("/announcements", h.Create)
	router.PATCH("/announcements/:id/toggle", h.Toggle)
	router.DELETE("/announcements/:id", h.Delete)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListActiveReturnsEmptyArrayNotNull(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doJSON(t, router, http.MethodGet, "/announcements", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestCreateAppliesDefaults(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/announcements", gin.H{
		"title":   "Maintenance window",
		"message": "Stream may drop briefly tonight",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	a := store.created[0]
	assert.Equal(t, models.AnnouncementGeneral, a.Type)
	assert.Equal(t, "medium", a.Priority)
	assert.True(t, a.Active)
}

func TestCreateRejectsPastExpiration(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)
	past := time.Now().Add(-time.Hour)

	rec := doJSON(t, router, http.MethodPost, "/announcements", gin.H{
		"title":      "Old news",
		"message":    "already over",
		"expires_at": past.Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.created)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPost, "/announcements", gin.H{
		"title":   "Weird",
		"message": "what kind is this",
		"type":    "gossip",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.created)
}

func TestToggleUpdatesActiveFlag(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.known[id] = true
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPatch, "/announcements/"+id.String()+"/toggle", gin.H{"active": false})

	require.Equal(t, http.StatusOK, rec.Code)
	active, ok := store.toggled[id]
	require.True(t, ok)
	assert.False(t, active)
}

func TestToggleUnknownAnnouncementIsNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doJSON(t, router, http.MethodPatch, "/announcements/"+uuid.NewString()+"/toggle", gin.H{"active": true})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleRequiresActiveField(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.known[id] = true
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodPatch, "/announcements/"+id.String()+"/toggle", gin.H{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.toggled)
}

func TestDeleteUnknownAnnouncementIsNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doJSON(t, router, http.MethodDelete, "/announcements/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreFailureReturnsInternal(t *testing.T) {
	store := newFakeStore()
	store.storeErr = errors.New("connection reset")
	router := newTestRouter(store)

	rec := doJSON(t, router, http.MethodGet, "/announcements", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
