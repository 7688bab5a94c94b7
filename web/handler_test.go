package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheMem "tripsync/cache/mem"
	dbt "tripsync/db/db"
	dbMem "tripsync/db/mem"
	"tripsync/mq/goch"
	"tripsync/news"
	"tripsync/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct{}

func (stubProvider) FetchImage(context.Context, string, int) ([]byte, error) {
	// Valid PNG magic so content sniffing yields image/png.
	return []byte("\x89PNG\r\n\x1a\nfake"), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, dbt.TripGateway) {
	t.Helper()
	gateway := dbMem.NewInMemoryTripGateway()
	app := web.NewApp(context.Background(), gateway, cacheMem.NewInMemoryTripCache(),
		goch.NewGoChanTripEventBus(), stubProvider{}, news.NewService(""), nil)
	return web.NewRouter(app), gateway
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tripBody(name string, startOffset, endOffset int) gin.H {
	now := time.Now().UTC()
	return gin.H{
		"name":      name,
		"members":   []string{"alice", "bob"},
		"startDate": now.AddDate(0, 0, startOffset).Format(time.RFC3339),
		"endDate":   now.AddDate(0, 0, endOffset).Format(time.RFC3339),
	}
}

type tripResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	MessageCount int       `json:"messageCount"`
	HasArtifact  bool      `json:"hasArtifact"`
}

type listResponse struct {
	Trips []tripResponse `json:"trips"`
}

func createTrip(t *testing.T, r *gin.Engine, name string, startOffset, endOffset int) tripResponse {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/trips", tripBody(name, startOffset, endOffset))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp tripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateAndListTrips(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createTrip(t, r, "Tokyo Adventure", -1, 3)
	assert.Equal(t, "Tokyo Adventure", created.Name)
	assert.NotEqual(t, uuid.Nil, created.ID)

	w := doJSON(r, http.MethodGet, "/api/trips", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Trips, 1)
	assert.Equal(t, created.ID, list.Trips[0].ID)
}

func TestCreateTripValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/api/trips", gin.H{"members": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOngoingAndPastEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	ongoing := createTrip(t, r, "Ongoing", -1, 2)
	past := createTrip(t, r, "Past", -10, -5)

	w := doJSON(r, http.MethodGet, "/api/trips/ongoing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Trips, 1)
	assert.Equal(t, ongoing.ID, list.Trips[0].ID)

	w = doJSON(r, http.MethodGet, "/api/trips/past", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = listResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Trips, 1)
	assert.Equal(t, past.ID, list.Trips[0].ID)
}

func TestUpdateTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createTrip(t, r, "Old Name", 0, 2)

	w := doJSON(r, http.MethodPut, "/api/trips/"+created.ID.String(), tripBody("New Name", 0, 2))
	require.Equal(t, http.StatusOK, w.Code)
	var resp tripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "New Name", resp.Name)
}

func TestUpdateUnknownTripIsNoOp(t *testing.T) {
	r, _ := newTestRouter(t)
	createTrip(t, r, "Existing", 0, 2)

	w := doJSON(r, http.MethodPut, "/api/trips/"+uuid.NewString(), tripBody("Ghost", 0, 2))
	assert.Equal(t, http.StatusNoContent, w.Code)

	list := doJSON(r, http.MethodGet, "/api/trips", nil)
	var resp listResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	assert.Len(t, resp.Trips, 1, "a stale update must not resurrect a trip")
}

func TestDeleteTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createTrip(t, r, "Doomed", 0, 1)

	w := doJSON(r, http.MethodDelete, "/api/trips/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/trips/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/trips/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddMessage(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createTrip(t, r, "Chatty", 0, 1)

	path := fmt.Sprintf("/api/trips/%s/messages", created.ID)
	w := doJSON(r, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp tripResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.MessageCount)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/api/trips/%s/messages", uuid.NewString()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefresh(t *testing.T) {
	r, _ := newTestRouter(t)
	createTrip(t, r, "Synced", 0, 1)

	w := doJSON(r, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "generation")
}

func TestTripImageServedAfterEnrichment(t *testing.T) {
	r, _ := newTestRouter(t)
	created := createTrip(t, r, "Tokyo Adventure", 0, 3)

	path := "/api/trips/" + created.ID.String() + "/image"
	assert.Eventually(t, func() bool {
		w := doJSON(r, http.MethodGet, path, nil)
		return w.Code == http.StatusOK
	}, 3*time.Second, 25*time.Millisecond, "background enrichment must attach the image")

	w := doJSON(r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestTripImageNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/api/trips/"+uuid.NewString()+"/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTravelNewsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	createTrip(t, r, "Paris, France", 0, 3)

	w := doJSON(r, http.MethodGet, "/api/news", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		News []news.Item `json:"news"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.News)
	assert.Contains(t, resp.News[0].Title, "France", "headlines are scoped to inferred destinations")
}

func TestOwnerScoping(t *testing.T) {
	r, _ := newTestRouter(t)

	body := tripBody("Owner A Trip", 0, 1)
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/trips", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", "owner-a")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/trips", nil)
	req.Header.Set("X-Owner-ID", "owner-b")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Trips, "owners must not see each other's trips")
}
