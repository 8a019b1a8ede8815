package endpoints_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/db"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/endpoints"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/syncer"
)

const secret = "test-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *booking.Store
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	store := booking.New(db.NewMemoryStore(),
		booking.WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }))
	reconciler := syncer.New(store, time.Second)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "", SecretKey: secret}, endpoints.HealthModule())
	api.MountGroup(r, api.GroupConfig{Prefix: "/api", SecretKey: secret},
		endpoints.ResourceModule(store),
		endpoints.BookingModule(store),
		endpoints.SyncModule(reconciler, time.Hour),
	)
	api.MountGroup(r, api.GroupConfig{Prefix: "/api", Auth: true, SecretKey: secret}, endpoints.HomeModule(store))
	api.MountGroup(r, api.GroupConfig{Prefix: "/ics", SecretKey: secret}, endpoints.FeedModule(store))
	return &testServer{t: t, router: r, store: store}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func token(t *testing.T, user, home string) string {
	tok, err := middleware.GenerateJWT(user, home, secret)
	require.NoError(t, err)
	return tok
}

func eventsPath(start, end string) string {
	q := url.Values{"start": {start}, "end": {end}}
	return "/api/events?" + q.Encode()
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "alice", "")

	w := s.do(http.MethodPost, "/api/resources", "", packets.CreateResourceRequest{Name: "Car 1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "resource writes need a token")

	w = s.do(http.MethodPost, "/api/resources", tok, packets.CreateResourceRequest{Name: "Car 1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	car := decode[packets.ResourceResponse](t, w)
	assert.Equal(t, model.OfflineHomeID, car.HomeID)

	w = s.do(http.MethodGet, "/api/resources", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]packets.ResourceResponse](t, w), 1)

	w = s.do(http.MethodPost, "/api/bookings", "", map[string]any{
		"resource_id": car.ID,
		"title":       "School run",
		"start":       "2024-01-01T09:00:00Z",
		"end":         "2024-01-01T10:00:00Z",
		"rrule":       "FREQ=DAILY",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[packets.BookingResponse](t, w)
	assert.Equal(t, "FREQ=DAILY", created.RRule)

	w = s.do(http.MethodGet, eventsPath("2024-01-03T00:00:00Z", "2024-01-05T00:00:00Z"), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	occs := decode[[]packets.OccurrenceResponse](t, w)
	require.Len(t, occs, 2)
	assert.Equal(t, "2024-01-03T09:00:00Z", occs[0].Start)
	assert.Equal(t, "2024-01-04T09:00:00Z", occs[1].Start)

	w = s.do(http.MethodPost, "/api/bookings", "", map[string]any{
		"resource_id": car.ID,
		"title":       "Clash",
		"start":       "2024-01-02T09:30:00Z",
		"end":         "2024-01-02T10:30:00Z",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode[map[string]any](t, w)
	assert.Contains(t, body["error"], "2024-01-02T09:00Z")
	details := body["details"].(map[string]any)
	assert.Equal(t, created.ID, details["series_id"])

	w = s.do(http.MethodDelete, "/api/resources/"+car.ID, tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "resource still has bookings")

	w = s.do(http.MethodDelete, "/api/bookings/"+occs[1].OccurrenceID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/bookings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, eventsPath("2024-01-03T00:00:00Z", "2024-01-05T00:00:00Z"), "", nil)
	assert.Empty(t, decode[[]packets.OccurrenceResponse](t, w))
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/events?start=yesterday&end=today", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/bookings", "", map[string]any{"title": "no resource"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/bookings", "", map[string]any{
		"resource_id": "missing", "title": "x",
		"start": "2024-01-01T09:00:00Z", "end": "2024-01-01T10:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/sync", "", map[string]any{"base_url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/events?start=2024-01-01T00:00:00Z&end=2024-01-02T00:00:00Z", "Bearer-less", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "a present but broken token is rejected")
}

func TestHomes(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", "")

	w := s.do(http.MethodGet, "/api/homes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/homes", alice, packets.CreateHomeRequest{Name: "Cabin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	home := decode[packets.HomeResponse](t, w)

	w = s.do(http.MethodPost, "/api/homes/"+home.ID+"/members", token(t, "bob", ""), packets.AddMemberRequest{UserID: "bob"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/homes/"+home.ID+"/members", alice, packets.AddMemberRequest{UserID: "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"alice", "bob"}, decode[packets.HomeResponse](t, w).Members)

	w = s.do(http.MethodGet, "/api/homes", token(t, "bob", ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]packets.HomeResponse](t, w), 1)

	// home-scoped token: resources land in the home and events are scoped to it
	scoped := token(t, "alice", home.ID)
	w = s.do(http.MethodPost, "/api/resources", scoped, packets.CreateResourceRequest{Name: "Kayak", Color: "#00ff00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, home.ID, decode[packets.ResourceResponse](t, w).HomeID)

	w = s.do(http.MethodGet, "/api/resources", scoped, nil)
	assert.Len(t, decode[[]packets.ResourceResponse](t, w), 1)
}

func TestFeedsAndSyncBetweenInstances(t *testing.T) {
	remote := newTestServer(t)
	tok := token(t, "alice", "")
	w := remote.do(http.MethodPost, "/api/resources", tok, packets.CreateResourceRequest{Name: "Garage", Color: "#abcdef"})
	require.Equal(t, http.StatusOK, w.Code)
	garage := decode[packets.ResourceResponse](t, w)
	w = remote.do(http.MethodPost, "/api/bookings", "", map[string]any{
		"resource_id": garage.ID, "title": "Workshop",
		"start": "2024-01-02T10:00:00Z", "end": "2024-01-02T12:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = remote.do(http.MethodGet, "/ics/resource/"+garage.ID+".ics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, w.Body.String(), "SUMMARY:Garage: Workshop")

	w = remote.do(http.MethodGet, "/ics/resource/missing.ics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	srv := httptest.NewServer(remote.router)
	defer srv.Close()

	local := newTestServer(t)
	w = local.do(http.MethodPost, "/api/sync", "", packets.SyncRequest{BaseURL: srv.URL})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.SyncImportResult{ResourcesCreated: 1, EventsImported: 1}, decode[model.SyncImportResult](t, w))

	w = local.do(http.MethodPost, "/api/sync", "", packets.SyncRequest{BaseURL: srv.URL})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = local.do(http.MethodGet, eventsPath("2024-01-02T00:00:00Z", "2024-01-03T00:00:00Z"), "", nil)
	occs := decode[[]packets.OccurrenceResponse](t, w)
	require.Len(t, occs, 1)
	assert.Equal(t, "Workshop", occs[0].Title)
}

func TestSyncFailureStatus(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := s.do(http.MethodPost, "/api/sync", "", packets.SyncRequest{BaseURL: srv.URL})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode[map[string]any](t, w)
	assert.Contains(t, body["error"], "fetch resources")
}
