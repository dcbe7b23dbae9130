package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"brewspot/cmd/api/dto"
	"brewspot/cmd/api/services"
	"brewspot/eventbus"
	"brewspot/events"
	"brewspot/models"
	"brewspot/repositories"
)

const testToken = "s3cret"

type memListings struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Listing
}

func newMemListings() *memListings {
	return &memListings{byID: map[primitive.ObjectID]*models.Listing{}}
}

func (m *memListings) Insert(ctx context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = primitive.NewObjectID()
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memListings) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memListings) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ListingStatus, reviewedBy, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return repositories.ErrListingNotFound
	}
	l.Status, l.ReviewedBy, l.RejectionReason = status, reviewedBy, reason
	return nil
}

func (m *memListings) List(ctx context.Context, opt repositories.ListListingsOptions) ([]models.Listing, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Listing{}
	for _, l := range m.byID {
		if opt.Status != "" && l.Status != opt.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

type memAuditLogs struct {
	entries []models.AuditLog
}

func (m *memAuditLogs) List(ctx context.Context, opt repositories.ListAuditLogsOptions) ([]models.AuditLog, int64, error) {
	out := []models.AuditLog{}
	for _, e := range m.entries {
		if opt.EntityID != "" && e.EntityID != opt.EntityID {
			continue
		}
		if opt.Status != "" && e.Status != opt.Status {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, e eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
	return nil
}

type testEnv struct {
	handler  http.Handler
	listings *memListings
	audit    *memAuditLogs
	pub      *recordingPublisher
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	env := &testEnv{listings: newMemListings(), audit: &memAuditLogs{}, pub: &recordingPublisher{}}
	topic := eventbus.NewTopic("brewspot.listing.events")
	listingSvc := services.NewListingService(env.listings, env.pub, topic)
	engine := New(Deps{
		Listings:   listingSvc,
		Admin:      services.NewAdminService(listingSvc, env.audit),
		AdminToken: testToken,
	})
	env.handler = WithCORS(engine, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", testToken)
		req.Header.Set("X-Admin-User", "mina")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(l models.Listing) primitive.ObjectID {
	_ = e.listings.Insert(context.Background(), &l)
	return l.ID
}

func TestHealth(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitListing(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/listings", dto.SubmitListingRequest{
		Name:        "  Moka House ",
		City:        "Seoul",
		Description: "Small roastery.",
		Photos:      []string{"https://img.example.com/1.jpg"},
		Tags:        []string{"wifi", " ", "quiet"},
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out dto.ListingDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Moka House", out.Name)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, []string{"wifi", "quiet"}, out.Tags)
	assert.Nil(t, out.AIMeta)

	testCases := []struct {
		name string
		req  dto.SubmitListingRequest
	}{
		{"missing name", dto.SubmitListingRequest{Description: "x"}},
		{"long description", dto.SubmitListingRequest{Name: "a", Description: strings.Repeat("é", 2001)}},
		{"bad photo scheme", dto.SubmitListingRequest{Name: "a", Photos: []string{"ftp://host/x.jpg"}}},
		{"too many tags", dto.SubmitListingRequest{Name: "a", Tags: make([]string, 21)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/listings", tc.req, false)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetListing_OnlyApprovedWithSEO(t *testing.T) {
	env := newTestEnv()
	pending := env.seed(models.Listing{Name: "Hidden", Status: models.ListingPending})
	approved := env.seed(models.Listing{
		Name:        "Moka House",
		City:        "Seoul",
		Status:      models.ListingApproved,
		Description: "Owner text",
		Tags:        []string{"Cozy"},
		AIMeta:      &models.AIMeta{Tags: []string{"cozy", "quiet"}, Summary: "AI summary here.", Sentiment: models.SentimentPositive, Version: "1.0"},
	})

	rec := env.do(t, http.MethodGet, "/api/v1/listings/"+pending.Hex(), nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/listings/not-an-id", nil, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/listings/"+approved.Hex(), nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var out dto.ListingDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.SEO)
	assert.Equal(t, "Moka House - Seoul | BrewSpot", out.SEO.Title)
	assert.Equal(t, "AI summary here.", out.SEO.Description)
	assert.Equal(t, []string{"Cozy", "quiet"}, out.SEO.Keywords)
	assert.Equal(t, "Owner text", out.Description, "user description is served untouched")

	rec = env.do(t, http.MethodGet, "/api/v1/listings", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var page dto.Pagination[dto.ListingDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 20, page.PageSize)
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/api/v1/admin/listings", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/listings", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminApprovePublishesEvent(t *testing.T) {
	env := newTestEnv()
	id := env.seed(models.Listing{Name: "Moka", Status: models.ListingPending})

	rec := env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id.Hex()+"/approve", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	l, _ := env.listings.FindByID(context.Background(), id)
	assert.Equal(t, models.ListingApproved, l.Status)
	assert.Equal(t, "mina", l.ReviewedBy)

	require.Len(t, env.pub.events, 1)
	assert.Equal(t, "brewspot.listing.events", env.pub.topics[0])
	evt, err := eventbus.DecodeJSON[events.ListingApprovedEvent](env.pub.events[0])
	require.NoError(t, err)
	assert.Equal(t, events.ListingApproved, evt.Type)
	assert.Equal(t, id, evt.ListingID)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/listings/"+primitive.NewObjectID().Hex()+"/approve", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminReject(t *testing.T) {
	env := newTestEnv()
	id := env.seed(models.Listing{Name: "Moka", Status: models.ListingPending})

	rec := env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id.Hex()+"/reject", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id.Hex()+"/reject", dto.RejectListingRequest{Reason: "duplicate"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	l, _ := env.listings.FindByID(context.Background(), id)
	assert.Equal(t, models.ListingRejected, l.Status)
	assert.Equal(t, "duplicate", l.RejectionReason)
	assert.Empty(t, env.pub.events)
}

func TestRefreshRequests(t *testing.T) {
	env := newTestEnv()
	id := env.seed(models.Listing{Name: "Moka", Status: models.ListingApproved})

	rec := env.do(t, http.MethodPost, "/api/v1/listings/"+id.Hex()+"/ai-meta/refresh", nil, false)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/admin/listings/"+id.Hex()+"/ai-meta/refresh", nil, true)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, env.pub.events, 2)
	wantBy := []models.TriggeredBy{models.TriggeredByUserAction, models.TriggeredByAdmin}
	for i, ev := range env.pub.events {
		v, err := eventbus.DecodeJSON[events.ListingAIMetaRefreshRequestedEvent](ev)
		require.NoError(t, err)
		assert.Equal(t, events.ListingAIMetaRefreshRequested, v.Type)
		assert.Equal(t, wantBy[i], v.TriggeredBy)
	}
}

func TestRefreshRequests_PublicRouteOnlyForApproved(t *testing.T) {
	env := newTestEnv()
	pending := env.seed(models.Listing{Name: "Moka", Status: models.ListingPending})
	rejected := env.seed(models.Listing{Name: "Brew", Status: models.ListingRejected})

	for _, id := range []primitive.ObjectID{pending, rejected} {
		rec := env.do(t, http.MethodPost, "/api/v1/listings/"+id.Hex()+"/ai-meta/refresh", nil, false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Empty(t, env.pub.events)

	// 관리자는 상태와 무관하게 요청할 수 있다
	rec := env.do(t, http.MethodPost, "/api/v1/admin/listings/"+pending.Hex()+"/ai-meta/refresh", nil, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, env.pub.events, 1)
}

func TestAdminAuditLogs(t *testing.T) {
	env := newTestEnv()
	reason := models.FailureValidation
	env.audit.entries = []models.AuditLog{
		{ID: primitive.NewObjectID(), Action: models.ActionGenerateTags, EntityID: "a", Status: models.AuditSuccess},
		{ID: primitive.NewObjectID(), Action: models.ActionGenerateTags, EntityID: "a", Status: models.AuditFailed, FailureReason: &reason},
		{ID: primitive.NewObjectID(), Action: models.ActionGenerateTags, EntityID: "b", Status: models.AuditSkipped},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/admin/audit-logs?entity_id=a&status=failed", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var page dto.Pagination[dto.AuditLogDTO]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	require.NotNil(t, page.Data[0].FailureReason)
	assert.Equal(t, "validation", *page.Data[0].FailureReason)
	assert.Equal(t, 50, page.PageSize)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/audit-logs?status=exploded", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/listings", nil)
	req.Header.Set("Origin", "https://brewspot.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
