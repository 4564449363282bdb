package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"turn2law-backend/config"
	"turn2law-backend/metrics"
	"turn2law-backend/models"
	"turn2law-backend/repository"
	"turn2law-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	docs    []models.LawyerDocument
	findErr error
	count   int
}

func (s *stubStore) Find(_ context.Context, q repository.LawyerQuery) ([]models.LawyerDocument, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if q.Mode == repository.MatchContains {
		return nil, nil
	}
	return s.docs, nil
}

func (s *stubStore) Count(context.Context) (int, error) {
	return s.count, nil
}

func (s *stubStore) List(_ context.Context, limit, offset int) ([]models.LawyerDocument, error) {
	if offset >= len(s.docs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.docs) {
		end = len(s.docs)
	}
	return s.docs[offset:end], nil
}

func newTestRouter(t *testing.T, store service.LawyerStore, rl config.RateLimitConfig) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := metrics.New("test")
	svc := service.NewMatchService(service.WithLawyerStore(store), service.WithMetrics(m))
	return NewRouter(NewLawyerHandler(svc), nil, rl, m), m
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

type recommendResponse struct {
	Lawyers []models.MatchResult `json:"lawyers"`
	Total   int                  `json:"total"`
	Message string               `json:"message"`
	Error   string               `json:"error"`
	Details []service.FieldError `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) recommendResponse {
	t.Helper()
	var resp recommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRecommend_OK(t *testing.T) {
	store := &stubStore{docs: []models.LawyerDocument{
		{ID: uuid.New(), Doc: models.Document{"Lawyer_name": "B", "Location": "Delhi", "Years_of_Experience": 5.0, "Successful_cases": 9.0, "Total_cases": 10.0, "Nominal_fees_per_hearing": 3000.0}},
		{ID: uuid.New(), Doc: models.Document{"Lawyer_name": "A", "Location": "Delhi", "Years_of_Experience": 10.0, "Successful_cases": 8.0, "Total_cases": 10.0, "Nominal_fees_per_hearing": 1000.0, "email": "a@example.com"}},
	}}
	r, _ := newTestRouter(t, store, config.RateLimitConfig{})

	w := postJSON(r, "/api/lawyers/recommend", `{"location":"Delhi","urgency":"high","budget":1500}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "Found 2 lawyers in Delhi", resp.Message)
	require.Len(t, resp.Lawyers, 2)
	assert.Equal(t, "A", resp.Lawyers[0].Name)
	assert.Equal(t, 76.17, resp.Lawyers[0].MatchScore)
	assert.Equal(t, "a@example.com", resp.Lawyers[0].Email)
	assert.Equal(t, 58.5, resp.Lawyers[1].MatchScore)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	first := raw["lawyers"].([]interface{})[0].(map[string]interface{})
	assert.Contains(t, first, "_id")
	assert.Contains(t, first, "cases")
}

func TestRecommend_EmptyIs200(t *testing.T) {
	r, _ := newTestRouter(t, &stubStore{count: 10}, config.RateLimitConfig{})

	w := postJSON(r, "/api/lawyers/recommend", `{"location":"Nowhere"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.JSONEq(t, `{
		"lawyers": [],
		"total": 0,
		"message": "No lawyers found in Nowhere. Please try a different location or broaden your search criteria."
	}`, w.Body.String())
}

func TestRecommend_StorageErrorIs500(t *testing.T) {
	r, m := newTestRouter(t, &stubStore{findErr: errors.New("dial tcp: connection refused")}, config.RateLimitConfig{})

	w := postJSON(r, "/api/lawyers/recommend", `{"location":"Delhi"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to search lawyers database"}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecommendationsTotal.WithLabelValues(metrics.OutcomeError)))
}

func TestRecommend_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantError   string
		wantDetails []string
	}{
		{"missing location", `{"urgency":"low"}`, "Location is required", nil},
		{"blank location", `{"location":"   "}`, "Location is required", nil},
		{"bad urgency", `{"location":"Delhi","urgency":"yesterday"}`, "Invalid request data", []string{"urgency"}},
		{"negative budget", `{"location":"Delhi","budget":-10}`, "Invalid request data", []string{"budget"}},
		{"budget wrong type", `{"location":"Delhi","budget":"cheap"}`, "Invalid request data", []string{"budget"}},
		{"malformed json", `{"location":`, "Invalid request data", []string{"body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &stubStore{}, config.RateLimitConfig{})

			w := postJSON(r, "/api/lawyers/recommend", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			resp := decode(t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			var fields []string
			for _, d := range resp.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.wantDetails, fields)
		})
	}
}

func TestRecommend_RateLimited(t *testing.T) {
	r, m := newTestRouter(t, &stubStore{count: 1}, config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	w := postJSON(r, "/api/lawyers/recommend", `{"location":"Delhi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/api/lawyers/recommend", `{"location":"Delhi"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal))
}

func TestList(t *testing.T) {
	var docs []models.LawyerDocument
	for _, name := range []string{"A", "B", "C"} {
		docs = append(docs, models.LawyerDocument{ID: uuid.New(), Doc: models.Document{"name": name}})
	}
	r, _ := newTestRouter(t, &stubStore{docs: docs, count: 3}, config.RateLimitConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lawyers/list?page=2&limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp service.ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Lawyers, 1)
	assert.Equal(t, "C", resp.Lawyers[0].Name)
}

func TestList_BadQuery(t *testing.T) {
	r, _ := newTestRouter(t, &stubStore{}, config.RateLimitConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lawyers/list?limit=many", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"limit"`)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, &stubStore{}, config.RateLimitConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_requests_total{method="GET",path="/health",status_code="200"} 1`)
}
