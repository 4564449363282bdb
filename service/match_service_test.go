package service

import (
	"context"
	"errors"
	"testing"

	"turn2law-backend/config"
	"turn2law-backend/metrics"
	"turn2law-backend/models"
	"turn2law-backend/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore answers Find from a queue of canned results and records queries.
type fakeStore struct {
	results [][]models.LawyerDocument
	findErr []error
	queries []repository.LawyerQuery

	count    int
	countErr error
	counted  int

	all     []models.LawyerDocument
	listErr error
	listed  [][2]int
}

func (f *fakeStore) Find(_ context.Context, q repository.LawyerQuery) ([]models.LawyerDocument, error) {
	i := len(f.queries)
	f.queries = append(f.queries, q)
	if i < len(f.findErr) && f.findErr[i] != nil {
		return nil, f.findErr[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return nil, nil
}

func (f *fakeStore) Count(context.Context) (int, error) {
	f.counted++
	return f.count, f.countErr
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]models.LawyerDocument, error) {
	f.listed = append(f.listed, [2]int{limit, offset})
	if f.listErr != nil {
		return nil, f.listErr
	}
	if offset >= len(f.all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.all) {
		end = len(f.all)
	}
	return f.all[offset:end], nil
}

func lawyer(fields models.Document) models.LawyerDocument {
	return models.LawyerDocument{ID: uuid.New(), Doc: fields}
}

func scenarioDocs() []models.LawyerDocument {
	return []models.LawyerDocument{
		lawyer(models.Document{"Lawyer_name": "B", "Location": "Delhi", "Years_of_Experience": 5.0, "Successful_cases": 9.0, "Total_cases": 10.0, "Nominal_fees_per_hearing": 3000.0}),
		lawyer(models.Document{"Lawyer_name": "A", "Location": "Delhi", "Years_of_Experience": 10.0, "Successful_cases": 8.0, "Total_cases": 10.0, "Nominal_fees_per_hearing": 1000.0}),
	}
}

func TestRecommend_PrimaryMatch(t *testing.T) {
	store := &fakeStore{results: [][]models.LawyerDocument{scenarioDocs()}}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.Recommend(context.Background(), models.MatchRequest{
		Location: "New Delhi, India",
		Urgency:  models.UrgencyHigh,
		Budget:   floatPtr(1500),
	})
	require.NoError(t, err)

	require.Len(t, store.queries, 1)
	q := store.queries[0]
	assert.Equal(t, "new", q.Term)
	assert.Equal(t, repository.MatchRegex, q.Mode)
	require.NotNil(t, q.MaxFee)
	assert.InDelta(t, 1500, *q.MaxFee, 0.001)
	assert.Equal(t, DefaultCandidateLimit, q.Limit)

	assert.False(t, res.Broadened)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "Found 2 lawyers in New Delhi, India", res.Message)
	assert.Equal(t, "A", res.Lawyers[0].Name)
	assert.Equal(t, "B", res.Lawyers[1].Name)
	assert.Zero(t, store.counted)
}

func TestRecommend_TermIsFirstLowercasedToken(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"Mumbai", "mumbai"},
		{"  PUNE,Maharashtra", "pune"},
		{"Bengaluru Karnataka", "bengaluru"},
		{",,Chennai", "chennai"},
		{"ÉVORA Portugal", "évora"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			store := &fakeStore{results: [][]models.LawyerDocument{{lawyer(models.Document{"name": "x"})}}}
			s := NewMatchService(WithLawyerStore(store))

			_, err := s.Recommend(context.Background(), models.MatchRequest{Location: tt.location})
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.queries[0].Term)
		})
	}
}

func TestRecommend_NoBudgetNoFeeFilter(t *testing.T) {
	for _, budget := range []*float64{nil, floatPtr(0)} {
		store := &fakeStore{results: [][]models.LawyerDocument{scenarioDocs()}}
		s := NewMatchService(WithLawyerStore(store))

		res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi", Budget: budget})
		require.NoError(t, err)
		assert.Nil(t, store.queries[0].MaxFee)
		// B: 36 + 15, A: 32 + 30
		assert.Equal(t, 62.0, res.Lawyers[0].MatchScore)
		assert.Equal(t, 51.0, res.Lawyers[1].MatchScore)
	}
}

func TestRecommend_FallbackIgnoresBudgetByDefault(t *testing.T) {
	store := &fakeStore{results: [][]models.LawyerDocument{nil, scenarioDocs()}}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi", Budget: floatPtr(1500)})
	require.NoError(t, err)

	require.Len(t, store.queries, 2)
	assert.NotNil(t, store.queries[0].MaxFee)
	assert.Equal(t, repository.MatchContains, store.queries[1].Mode)
	assert.Equal(t, "delhi", store.queries[1].Term)
	assert.Nil(t, store.queries[1].MaxFee)

	assert.True(t, res.Broadened)
	assert.Equal(t, "Found 2 lawyers near Delhi", res.Message)
}

func TestRecommend_FallbackAppliesBudgetWhenConfigured(t *testing.T) {
	store := &fakeStore{results: [][]models.LawyerDocument{nil, scenarioDocs()}}
	s := NewMatchService(WithLawyerStore(store), WithFallbackBudgetPolicy(FallbackAppliesBudget))

	_, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi", Budget: floatPtr(1500)})
	require.NoError(t, err)

	require.Len(t, store.queries, 2)
	require.NotNil(t, store.queries[1].MaxFee)
	assert.InDelta(t, 1500, *store.queries[1].MaxFee, 0.001)
}

func TestRecommend_EmptyResultIsNotAnError(t *testing.T) {
	store := &fakeStore{count: 120}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Atlantis"})
	require.NoError(t, err)

	assert.NotNil(t, res.Lawyers)
	assert.Empty(t, res.Lawyers)
	assert.Zero(t, res.Total)
	assert.Equal(t, "No lawyers found in Atlantis. Please try a different location or broaden your search criteria.", res.Message)
	assert.Equal(t, 1, store.counted)
}

func TestRecommend_EmptyDatabase(t *testing.T) {
	store := &fakeStore{count: 0}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Equal(t, "No lawyers found in the database", res.Message)
}

func TestRecommend_CountFailureKeepsEmptyResult(t *testing.T) {
	store := &fakeStore{countErr: errors.New("timeout")}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi"})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "No lawyers found in Delhi")
}

func TestRecommend_AllCandidatesUnformattable(t *testing.T) {
	store := &fakeStore{results: [][]models.LawyerDocument{{
		lawyer(models.Document{"name": "x", "fees": "on request"}),
	}}}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Contains(t, res.Message, "No lawyers found in Delhi")
	assert.Zero(t, store.counted)
}

func TestRecommend_RetrievalErrors(t *testing.T) {
	tests := []struct {
		name    string
		findErr []error
		wantOp  string
	}{
		{"primary", []error{errors.New("connection refused")}, "find"},
		{"broadened", []error{nil, errors.New("connection reset")}, "find broadened"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{findErr: tt.findErr}
			s := NewMatchService(WithLawyerStore(store))

			res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi"})
			require.Error(t, err)
			assert.Nil(t, res)

			var re *RetrievalError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.wantOp, re.Op)
			assert.True(t, IsRetrieval(err))
			assert.False(t, IsValidation(err))
		})
	}
}

func TestRecommend_Validation(t *testing.T) {
	tests := []struct {
		name        string
		req         models.MatchRequest
		wantMessage string
		wantFields  []string
	}{
		{"missing location", models.MatchRequest{}, "Location is required", nil},
		{"blank location", models.MatchRequest{Location: " , "}, "Location is required", nil},
		{"bad urgency", models.MatchRequest{Location: "Delhi", Urgency: "asap"}, "Invalid request data", []string{"urgency"}},
		{"negative budget", models.MatchRequest{Location: "Delhi", Budget: floatPtr(-1)}, "Invalid request data", []string{"budget"}},
		{"both", models.MatchRequest{Location: "Delhi", Urgency: "now", Budget: floatPtr(-5)}, "Invalid request data", []string{"urgency", "budget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s := NewMatchService(WithLawyerStore(store))

			_, err := s.Recommend(context.Background(), tt.req)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantMessage, ve.Message)
			var fields []string
			for _, d := range ve.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
			assert.Empty(t, store.queries, "no retrieval on invalid input")
		})
	}
}

func TestRecommend_StoreNotSet(t *testing.T) {
	_, err := NewMatchService().Recommend(context.Background(), models.MatchRequest{Location: "Delhi"})
	assert.ErrorIs(t, err, ErrLawyerStoreNotSet)
}

func TestRecommend_MatchConfig(t *testing.T) {
	store := &fakeStore{results: [][]models.LawyerDocument{nil, {
		lawyer(models.Document{"name": "x", "rating": 4.0}),
	}}}
	s := NewMatchService(WithLawyerStore(store), WithMatchConfig(config.MatchConfig{
		CandidateLimit:        10,
		DefaultFee:            750,
		FallbackAppliesBudget: true,
		RatingMode:            "sentiment",
	}))

	res, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi", Budget: floatPtr(1000)})
	require.NoError(t, err)

	assert.Equal(t, 10, store.queries[0].Limit)
	assert.NotNil(t, store.queries[1].MaxFee)
	require.Len(t, res.Lawyers, 1)
	assert.Equal(t, 750.0, res.Lawyers[0].Fees)
	assert.Equal(t, 5.0, res.Lawyers[0].Rating)
}

func TestRecommend_RecordsMetrics(t *testing.T) {
	m := metrics.New("test")
	store := &fakeStore{results: [][]models.LawyerDocument{{
		lawyer(models.Document{"name": "ok"}),
		lawyer(models.Document{"name": "bad", "experience": "lots"}),
	}}}
	s := NewMatchService(WithLawyerStore(store), WithMetrics(m))

	_, err := s.Recommend(context.Background(), models.MatchRequest{Location: "Delhi"})
	require.NoError(t, err)
	_, err = s.Recommend(context.Background(), models.MatchRequest{})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecommendationsTotal.WithLabelValues(metrics.OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecommendationsTotal.WithLabelValues(metrics.OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LawyersExcluded))
}

func TestList_Pagination(t *testing.T) {
	var all []models.LawyerDocument
	for i := 0; i < 5; i++ {
		all = append(all, lawyer(models.Document{"name": string(rune('A' + i)), "city": "Goa"}))
	}
	all = append(all, lawyer(models.Document{"name": "broken", "Total_cases": "n/a"}))

	store := &fakeStore{all: all, count: len(all)}
	s := NewMatchService(WithLawyerStore(store))

	res, err := s.List(context.Background(), ListRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Lawyers, 2)
	assert.Equal(t, "C", res.Lawyers[0].Name)
	assert.Equal(t, "Goa", res.Lawyers[0].Location)
	assert.Equal(t, [2]int{2, 2}, store.listed[0])

	res, err = s.List(context.Background(), ListRequest{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Lawyers, 1)
	assert.Equal(t, "E", res.Lawyers[0].Name)
}

func TestList_ClampsPageAndLimit(t *testing.T) {
	tests := []struct {
		name      string
		req       ListRequest
		wantLimit int
		wantPage  int
	}{
		{"defaults", ListRequest{}, DefaultPageSize, 1},
		{"negative page", ListRequest{Page: -3, Limit: 10}, 10, 1},
		{"limit too large", ListRequest{Page: 1, Limit: 1000}, MaxPageSize, 1},
		{"negative limit", ListRequest{Page: 1, Limit: -1}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s := NewMatchService(WithLawyerStore(store))

			res, err := s.List(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, tt.wantLimit, store.listed[0][0])
			assert.Zero(t, res.TotalPages)
			assert.NotNil(t, res.Lawyers)
		})
	}
}

func TestList_RetrievalError(t *testing.T) {
	s := NewMatchService(WithLawyerStore(&fakeStore{countErr: errors.New("down")}))
	_, err := s.List(context.Background(), ListRequest{})
	assert.True(t, IsRetrieval(err))

	s = NewMatchService(WithLawyerStore(&fakeStore{listErr: errors.New("down")}))
	_, err = s.List(context.Background(), ListRequest{})
	assert.True(t, IsRetrieval(err))
}
