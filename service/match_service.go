package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"turn2law-backend/config"
	"turn2law-backend/metrics"
	"turn2law-backend/models"
	"turn2law-backend/repository"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCandidateLimit caps how many documents one request ranks
const DefaultCandidateLimit = 50

// FallbackBudgetPolicy decides whether the broadened location search keeps
// the budget filter.
type FallbackBudgetPolicy int

const (
	// FallbackIgnoresBudget drops the budget filter on the broadened search
	FallbackIgnoresBudget FallbackBudgetPolicy = iota
	// FallbackAppliesBudget keeps the budget filter on the broadened search
	FallbackAppliesBudget
)

func (p FallbackBudgetPolicy) String() string {
	if p == FallbackAppliesBudget {
		return "applies_budget"
	}
	return "ignores_budget"
}

// LawyerStore is the document storage the match service reads from
type LawyerStore interface {
	Find(ctx context.Context, q repository.LawyerQuery) ([]models.LawyerDocument, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]models.LawyerDocument, error)
}

// MatchService handles lawyer recommendation and listing
type MatchService struct {
	store          LawyerStore
	candidateLimit int
	normalize      models.NormalizeOptions
	fallbackBudget FallbackBudgetPolicy
	metrics        *metrics.Metrics
}

// MatchServiceOption is a functional option for MatchService
type MatchServiceOption func(*MatchService)

// WithLawyerStore sets the lawyer store
func WithLawyerStore(store LawyerStore) MatchServiceOption {
	return func(s *MatchService) {
		s.store = store
	}
}

// WithCandidateLimit sets the maximum number of candidates ranked per request
func WithCandidateLimit(n int) MatchServiceOption {
	return func(s *MatchService) {
		if n > 0 {
			s.candidateLimit = n
		}
	}
}

// WithNormalizeOptions sets the defaults used when resolving lawyer fields
func WithNormalizeOptions(opts models.NormalizeOptions) MatchServiceOption {
	return func(s *MatchService) {
		s.normalize = opts
	}
}

// WithFallbackBudgetPolicy sets the budget behaviour of the broadened search
func WithFallbackBudgetPolicy(p FallbackBudgetPolicy) MatchServiceOption {
	return func(s *MatchService) {
		s.fallbackBudget = p
	}
}

// WithMatchConfig applies the match section of the application config
func WithMatchConfig(cfg config.MatchConfig) MatchServiceOption {
	return func(s *MatchService) {
		if cfg.CandidateLimit > 0 {
			s.candidateLimit = cfg.CandidateLimit
		}
		s.normalize = models.NormalizeOptions{
			DefaultFee: cfg.DefaultFee,
			RatingMode: models.RatingMode(cfg.RatingMode),
		}
		s.fallbackBudget = FallbackIgnoresBudget
		if cfg.FallbackAppliesBudget {
			s.fallbackBudget = FallbackAppliesBudget
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.Metrics) MatchServiceOption {
	return func(s *MatchService) {
		s.metrics = m
	}
}

// NewMatchService creates a new match service
func NewMatchService(opts ...MatchServiceOption) *MatchService {
	s := &MatchService{
		candidateLimit: DefaultCandidateLimit,
		normalize:      models.DefaultNormalizeOptions(),
		fallbackBudget: FallbackIgnoresBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecommendResult is a ranked recommendation. An empty Lawyers slice with a
// nil error is a valid "no matches" answer.
type RecommendResult struct {
	Lawyers   []models.MatchResult `json:"lawyers"`
	Total     int                  `json:"total"`
	Message   string               `json:"message"`
	Broadened bool                 `json:"-"`
}

// Recommend retrieves lawyers near req.Location and ranks them by match score
func (s *MatchService) Recommend(ctx context.Context, req models.MatchRequest) (result *RecommendResult, err error) {
	start := time.Now()
	candidates := -1
	defer func() {
		s.metrics.ObserveRecommendation(outcome(result, err), candidates, time.Since(start))
	}()

	if s.store == nil {
		return nil, ErrLawyerStoreNotSet
	}

	term, err := validate(req)
	if err != nil {
		return nil, err
	}

	criteria := Criteria{Budget: req.Budget, Urgency: req.Urgency}
	var maxFee *float64
	if criteria.HasBudget() {
		maxFee = criteria.Budget
	}

	docs, err := s.store.Find(ctx, repository.LawyerQuery{
		Term:   term,
		Mode:   repository.MatchRegex,
		MaxFee: maxFee,
		Limit:  s.candidateLimit,
	})
	if err != nil {
		zap.L().Error("lawyers: primary search failed", zap.String("term", term), zap.Error(err))
		return nil, &RetrievalError{Op: "find", Err: err}
	}

	broadened := false
	if len(docs) == 0 {
		q := repository.LawyerQuery{
			Term:  term,
			Mode:  repository.MatchContains,
			Limit: s.candidateLimit,
		}
		if s.fallbackBudget == FallbackAppliesBudget {
			q.MaxFee = maxFee
		}
		zap.L().Info("lawyers: no primary matches, broadening search",
			zap.String("term", term),
			zap.Stringer("budget_policy", s.fallbackBudget),
		)

		docs, err = s.store.Find(ctx, q)
		if err != nil {
			zap.L().Error("lawyers: broadened search failed", zap.String("term", term), zap.Error(err))
			return nil, &RetrievalError{Op: "find broadened", Err: err}
		}
		broadened = true
	}
	candidates = len(docs)

	lawyers, excluded := Rank(docs, criteria, s.normalize)
	s.metrics.ObserveExcluded(excluded)

	zap.L().Info("lawyers: recommendation ranked",
		zap.String("location", req.Location),
		zap.String("term", term),
		zap.Int("candidates", len(docs)),
		zap.Int("excluded", excluded),
		zap.Int("returned", len(lawyers)),
		zap.Bool("broadened", broadened),
	)

	result = &RecommendResult{
		Lawyers:   lawyers,
		Total:     len(lawyers),
		Broadened: broadened,
	}

	switch {
	case len(lawyers) > 0 && broadened:
		result.Message = fmt.Sprintf("Found %d lawyers near %s", len(lawyers), req.Location)
	case len(lawyers) > 0:
		result.Message = fmt.Sprintf("Found %d lawyers in %s", len(lawyers), req.Location)
	default:
		result.Message = s.emptyMessage(ctx, req.Location, len(docs))
	}

	return result, nil
}

// emptyMessage explains an empty result. When nothing was retrieved at all
// the table is checked so an empty database is reported as such.
func (s *MatchService) emptyMessage(ctx context.Context, location string, retrieved int) string {
	noMatch := fmt.Sprintf("No lawyers found in %s. Please try a different location or broaden your search criteria.", location)
	if retrieved > 0 {
		return noMatch
	}

	n, err := s.store.Count(ctx)
	if err != nil {
		zap.L().Warn("lawyers: count failed", zap.Error(err))
		return noMatch
	}
	if n == 0 {
		zap.L().Warn("lawyers: database contains no lawyer records")
		return "No lawyers found in the database"
	}
	return noMatch
}

var lowerCaser = cases.Lower(language.Und)

// searchTerm lower-cases location and returns its first comma or
// whitespace separated token.
func searchTerm(location string) string {
	tokens := strings.FieldsFunc(lowerCaser.String(location), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

func validate(req models.MatchRequest) (string, error) {
	term := searchTerm(req.Location)
	if term == "" {
		return "", &ValidationError{Message: "Location is required"}
	}

	var details []FieldError
	if req.Urgency != "" && !req.Urgency.Valid() {
		details = append(details, FieldError{
			Field:   "urgency",
			Message: "must be one of low, medium, high, urgent",
		})
	}
	if req.Budget != nil && (*req.Budget < 0 || math.IsNaN(*req.Budget) || math.IsInf(*req.Budget, 0)) {
		details = append(details, FieldError{
			Field:   "budget",
			Message: "must be a non-negative number",
		})
	}
	if len(details) > 0 {
		return "", &ValidationError{Message: "Invalid request data", Details: details}
	}
	return term, nil
}

func outcome(result *RecommendResult, err error) string {
	switch {
	case err != nil && IsValidation(err):
		return metrics.OutcomeInvalid
	case err != nil:
		return metrics.OutcomeError
	case result.Total == 0:
		return metrics.OutcomeEmpty
	case result.Broadened:
		return metrics.OutcomeBroadened
	}
	return metrics.OutcomeMatched
}

// ListRequest selects a page of the lawyer directory
type ListRequest struct {
	Page  int
	Limit int
}

// ListResult is one page of the lawyer directory
type ListResult struct {
	Lawyers    []models.DirectoryEntry `json:"lawyers"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"totalPages"`
}

// Directory page bounds
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// List returns a page of lawyers without scoring. Records that cannot be
// normalised are skipped.
func (s *MatchService) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	if s.store == nil {
		return nil, ErrLawyerStoreNotSet
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 1:
		limit = 1
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, &RetrievalError{Op: "count", Err: err}
	}

	docs, err := s.store.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, &RetrievalError{Op: "list", Err: err}
	}

	entries := make([]models.DirectoryEntry, 0, len(docs))
	for _, doc := range docs {
		p, err := models.NormalizeLawyer(doc, s.normalize)
		if err != nil {
			zap.L().Warn("lawyers: skipping record in listing",
				zap.String("lawyer_id", doc.ID.String()),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, models.NewDirectoryEntry(p))
	}

	return &ListResult{
		Lawyers:    entries,
		Total:      total,
		Page:       page,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}
