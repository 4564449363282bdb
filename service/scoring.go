package service

import (
	"math"
	"sort"

	"turn2law-backend/models"

	"go.uber.org/zap"
)

// Score weights
const (
	SuccessWeight      = 40.0
	ExperiencePerYear  = 3.0
	MaxExperienceScore = 30.0
	BudgetWeight       = 20.0
)

var urgencyScores = map[models.Urgency]float64{
	models.UrgencyLow:    2.5,
	models.UrgencyMedium: 5,
	models.UrgencyHigh:   7.5,
	models.UrgencyUrgent: 10,
}

// Criteria are the request inputs that affect scoring
type Criteria struct {
	Budget  *float64
	Urgency models.Urgency
}

// HasBudget reports whether the budget component applies. A zero budget
// cannot be divided by and counts as not supplied.
func (c Criteria) HasBudget() bool {
	return c.Budget != nil && *c.Budget > 0
}

// Breakdown is a match score split into its components.
// Budget and Urgency are zero when the criterion was not supplied.
type Breakdown struct {
	Success    float64
	Experience float64
	Budget     float64
	Urgency    float64
	Total      float64
}

// Score computes the match score of p for c. Components are summed and not
// renormalised when some are absent.
func Score(p models.LawyerProfile, c Criteria) Breakdown {
	var b Breakdown

	rate := 0.0
	if p.Cases.Total > 0 {
		rate = clamp(p.Cases.Successful/p.Cases.Total, 0, 1)
	}
	b.Success = rate * SuccessWeight

	b.Experience = math.Min(p.YearsOfExperience*ExperiencePerYear, MaxExperienceScore)

	if c.HasBudget() {
		ratio := 1 - p.Fee/(*c.Budget)
		b.Budget = math.Max(0, ratio*BudgetWeight)
	}

	if c.Urgency != "" {
		b.Urgency = urgencyScores[c.Urgency]
	}

	b.Total = b.Success + b.Experience + b.Budget + b.Urgency
	return b
}

type scored struct {
	profile models.LawyerProfile
	score   Breakdown
}

// Rank normalises, scores and orders docs by descending score. Documents
// that fail normalisation are left out; the number dropped is returned.
// Equal scores keep their retrieval order.
func Rank(docs []models.LawyerDocument, c Criteria, opts models.NormalizeOptions) ([]models.MatchResult, int) {
	candidates := make([]scored, 0, len(docs))
	excluded := 0

	for _, doc := range docs {
		p, err := models.NormalizeLawyer(doc, opts)
		if err != nil {
			excluded++
			zap.L().Warn("lawyers: excluding record",
				zap.String("lawyer_id", doc.ID.String()),
				zap.Error(err),
			)
			continue
		}
		b := Score(p, c)
		zap.L().Debug("lawyers: scored",
			zap.String("lawyer_id", p.ID.String()),
			zap.Float64("success", b.Success),
			zap.Float64("experience", b.Experience),
			zap.Float64("budget", b.Budget),
			zap.Float64("urgency", b.Urgency),
			zap.Float64("total", b.Total),
		)
		candidates = append(candidates, scored{profile: p, score: b})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score.Total > candidates[j].score.Total
	})

	results := make([]models.MatchResult, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, toMatchResult(cand.profile, cand.score.Total))
	}
	return results, excluded
}

func toMatchResult(p models.LawyerProfile, score float64) models.MatchResult {
	return models.MatchResult{
		ID:             p.ID,
		Name:           p.Name,
		Specialization: p.Specialization,
		FirmName:       p.FirmName,
		Experience:     p.YearsOfExperience,
		Location:       p.Location,
		Fees:           p.Fee,
		Cases:          p.Cases,
		Rating:         round2(p.Rating),
		MatchScore:     round2(score),
		Contact:        p.Phone,
		Email:          p.Email,
		Languages:      p.Languages,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
