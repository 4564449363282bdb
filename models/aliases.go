package models

import "strings"

// FieldPath addresses a possibly nested field of a Document, e.g. {"Address", "City"}
type FieldPath []string

func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// RatingScale records what scale a rating field was captured on
type RatingScale int

const (
	// ScaleSentiment values are sentiment scores in [-1, 1]
	ScaleSentiment RatingScale = iota
	// ScaleStars values are already star ratings in [0, 5]
	ScaleStars
)

// RatingAlias is a rating field together with its provenance
type RatingAlias struct {
	Path  FieldPath
	Scale RatingScale
}

// Alias chains for every canonical field. The first alias that resolves wins.
// Lawyer records were imported from several datasets over time, so the same
// logical field appears under several spellings.
var (
	NameAliases = []FieldPath{
		{"Lawyer_name"}, {"lawyer_name"}, {"name"}, {"Name"},
	}

	SpecializationAliases = []FieldPath{
		{"Practice_area"}, {"practice_area"}, {"specialization"}, {"Specialization"},
	}

	FirmNameAliases = []FieldPath{
		{"Firm_name"}, {"firm_name"}, {"firm"}, {"Firm"},
	}

	ExperienceAliases = []FieldPath{
		{"Years_of_Experience"}, {"years_of_experience"}, {"experience"}, {"Experience"},
	}

	FeeAliases = []FieldPath{
		{"Nominal_fees_per_hearing"}, {"nominal_fees_per_hearing"}, {"fees"}, {"Fees"}, {"hourlyRate"},
	}

	TotalCasesAliases = []FieldPath{
		{"Total_cases"}, {"total_cases"}, {"cases_handled"},
	}

	SuccessfulCasesAliases = []FieldPath{
		{"Successful_cases"}, {"successful_cases"},
	}

	PhoneAliases = []FieldPath{
		{"contact"}, {"Contact"}, {"phone"}, {"Phone"},
	}

	EmailAliases = []FieldPath{
		{"email"}, {"Email"},
	}

	LanguageAliases = []FieldPath{
		{"languages"}, {"Languages"},
	}

	// DisplayLocationAliases hold a complete location string
	DisplayLocationAliases = []FieldPath{
		{"Location"}, {"location"},
	}

	// LocationSearchAliases are every field a location term is matched against
	LocationSearchAliases = []FieldPath{
		{"Location"}, {"location"},
		{"city"}, {"City"},
		{"state"}, {"State"},
		{"Address", "City"}, {"Address", "State"},
		{"address"}, {"Address"},
	}

	RatingAliases = []RatingAlias{
		{Path: FieldPath{"sentiment_score"}, Scale: ScaleSentiment},
		{Path: FieldPath{"Sentiment_score"}, Scale: ScaleSentiment},
		{Path: FieldPath{"rating"}, Scale: ScaleStars},
		{Path: FieldPath{"Rating"}, Scale: ScaleStars},
		{Path: FieldPath{"ratings", "average"}, Scale: ScaleStars},
	}
)

// Lookup walks path through nested objects. A null value counts as absent.
func (d Document) Lookup(path FieldPath) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(d)
	for _, key := range path {
		var obj map[string]interface{}
		switch m := cur.(type) {
		case map[string]interface{}:
			obj = m
		case Document:
			obj = m
		default:
			return nil, false
		}
		v, ok := obj[key]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
