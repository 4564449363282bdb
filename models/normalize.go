package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UnknownName is shown when no name alias resolves
const UnknownName = "Name not available"

// RatingMode selects how raw rating values are mapped onto 0-5
type RatingMode string

const (
	// RatingModeProvenance converts sentiment fields and passes star fields through
	RatingModeProvenance RatingMode = "provenance"
	// RatingModeSentiment applies (raw+1)*2.5 to every rating field
	RatingModeSentiment RatingMode = "sentiment"
)

// NormalizeOptions controls defaults applied during normalization
type NormalizeOptions struct {
	DefaultFee float64
	RatingMode RatingMode
}

// DefaultNormalizeOptions returns the production defaults
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		DefaultFee: 5000,
		RatingMode: RatingModeProvenance,
	}
}

var (
	ErrNotNumeric = errors.New("value is not numeric")
	ErrNegative   = errors.New("value is negative")
)

// FormattingError reports a lawyer record that cannot be ranked
type FormattingError struct {
	LawyerID uuid.UUID
	Field    string
	Value    interface{}
	Err      error
}

func (e *FormattingError) Error() string {
	return fmt.Sprintf("lawyer %s: field %s (%v): %v", e.LawyerID, e.Field, e.Value, e.Err)
}

func (e *FormattingError) Unwrap() error {
	return e.Err
}

// NormalizeLawyer resolves every canonical field of doc through its alias chain.
// Missing optional values fall back to defaults; a numeric field whose only
// values are unusable yields a *FormattingError.
func NormalizeLawyer(doc LawyerDocument, opts NormalizeOptions) (LawyerProfile, error) {
	d := doc.Doc
	p := LawyerProfile{
		ID:             doc.ID,
		Name:           firstText(d, NameAliases),
		Specialization: firstText(d, SpecializationAliases),
		FirmName:       firstText(d, FirmNameAliases),
		Location:       displayLocation(d),
		Phone:          firstText(d, PhoneAliases),
		Email:          firstText(d, EmailAliases),
		Languages:      languages(d),
		Rating:         rating(d, opts.RatingMode),
	}
	if p.Name == "" {
		p.Name = UnknownName
	}

	experience, found, err := firstNumber(doc.ID, d, ExperienceAliases)
	if err != nil {
		return LawyerProfile{}, err
	}
	if found {
		p.YearsOfExperience = experience
	}

	fee, found, err := firstNumber(doc.ID, d, FeeAliases)
	if err != nil {
		return LawyerProfile{}, err
	}
	p.Fee = opts.DefaultFee
	if found {
		p.Fee = fee
	}

	total, found, err := firstNumber(doc.ID, d, TotalCasesAliases)
	if err != nil {
		return LawyerProfile{}, err
	}
	// zero total would divide by zero; treat it like a missing count
	if !found || total <= 0 {
		total = 1
	}

	successful, found, err := firstNumber(doc.ID, d, SuccessfulCasesAliases)
	if err != nil {
		return LawyerProfile{}, err
	}
	if !found {
		successful = total * 0.7
	}
	p.Cases = CaseStats{Total: total, Successful: successful}

	return p, nil
}

// firstNumber returns the first alias holding a usable non-negative number.
// Unusable values are skipped; if nothing usable is found but something
// unusable was, the first such value is reported.
func firstNumber(id uuid.UUID, d Document, aliases []FieldPath) (float64, bool, error) {
	var firstErr error
	for _, path := range aliases {
		raw, ok := d.Lookup(path)
		if !ok {
			continue
		}
		v, err := toNumber(raw)
		if err == nil && v < 0 {
			err = ErrNegative
		}
		if err != nil {
			if firstErr == nil {
				firstErr = &FormattingError{LawyerID: id, Field: path.String(), Value: raw, Err: err}
			}
			continue
		}
		return v, true, nil
	}
	return 0, false, firstErr
}

func toNumber(raw interface{}) (float64, error) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, ErrNotNumeric
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, ErrNotNumeric
		}
		v = f
	default:
		return 0, ErrNotNumeric
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotNumeric
	}
	return v, nil
}

func firstText(d Document, aliases []FieldPath) string {
	for _, path := range aliases {
		raw, ok := d.Lookup(path)
		if !ok {
			continue
		}
		if s := toText(raw); s != "" {
			return s
		}
	}
	return ""
}

func toText(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	}
	return ""
}

// displayLocation tries a full location string, then the Address object,
// then the flat city/state fields.
func displayLocation(d Document) string {
	if loc := firstText(d, DisplayLocationAliases); loc != "" {
		return loc
	}
	if _, ok := d.Lookup(FieldPath{"Address"}); ok {
		if loc := joinNonEmpty(
			firstText(d, []FieldPath{{"Address", "City"}}),
			firstText(d, []FieldPath{{"Address", "State"}}),
		); loc != "" {
			return loc
		}
	}
	return joinNonEmpty(
		firstText(d, []FieldPath{{"city"}, {"City"}}),
		firstText(d, []FieldPath{{"state"}, {"State"}}),
	)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func languages(d Document) []string {
	for _, path := range LanguageAliases {
		raw, ok := d.Lookup(path)
		if !ok {
			continue
		}
		var out []string
		switch v := raw.(type) {
		case []interface{}:
			for _, item := range v {
				if s := toText(item); s != "" {
					out = append(out, s)
				}
			}
		case []string:
			for _, s := range v {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		case string:
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// rating maps the first numeric rating alias onto 0-5. Records without a
// rating sit at the neutral sentiment midpoint.
func rating(d Document, mode RatingMode) float64 {
	for _, alias := range RatingAliases {
		raw, ok := d.Lookup(alias.Path)
		if !ok {
			continue
		}
		v, err := toNumber(raw)
		if err != nil {
			continue
		}
		if mode == RatingModeSentiment || alias.Scale == ScaleSentiment {
			v = (v + 1) * 2.5
		}
		return clamp(v, 0, 5)
	}
	return 2.5
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
