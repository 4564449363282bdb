package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is a raw lawyer record as stored in the JSONB doc column.
// Field names are inconsistent across imports; see aliases.go.
type Document map[string]interface{}

// Value implements driver.Valuer for JSONB
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = make(Document)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case Document:
		*d = v
		return nil
	case map[string]interface{}:
		*d = Document(v)
		return nil
	default:
		return fmt.Errorf("unsupported document type %T", value)
	}

	if len(bytes) == 0 {
		*d = make(Document)
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// LawyerDocument is one row of the lawyers table
type LawyerDocument struct {
	ID        uuid.UUID `json:"_id"`
	Doc       Document  `json:"doc"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseStats holds resolved case counts
type CaseStats struct {
	Total      float64 `json:"total"`
	Successful float64 `json:"successful"`
}

// LawyerProfile is the canonical, resolved view of a lawyer document.
// The engine reads it and never writes back to storage.
type LawyerProfile struct {
	ID                uuid.UUID
	Name              string
	Specialization    string
	FirmName          string
	Location          string
	YearsOfExperience float64
	Fee               float64
	Cases             CaseStats
	Rating            float64 // 0-5
	Phone             string
	Email             string
	Languages         []string
}

// Urgency is the client's stated urgency for a consultation
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// Valid reports whether u is one of the known urgency levels
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// MatchRequest is the input of a recommendation request
type MatchRequest struct {
	Location          string   `json:"location"`
	PreferredLanguage string   `json:"preferredLanguage,omitempty"`
	Urgency           Urgency  `json:"urgency,omitempty"`
	Budget            *float64 `json:"budget,omitempty"`
}

// MatchResult is one ranked lawyer in a recommendation response
type MatchResult struct {
	ID             uuid.UUID `json:"_id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization,omitempty"`
	FirmName       string    `json:"firmName,omitempty"`
	Experience     float64   `json:"experience"`
	Location       string    `json:"location"`
	Fees           float64   `json:"fees"`
	Cases          CaseStats `json:"cases"`
	Rating         float64   `json:"rating"`
	MatchScore     float64   `json:"matchScore"`
	Contact        string    `json:"contact,omitempty"`
	Email          string    `json:"email,omitempty"`
	Languages      []string  `json:"languages,omitempty"`
}

// DirectoryEntry is a lawyer as shown in the unscored directory listing
type DirectoryEntry struct {
	ID             uuid.UUID `json:"_id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization,omitempty"`
	Location       string    `json:"location"`
	Experience     float64   `json:"experience"`
	Fees           float64   `json:"fees"`
	Contact        string    `json:"contact,omitempty"`
	Email          string    `json:"email,omitempty"`
}

// NewDirectoryEntry builds the listing view of a profile
func NewDirectoryEntry(p LawyerProfile) DirectoryEntry {
	return DirectoryEntry{
		ID:             p.ID,
		Name:           p.Name,
		Specialization: p.Specialization,
		Location:       p.Location,
		Experience:     p.YearsOfExperience,
		Fees:           p.Fee,
		Contact:        p.Phone,
		Email:          p.Email,
	}
}
