package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"turn2law-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// MatchMode selects how a location term is compared with stored values
type MatchMode int

const (
	// MatchRegex is a case-insensitive regular expression match on the quoted term
	MatchRegex MatchMode = iota
	// MatchContains is a case-insensitive substring match
	MatchContains
)

func (m MatchMode) String() string {
	if m == MatchContains {
		return "contains"
	}
	return "regex"
}

// LawyerQuery describes one candidate lookup
type LawyerQuery struct {
	Term   string
	Mode   MatchMode
	MaxFee *float64
	Limit  int
}

// Schema creates the document table used by LawyerRepository
const Schema = `
CREATE TABLE IF NOT EXISTS lawyers (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lawyers_doc ON lawyers USING GIN (doc);
CREATE INDEX IF NOT EXISTS idx_lawyers_created_at ON lawyers (created_at);
`

// LawyerRepository reads and writes lawyer documents
type LawyerRepository struct {
	db *Database
}

// NewLawyerRepository creates a new lawyer repository
func NewLawyerRepository(db *Database) *LawyerRepository {
	return &LawyerRepository{db: db}
}

// EnsureSchema creates the lawyers table and its indexes if missing
func (r *LawyerRepository) EnsureSchema(ctx context.Context) error {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return eris.Wrap(err, "lawyers: create schema")
	}
	return nil
}

// Find returns documents whose location fields match q.Term
func (r *LawyerRepository) Find(ctx context.Context, q LawyerQuery) ([]models.LawyerDocument, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	query, args := buildFindQuery(q)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "lawyers: find %s %q", q.Mode, q.Term)
	}
	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, eris.Wrap(err, "lawyers: scan find results")
	}
	return docs, nil
}

// Count returns the number of stored documents
func (r *LawyerRepository) Count(ctx context.Context) (int, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM lawyers`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "lawyers: count")
	}
	return n, nil
}

// List returns a page of documents in insertion order
func (r *LawyerRepository) List(ctx context.Context, limit, offset int) ([]models.LawyerDocument, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, doc, created_at
		FROM lawyers
		ORDER BY created_at, id`

	var args []interface{}
	argIndex := 1

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "lawyers: list")
	}
	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, eris.Wrap(err, "lawyers: scan list results")
	}
	return docs, nil
}

// Insert bulk-loads documents with COPY. Documents without an ID get one.
func (r *LawyerRepository) Insert(ctx context.Context, docs []models.LawyerDocument) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		id := d.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		doc := d.Doc
		if doc == nil {
			doc = models.Document{}
		}
		rows = append(rows, []any{id, map[string]interface{}(doc)})
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{"lawyers"}, []string{"id", "doc"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrap(err, "lawyers: copy into lawyers")
	}
	return n, nil
}

func scanDocuments(rows pgx.Rows) ([]models.LawyerDocument, error) {
	defer rows.Close()

	var docs []models.LawyerDocument
	for rows.Next() {
		var d models.LawyerDocument
		if err := rows.Scan(&d.ID, &d.Doc, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// buildFindQuery matches the term against every location alias that holds
// a string, and when MaxFee is set requires some fee alias to be a number
// no greater than it.
func buildFindQuery(q LawyerQuery) (string, []interface{}) {
	var pattern, op string
	switch q.Mode {
	case MatchContains:
		pattern = "%" + escapeLike(q.Term) + "%"
		op = "ILIKE"
	default:
		pattern = regexp.QuoteMeta(q.Term)
		op = "~*"
	}

	args := []interface{}{pattern}
	argIndex := 2

	locations := make([]string, 0, len(models.LocationSearchAliases))
	for _, path := range models.LocationSearchAliases {
		lit := pathLiteral(path)
		locations = append(locations, fmt.Sprintf(
			"(jsonb_typeof(doc #> %s) = 'string' AND doc #>> %s %s $1)", lit, lit, op))
	}

	query := `
		SELECT id, doc, created_at
		FROM lawyers
		WHERE (` + strings.Join(locations, "\n\t\t\tOR ") + `)`

	if q.MaxFee != nil {
		fees := make([]string, 0, len(models.FeeAliases))
		for _, path := range models.FeeAliases {
			lit := pathLiteral(path)
			fees = append(fees, fmt.Sprintf(
				"CASE WHEN jsonb_typeof(doc #> %s) = 'number' THEN (doc #>> %s)::numeric <= $%d ELSE false END",
				lit, lit, argIndex))
		}
		query += "\n\t\tAND (" + strings.Join(fees, "\n\t\t\tOR ") + ")"
		args = append(args, *q.MaxFee)
		argIndex++
	}

	if q.Limit > 0 {
		query += fmt.Sprintf("\n\t\tLIMIT $%d", argIndex)
		args = append(args, q.Limit)
	}

	return query, args
}

// pathLiteral renders a field path as a Postgres text[] literal for #> and #>>.
// Paths come from the fixed alias tables, never from request input.
func pathLiteral(p models.FieldPath) string {
	return "'{" + strings.Join(p, ",") + "}'"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
