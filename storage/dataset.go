package storage

import (
	"encoding/json"
	"io"

	"turn2law-backend/models"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// idField carries the document id inside an exported record
const idField = "_id"

// ReadDataset decodes a JSON array of lawyer records. A record's "_id" is
// used as its ID when it is a UUID; otherwise a new one is assigned on insert.
func ReadDataset(r io.Reader) ([]models.LawyerDocument, error) {
	var raw []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "storage: decode dataset")
	}

	docs := make([]models.LawyerDocument, 0, len(raw))
	for _, fields := range raw {
		var doc models.LawyerDocument
		if s, ok := fields[idField].(string); ok {
			if id, err := uuid.Parse(s); err == nil {
				doc.ID = id
			}
		}
		delete(fields, idField)
		doc.Doc = models.Document(fields)
		docs = append(docs, doc)
	}
	return docs, nil
}

// WriteDataset encodes docs as a JSON array with each record's id under "_id"
func WriteDataset(w io.Writer, docs []models.LawyerDocument) error {
	out := make([]map[string]interface{}, 0, len(docs))
	for _, d := range docs {
		rec := make(map[string]interface{}, len(d.Doc)+1)
		for k, v := range d.Doc {
			rec[k] = v
		}
		rec[idField] = d.ID.String()
		out = append(out, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return eris.Wrap(err, "storage: encode dataset")
	}
	return nil
}
