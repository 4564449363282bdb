package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"turn2law-backend/models"
	"turn2law-backend/storage"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ExportPageSize is the number of rows read per query during export
const ExportPageSize = 500

// DatasetStore is the document storage datasets are imported into and exported from
type DatasetStore interface {
	Insert(ctx context.Context, docs []models.LawyerDocument) (int64, error)
	List(ctx context.Context, limit, offset int) ([]models.LawyerDocument, error)
}

// DatasetService moves lawyer datasets between object storage and the lawyer table
type DatasetService struct {
	storage storage.Storage
	store   DatasetStore
	now     func() time.Time
}

// DatasetServiceOption is a functional option for DatasetService
type DatasetServiceOption func(*DatasetService)

// WithDatasetStorage sets the object storage datasets are kept in
func WithDatasetStorage(s storage.Storage) DatasetServiceOption {
	return func(d *DatasetService) {
		d.storage = s
	}
}

// WithDatasetStore sets the lawyer document store
func WithDatasetStore(s DatasetStore) DatasetServiceOption {
	return func(d *DatasetService) {
		d.store = s
	}
}

// WithClock overrides the clock used for dataset keys
func WithClock(now func() time.Time) DatasetServiceOption {
	return func(d *DatasetService) {
		d.now = now
	}
}

// NewDatasetService creates a new dataset service
func NewDatasetService(opts ...DatasetServiceOption) *DatasetService {
	d := &DatasetService{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ImportResult reports where an uploaded dataset was archived and how many records were stored
type ImportResult struct {
	Key      string `json:"key"`
	Imported int64  `json:"imported"`
}

// Import archives the dataset in r under a new key and inserts its records.
// The archived copy is removed again when the insert fails.
func (d *DatasetService) Import(ctx context.Context, name string, r io.Reader) (*ImportResult, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "datasets: read upload")
	}

	docs, err := parseDataset(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	key := storage.DatasetKey(name, d.now())
	if err := d.storage.Upload(ctx, key, bytes.NewReader(raw)); err != nil {
		return nil, eris.Wrap(err, "datasets: archive upload")
	}

	n, err := d.store.Insert(ctx, docs)
	if err != nil {
		if delErr := d.storage.Delete(ctx, key); delErr != nil {
			zap.L().Warn("datasets: failed to remove archived dataset",
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		return nil, &RetrievalError{Op: "insert", Err: err}
	}

	zap.L().Info("datasets: imported", zap.String("key", key), zap.Int64("rows", n))
	return &ImportResult{Key: key, Imported: n}, nil
}

// ImportKey inserts the records of a dataset already held in storage
func (d *DatasetService) ImportKey(ctx context.Context, key string) (int64, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}

	rc, err := d.storage.Download(ctx, key)
	if err != nil {
		return 0, eris.Wrapf(err, "datasets: open %s", key)
	}
	defer rc.Close()

	docs, err := parseDataset(rc)
	if err != nil {
		return 0, err
	}

	n, err := d.store.Insert(ctx, docs)
	if err != nil {
		return 0, &RetrievalError{Op: "insert", Err: err}
	}
	return n, nil
}

// ExportResult reports where an exported dataset was written
type ExportResult struct {
	Key      string `json:"key"`
	Exported int    `json:"exported"`
}

// Export writes every stored lawyer record to a new dataset in storage
func (d *DatasetService) Export(ctx context.Context, name string) (*ExportResult, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}

	var all []models.LawyerDocument
	for offset := 0; ; offset += ExportPageSize {
		page, err := d.store.List(ctx, ExportPageSize, offset)
		if err != nil {
			return nil, &RetrievalError{Op: "list", Err: err}
		}
		all = append(all, page...)
		if len(page) < ExportPageSize {
			break
		}
	}

	var buf bytes.Buffer
	if err := storage.WriteDataset(&buf, all); err != nil {
		return nil, err
	}

	key := storage.DatasetKey(name, d.now())
	if err := d.storage.Upload(ctx, key, &buf); err != nil {
		return nil, eris.Wrap(err, "datasets: upload export")
	}

	zap.L().Info("datasets: exported", zap.String("key", key), zap.Int("rows", len(all)))
	return &ExportResult{Key: key, Exported: len(all)}, nil
}

// Open returns the raw content of a stored dataset
func (d *DatasetService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if d.storage == nil {
		return nil, ErrDatasetStorageNotSet
	}
	return d.storage.Download(ctx, key)
}

func (d *DatasetService) ready() error {
	if d.storage == nil {
		return ErrDatasetStorageNotSet
	}
	if d.store == nil {
		return ErrLawyerStoreNotSet
	}
	return nil
}

// parseDataset decodes a dataset, reporting malformed or empty input as a validation error
func parseDataset(r io.Reader) ([]models.LawyerDocument, error) {
	docs, err := storage.ReadDataset(r)
	if err != nil {
		return nil, &ValidationError{
			Message: "Invalid dataset",
			Details: []FieldError{{Field: "file", Message: "must be a JSON array of lawyer records"}},
		}
	}
	if len(docs) == 0 {
		return nil, &ValidationError{
			Message: "Invalid dataset",
			Details: []FieldError{{Field: "file", Message: "contains no records"}},
		}
	}
	return docs, nil
}
