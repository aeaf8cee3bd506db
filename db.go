package docref

import (
	"context"
	"os"

	"github.com/docref/docref.go/internal/codec"
	"github.com/docref/docref.go/pkg/logger"
	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
)

// DB couples a store driver with a codec and a logger. All record
// operations are package-level generic functions taking a DB, so the
// result type can be chosen per call.
type DB struct {
	driver      store.Driver
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger
}

type Option func(*DB)

func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// WithCodec swaps the default CBOR codec for both directions at once.
// Mixing codecs between writes and queries breaks the byte-equality
// contract of QueryByField, so they travel together.
func WithCodec(m codec.Marshaler, u codec.Unmarshaler) Option {
	return func(db *DB) {
		db.marshaler = m
		db.unmarshaler = u
	}
}

func New(driver store.Driver, opts ...Option) *DB {
	db := &DB{
		driver:      driver,
		marshaler:   models.CborMarshaler{},
		unmarshaler: models.CborUnmarshaler{},
		logger:      logger.New(os.Stderr),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *DB) Close() error {
	return db.driver.Close()
}

// Create inserts data under id and returns the stored record decoded as
// T. Specify struct{} as the type parameter to discard the result.
func Create[T any](ctx context.Context, db *DB, id models.RecordID, data any) (*T, error) {
	payload, err := db.marshaler.Marshal(data)
	if err != nil {
		return nil, err
	}

	if err := db.driver.Insert(ctx, id, payload); err != nil {
		return nil, err
	}
	db.logger.Debug("record created", "id", id.String())

	var created T
	if err := db.unmarshaler.Unmarshal(payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Select loads the record stored under id. Absence surfaces as an error
// wrapping store.ErrNotFound.
func Select[T any](ctx context.Context, db *DB, id models.RecordID) (*T, error) {
	data, err := db.driver.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var record T
	if err := db.unmarshaler.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Update replaces the record stored under id and returns the stored
// record decoded as T.
func Update[T any](ctx context.Context, db *DB, id models.RecordID, data any) (*T, error) {
	payload, err := db.marshaler.Marshal(data)
	if err != nil {
		return nil, err
	}

	if err := db.driver.Update(ctx, id, payload); err != nil {
		return nil, err
	}
	db.logger.Debug("record updated", "id", id.String())

	var updated T
	if err := db.unmarshaler.Unmarshal(payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func Delete(ctx context.Context, db *DB, id models.RecordID) error {
	if err := db.driver.Delete(ctx, id); err != nil {
		return err
	}
	db.logger.Debug("record deleted", "id", id.String())
	return nil
}

// SelectByRef returns every record in table whose reference field
// points at id. The lookup always goes to the store: per-field
// reference caches are invisible to it.
func SelectByRef[T any](ctx context.Context, db *DB, table, field string, id models.RecordID) ([]T, error) {
	value, err := db.marshaler.Marshal(id)
	if err != nil {
		return nil, err
	}

	docs, err := db.driver.QueryByField(ctx, table, field, value)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(docs))
	for _, doc := range docs {
		var record T
		if err := db.unmarshaler.Unmarshal(doc, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
