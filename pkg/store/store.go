// Package store defines the contract between the DB handle and the
// backends that persist records. Drivers move opaque CBOR documents;
// they never interpret field values beyond what QueryByField needs.
package store

import (
	"context"

	"github.com/docref/docref.go/pkg/models"
)

// Driver is the lookup and mutation surface a backend must provide.
//
// FindByID returns the document stored under id, or an error wrapping
// ErrNotFound. QueryByField returns the documents in table whose
// top-level field equals value, where value is the CBOR encoding
// produced by the caller's marshaler; it always consults the backend
// and is not subject to any reference cache.
type Driver interface {
	Insert(ctx context.Context, id models.RecordID, data []byte) error
	Update(ctx context.Context, id models.RecordID, data []byte) error
	Delete(ctx context.Context, id models.RecordID) error
	FindByID(ctx context.Context, id models.RecordID) ([]byte, error)
	QueryByField(ctx context.Context, table, field string, value []byte) ([][]byte, error)
	Close() error
}
