package docref

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/docref/docref.go/pkg/models"
	"github.com/docref/docref.go/pkg/store"
)

// Ref is a reference field: its persisted value is another record's id,
// and the referenced record is fetched on demand. The first successful
// Resolve populates an in-memory cache that every later Resolve returns
// without touching the store, until Set replaces the id or the owning
// record is decoded afresh. The cached target is a read-mostly
// snapshot; writes made through other paths do not update it.
//
// A Ref instance is meant to be owned by one goroutine at a time.
// Callers that share one must serialize Set and Resolve themselves.
// Distinct instances referencing the same target cache independently.
//
// The zero value is an empty reference.
type Ref[T any] struct {
	id *models.RecordID

	// raw holds the persisted value when it could not be decoded as a
	// record id. Kept so Resolve can report the mismatch instead of
	// silently coercing.
	raw cbor.RawMessage

	target *T
}

// NewRef returns a reference pointing at id, unresolved.
func NewRef[T any](id models.RecordID) Ref[T] {
	return Ref[T]{id: &id}
}

// ID returns the stored id, or nil for an empty reference.
func (r *Ref[T]) ID() *models.RecordID {
	return r.id
}

// IsResolved reports whether the target is currently cached.
func (r *Ref[T]) IsResolved() bool {
	return r.target != nil
}

// Set replaces the stored id, nil clearing it, and drops the cached
// target unconditionally. Even when id equals the previous value, the
// next Resolve goes back to the store. Set never writes to the store;
// persisting the owning record is the caller's business.
func (r *Ref[T]) Set(id *models.RecordID) {
	r.id = id
	r.raw = nil
	r.target = nil
}

// Resolve returns the referenced record.
//
// A cached target is returned as is, with no store access. An empty
// reference resolves to (nil, nil), also without store access.
// Otherwise Resolve issues exactly one lookup: if the target exists it
// is decoded, cached and returned; if not, Resolve returns (nil, nil)
// and caches nothing, so a target created later is found by the next
// call. Transport failures surface wrapping store.ErrUnavailable and
// are not retried. A persisted value that is not a record id surfaces
// as ErrTypeMismatch.
func (r *Ref[T]) Resolve(ctx context.Context, db *DB) (*T, error) {
	if r.target != nil {
		return r.target, nil
	}
	if r.raw != nil {
		return nil, fmt.Errorf("resolve reference: %w", ErrTypeMismatch)
	}
	if r.id == nil {
		return nil, nil
	}

	data, err := db.driver.FindByID(ctx, *r.id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", r.id, err)
	}

	var target T
	if err := db.unmarshaler.Unmarshal(data, &target); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", r.id, err)
	}

	r.target = &target
	return r.target, nil
}

const (
	cborNull      = 0xf6
	cborUndefined = 0xf7
)

// MarshalCBOR persists the reference as its record id, or null when
// empty. A value kept verbatim after a failed decode is written back
// unchanged. The cached target never leaves the process.
func (r Ref[T]) MarshalCBOR() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	if r.id == nil {
		return []byte{cborNull}, nil
	}
	return r.id.MarshalCBOR()
}

// UnmarshalCBOR rebuilds the reference from a persisted value with an
// empty cache. A value that is not a record id is retained verbatim and
// reported by Resolve as ErrTypeMismatch.
func (r *Ref[T]) UnmarshalCBOR(data []byte) error {
	r.id = nil
	r.raw = nil
	r.target = nil

	if len(data) == 1 && (data[0] == cborNull || data[0] == cborUndefined) {
		return nil
	}

	var id models.RecordID
	if err := cbor.Unmarshal(data, &id); err != nil {
		r.raw = append(cbor.RawMessage(nil), data...)
		return nil
	}

	r.id = &id
	return nil
}
