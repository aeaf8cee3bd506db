package models

import (
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/docref/docref.go/internal/rand"
)

const randomIDLength = 20

// RecordID identifies a record as a pair of collection (table) name and
// an identifier unique within that collection. The identifier may be a
// string or an integer.
type RecordID struct {
	Table string
	ID    any
}

func NewRecordID(table string, id any) RecordID {
	return RecordID{Table: table, ID: id}
}

// NewRandomRecordID returns a RecordID in the given table with a random
// string identifier.
func NewRandomRecordID(table string) RecordID {
	return RecordID{Table: table, ID: rand.String(randomIDLength)}
}

// ParseRecordID parses a "table:identifier" string.
func ParseRecordID(idStr string) (*RecordID, error) {
	table, id, found := strings.Cut(idStr, ":")
	if !found || table == "" || id == "" {
		return nil, fmt.Errorf("invalid record id %q: expected format is 'table:identifier'", idStr)
	}
	return &RecordID{Table: table, ID: id}, nil
}

func (r RecordID) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(cbor.Tag{
		Number:  uint64(TagRecordID),
		Content: []any{r.Table, r.ID},
	})
}

func (r *RecordID) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cborDecMode.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Number != uint64(TagRecordID) {
		return fmt.Errorf("unexpected tag number: got %d, want %d", tag.Number, TagRecordID)
	}

	var parts []any
	if err := cborDecMode.Unmarshal(tag.Content, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("record id content has %d elements, want 2", len(parts))
	}

	table, ok := parts[0].(string)
	if !ok {
		return fmt.Errorf("record id table is %T, want string", parts[0])
	}

	r.Table = table
	r.ID = parts[1]
	return nil
}

func (r *RecordID) String() string {
	return fmt.Sprintf("%s:%v", r.Table, r.ID)
}
