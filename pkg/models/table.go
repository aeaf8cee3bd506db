package models

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Table is a collection name. It carries its own CBOR tag so stores can
// tell a table name apart from a plain string.
type Table string

func (t Table) String() string {
	return string(t)
}

func (t Table) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(cbor.Tag{
		Number:  uint64(TagTableName),
		Content: string(t),
	})
}

func (t *Table) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cborDecMode.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Number != uint64(TagTableName) {
		return fmt.Errorf("unexpected tag number: got %d, want %d", tag.Number, TagTableName)
	}

	var name string
	if err := cborDecMode.Unmarshal(tag.Content, &name); err != nil {
		return err
	}

	*t = Table(name)
	return nil
}
