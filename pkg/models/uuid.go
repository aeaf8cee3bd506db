package models

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid"
)

// UUID wraps uuid.UUID with a binary tagged CBOR encoding.
type UUID struct {
	uuid.UUID
}

// NewRandomUUID returns a random (version 4) UUID.
func NewRandomUUID() (UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return UUID{}, err
	}
	return UUID{id}, nil
}

func (u UUID) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(cbor.Tag{
		Number:  uint64(TagBinaryUUID),
		Content: u.Bytes(),
	})
}

func (u *UUID) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cborDecMode.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Number != uint64(TagBinaryUUID) {
		return fmt.Errorf("unexpected tag number: got %d, want %d", tag.Number, TagBinaryUUID)
	}

	var raw []byte
	if err := cborDecMode.Unmarshal(tag.Content, &raw); err != nil {
		return err
	}

	parsed, err := uuid.FromBytes(raw)
	if err != nil {
		return err
	}

	u.UUID = parsed
	return nil
}
