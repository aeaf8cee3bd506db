package models

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CustomDateTime embeds time.Time and encodes as a compact
// [seconds, nanoseconds] pair under its own tag. The zero value encodes
// as None so optional timestamps round-trip cleanly.
type CustomDateTime struct {
	time.Time
}

func (d CustomDateTime) MarshalCBOR() ([]byte, error) {
	if d.Time.IsZero() {
		return cborEncMode.Marshal(cbor.Tag{Number: uint64(TagNone)})
	}

	totalNS := d.UnixNano()
	s := totalNS / int64(time.Second)
	ns := totalNS % int64(time.Second)

	return cborEncMode.Marshal(cbor.Tag{
		Number:  uint64(TagCustomDatetime),
		Content: [2]int64{s, ns},
	})
}

func (d *CustomDateTime) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cborDecMode.Unmarshal(data, &tag); err != nil {
		return err
	}

	if tag.Number == uint64(TagNone) {
		*d = CustomDateTime{}
		return nil
	}

	if tag.Number != uint64(TagCustomDatetime) {
		return fmt.Errorf("unexpected tag number: got %d, want %d", tag.Number, TagCustomDatetime)
	}

	var temp [2]int64
	if err := cborDecMode.Unmarshal(tag.Content, &temp); err != nil {
		return err
	}

	*d = CustomDateTime{time.Unix(temp[0], temp[1])}
	return nil
}

func (d *CustomDateTime) IsZero() bool {
	return d == nil || d.Time.IsZero()
}

func (d *CustomDateTime) String() string {
	return d.UTC().Format(time.RFC3339)
}
