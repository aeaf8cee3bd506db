package models

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/docref/docref.go/internal/codec"
)

// CustomCBORTag is a CBOR tag number used for the store's extended types.
type CustomCBORTag uint64

const (
	TagNone           CustomCBORTag = 6
	TagTableName      CustomCBORTag = 7
	TagRecordID       CustomCBORTag = 8
	TagCustomDatetime CustomCBORTag = 12
	TagBinaryUUID     CustomCBORTag = 37
	TagGeometryPoint  CustomCBORTag = 88
)

var (
	cborEncMode = newCborEncMode()
	cborDecMode = newCborDecMode()
)

func newCborEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time:    cbor.TimeRFC3339,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func newCborDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		TimeTagToAny:   cbor.TimeTagToTime,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// CborMarshaler is the default marshaler used by the DB handle. All
// extended types in this package carry their own tagged CBOR encodings.
type CborMarshaler struct{}

func (c CborMarshaler) Marshal(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func (c CborMarshaler) NewEncoder(w io.Writer) codec.Encoder {
	return cborEncMode.NewEncoder(w)
}

type CborUnmarshaler struct{}

func (c CborUnmarshaler) Unmarshal(data []byte, dst any) error {
	return cborDecMode.Unmarshal(data, dst)
}

func (c CborUnmarshaler) NewDecoder(r io.Reader) codec.Decoder {
	return cborDecMode.NewDecoder(r)
}
