package models

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// GeometryPoint is a GeoJSON-style point, coordinates ordered as
// [longitude, latitude].
type GeometryPoint struct {
	Longitude float64
	Latitude  float64
}

func NewGeometryPoint(longitude, latitude float64) GeometryPoint {
	return GeometryPoint{Longitude: longitude, Latitude: latitude}
}

func (gp GeometryPoint) GetCoordinates() [2]float64 {
	return [2]float64{gp.Longitude, gp.Latitude}
}

func (gp GeometryPoint) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(cbor.Tag{
		Number:  uint64(TagGeometryPoint),
		Content: gp.GetCoordinates(),
	})
}

func (gp *GeometryPoint) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cborDecMode.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag.Number != uint64(TagGeometryPoint) {
		return fmt.Errorf("unexpected tag number: got %d, want %d", tag.Number, TagGeometryPoint)
	}

	var coords [2]float64
	if err := cborDecMode.Unmarshal(tag.Content, &coords); err != nil {
		return err
	}

	gp.Longitude = coords[0]
	gp.Latitude = coords[1]
	return nil
}

type GeometryLine []GeometryPoint

type GeometryPolygon []GeometryLine
