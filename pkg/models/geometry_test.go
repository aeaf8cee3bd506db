package models

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryPoint_cborRoundTrip(t *testing.T) {
	point := NewGeometryPoint(-0.1276, 51.5072)

	data, err := cbor.Marshal(point)
	require.NoError(t, err)

	var decoded GeometryPoint
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, point, decoded)
	assert.Equal(t, [2]float64{-0.1276, 51.5072}, decoded.GetCoordinates())
}

func TestGeometryLine_roundTrip(t *testing.T) {
	line := GeometryLine{
		NewGeometryPoint(0, 0),
		NewGeometryPoint(1, 1),
	}

	data, err := cbor.Marshal(line)
	require.NoError(t, err)

	var decoded GeometryLine
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, line, decoded)
}
