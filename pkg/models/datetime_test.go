package models

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomDateTime_cborRoundTrip(t *testing.T) {
	parsed, err := time.Parse(time.RFC3339Nano, "2023-10-01T12:00:00.5Z")
	require.NoError(t, err)

	d := CustomDateTime{Time: parsed}
	data, err := cbor.Marshal(d)
	require.NoError(t, err)

	var decoded CustomDateTime
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(parsed), "decoded %v, want %v", decoded, parsed)
}

func TestCustomDateTime_zeroEncodesAsNone(t *testing.T) {
	var d CustomDateTime
	data, err := cbor.Marshal(d)
	require.NoError(t, err)

	var decoded CustomDateTime
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.True(t, decoded.IsZero())
}
