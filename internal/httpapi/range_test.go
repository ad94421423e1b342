package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name      string
		header    string
		wantStart int64
		wantEnd   int64
	}{
		{name: "explicit range", header: "bytes=0-99", wantStart: 0, wantEnd: 99},
		{name: "open ended defaults to last byte", header: "bytes=500-", wantStart: 500, wantEnd: 999},
		{name: "end clamped to file size", header: "bytes=900-5000", wantStart: 900, wantEnd: 999},
		{name: "single byte", header: "bytes=999-999", wantStart: 999, wantEnd: 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseRange(tt.header, size)
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, tt.wantStart, r.start)
			assert.Equal(t, tt.wantEnd, r.end)
			assert.Equal(t, tt.wantEnd-tt.wantStart+1, r.length())
		})
	}
}

func TestParseRangeIgnored(t *testing.T) {
	// Absent or malformed headers mean "serve the whole file".
	tests := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "not bytes unit", header: "items=0-5"},
		{name: "multi-range unsupported", header: "bytes=0-5,10-15"},
		{name: "missing dash", header: "bytes=5"},
		{name: "suffix form unsupported", header: "bytes=-500"},
		{name: "end before start", header: "bytes=50-10"},
		{name: "negative start", header: "bytes=-1-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseRange(tt.header, 1000)
			require.NoError(t, err)
			assert.Nil(t, r)
		})
	}
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	_, err := parseRange("bytes=1000-", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = parseRange("bytes=99999-", 1000)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
