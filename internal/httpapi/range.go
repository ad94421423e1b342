package httpapi

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidRange means the requested range starts beyond the end of the
// file and cannot be satisfied (HTTP 416).
var ErrInvalidRange = errors.New("invalid range")

type byteRange struct {
	start int64
	end   int64
}

func (r byteRange) length() int64 {
	return r.end - r.start + 1
}

// parseRange parses a single "bytes=start-end" header against the file
// size. It returns nil for an absent or malformed header (the caller then
// serves the whole file, per RFC 9110's ignore-on-invalid rule) and
// ErrInvalidRange when start lies beyond the last byte. Multi-range
// requests are not supported; only the single-range form is recognized.
func parseRange(header string, size int64) (*byteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, nil
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, nil
	}
	if start >= size {
		return nil, ErrInvalidRange
	}

	end := size - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return nil, nil
		}
		if end >= size {
			end = size - 1
		}
	}

	return &byteRange{start: start, end: end}, nil
}
