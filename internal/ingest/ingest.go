// Package ingest decodes rank observation streams.
//
// Two line-oriented formats are supported:
//   - CSV: one "rank,nsize" record per line, '#' comments allowed
//   - JSONL: one {"rank": R, "nsize": N} object per line
//
// Both carry the same payload: the 0-based insertion rank of an observation
// and the sample size it was ranked against.
package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownFormat is returned when a format cannot be determined.
var ErrUnknownFormat = errors.New("unknown rank stream format")

// Observation is one decoded rank record.
type Observation struct {
	// Rank is the 0-based insertion rank.
	Rank int `json:"rank"`

	// NSize is the sample size the rank was computed against.
	NSize int `json:"nsize"`
}

// Format identifies a rank stream encoding.
type Format int

const (
	// FormatAuto selects the format from the file extension.
	FormatAuto Format = iota
	// FormatCSV reads "rank,nsize" records.
	FormatCSV
	// FormatJSONL reads one JSON object per line.
	FormatJSONL
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSONL:
		return "jsonl"
	default:
		return "auto"
	}
}

// ParseFormat maps a config/CLI format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// DetectFormat picks a format from a file extension. Unrecognized
// extensions default to CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatCSV
	}
}

// Reader decodes observations one at a time from an underlying stream.
type Reader struct {
	format Format
	csv    *csv.Reader
	scan   *bufio.Scanner
	line   int
}

// NewReader wraps r with a decoder for the given format. FormatAuto is not
// valid here; resolve it with DetectFormat first.
func NewReader(r io.Reader, format Format) (*Reader, error) {
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.Comment = '#'
		cr.FieldsPerRecord = 2
		cr.TrimLeadingSpace = true
		return &Reader{format: format, csv: cr}, nil
	case FormatJSONL:
		return &Reader{format: format, scan: bufio.NewScanner(r)}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// Next returns the next observation, or io.EOF when the stream is done.
// Decode errors carry the 1-based line number.
func (r *Reader) Next() (Observation, error) {
	if r.format == FormatCSV {
		return r.nextCSV()
	}
	return r.nextJSONL()
}

func (r *Reader) nextCSV() (Observation, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return Observation{}, io.EOF
		}
		return Observation{}, fmt.Errorf("read csv: %w", err)
	}
	line, _ := r.csv.FieldPos(0)

	rank, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return Observation{}, fmt.Errorf("line %d: bad rank %q", line, record[0])
	}
	nsize, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return Observation{}, fmt.Errorf("line %d: bad nsize %q", line, record[1])
	}
	return Observation{Rank: rank, NSize: nsize}, nil
}

func (r *Reader) nextJSONL() (Observation, error) {
	for r.scan.Scan() {
		r.line++
		text := strings.TrimSpace(r.scan.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var obs Observation
		if err := json.Unmarshal([]byte(text), &obs); err != nil {
			return Observation{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return obs, nil
	}
	if err := r.scan.Err(); err != nil {
		return Observation{}, fmt.Errorf("read stream: %w", err)
	}
	return Observation{}, io.EOF
}

// ParseLine decodes a single line in the given format. Blank lines and '#'
// comments return ok=false with no error, letting followers skip them.
func ParseLine(line string, format Format) (obs Observation, ok bool, err error) {
	text := strings.TrimSpace(line)
	if text == "" || strings.HasPrefix(text, "#") {
		return Observation{}, false, nil
	}

	switch format {
	case FormatCSV:
		parts := strings.Split(text, ",")
		if len(parts) != 2 {
			return Observation{}, false, fmt.Errorf("bad record %q", line)
		}
		rank, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Observation{}, false, fmt.Errorf("bad rank %q", parts[0])
		}
		nsize, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Observation{}, false, fmt.Errorf("bad nsize %q", parts[1])
		}
		return Observation{Rank: rank, NSize: nsize}, true, nil
	case FormatJSONL:
		if err := json.Unmarshal([]byte(text), &obs); err != nil {
			return Observation{}, false, err
		}
		return obs, true, nil
	default:
		return Observation{}, false, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// ReadAll decodes the entire stream.
func (r *Reader) ReadAll() ([]Observation, error) {
	var out []Observation
	for {
		obs, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, obs)
	}
}
