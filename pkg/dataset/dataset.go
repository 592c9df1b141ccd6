// Package dataset reads the ENEM microdata export used to train the
// prediction model and applies the cleaning rules: rows with a missing,
// unparsable or non-positive score are dropped and blank features become
// Unknown.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"github.com/goliatone/go-predictform/pkg/model"
)

// Unknown replaces blank feature values.
const Unknown = "Desconhecido"

// Encoding names the character set of the input file.
type Encoding string

const (
	EncodingAuto   Encoding = "auto"
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "iso-8859-1"
)

// ParseEncoding maps a config value to an Encoding.
func ParseEncoding(raw string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "iso-8859-1", "latin1", "latin-1":
		return EncodingLatin1, nil
	default:
		return EncodingAuto, fmt.Errorf("dataset: unknown encoding %q", raw)
	}
}

// DefaultFeatures are the categorical inputs of the model.
func DefaultFeatures() []string {
	return []string{"Q006", "Q002", "TP_ESCOLA", "TP_COR_RACA", "SG_UF_PROVA"}
}

// DefaultTargets are the predicted scores.
func DefaultTargets() []string {
	return model.SubjectKeys(model.DefaultSubjects())
}

// Sample is one cleaned row.
type Sample struct {
	Features []string  `json:"f"`
	Targets  []float64 `json:"t"`
}

// Table is the cleaned training set. Sample columns follow Features and
// Targets order.
type Table struct {
	Features []string
	Targets  []string
	Samples  []Sample
}

// Stats summarises a read.
type Stats struct {
	Rows    int
	Kept    int
	Dropped int
	Filled  int
}

// Option configures Read.
type Option func(*options)

type options struct {
	features []string
	targets  []string
	comma    rune
	encoding Encoding
	logger   zerolog.Logger
}

// WithFeatures overrides the feature columns.
func WithFeatures(columns ...string) Option {
	return func(o *options) {
		if len(columns) > 0 {
			o.features = append([]string(nil), columns...)
		}
	}
}

// WithTargets overrides the target columns.
func WithTargets(columns ...string) Option {
	return func(o *options) {
		if len(columns) > 0 {
			o.targets = append([]string(nil), columns...)
		}
	}
}

// WithComma sets the field separator (default ';').
func WithComma(comma rune) Option {
	return func(o *options) {
		if comma != 0 {
			o.comma = comma
		}
	}
}

// WithEncoding forces the input encoding. Auto treats valid UTF-8 as UTF-8
// and anything else as ISO-8859-1.
func WithEncoding(enc Encoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}

// WithLogger attaches a logger for progress messages.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// ReadFile opens path and reads it with Read.
func ReadFile(ctx context.Context, path string, opts ...Option) (Table, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, Stats{}, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer file.Close()
	return Read(ctx, file, opts...)
}

// Read parses a delimited file with a header row.
func Read(ctx context.Context, r io.Reader, opts ...Option) (Table, Stats, error) {
	cfg := options{
		features: DefaultFeatures(),
		targets:  DefaultTargets(),
		comma:    ';',
		encoding: EncodingAuto,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return Table{}, Stats{}, fmt.Errorf("dataset: read: %w", err)
	}
	text, err := decode(raw, cfg.encoding)
	if err != nil {
		return Table{}, Stats{}, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = cfg.comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, Stats{}, errors.New("dataset: file is empty")
		}
		return Table{}, Stats{}, fmt.Errorf("dataset: read header: %w", err)
	}
	featureIdx, err := columnIndexes(header, cfg.features)
	if err != nil {
		return Table{}, Stats{}, err
	}
	targetIdx, err := columnIndexes(header, cfg.targets)
	if err != nil {
		return Table{}, Stats{}, err
	}

	table := Table{
		Features: append([]string(nil), cfg.features...),
		Targets:  append([]string(nil), cfg.targets...),
	}
	var stats Stats

	for {
		if stats.Rows%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return Table{}, stats, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, stats, fmt.Errorf("dataset: row %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		targets, ok := parseTargets(record, targetIdx)
		if !ok {
			stats.Dropped++
			continue
		}

		features := make([]string, len(featureIdx))
		for i, idx := range featureIdx {
			value := field(record, idx)
			if value == "" {
				value = Unknown
				stats.Filled++
			}
			features[i] = value
		}

		table.Samples = append(table.Samples, Sample{Features: features, Targets: targets})
		stats.Kept++
	}

	cfg.logger.Info().
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("dropped", stats.Dropped).
		Int("filled", stats.Filled).
		Msg("dataset loaded")
	return table, stats, nil
}

func decode(raw []byte, enc Encoding) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	switch enc {
	case EncodingUTF8:
		return raw, nil
	case EncodingLatin1:
	case EncodingAuto, "":
		if utf8.Valid(raw) {
			return raw, nil
		}
	default:
		return nil, fmt.Errorf("dataset: unknown encoding %q", enc)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode iso-8859-1: %w", err)
	}
	return out, nil
}

func columnIndexes(header, columns []string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}
	out := make([]int, len(columns))
	for i, column := range columns {
		idx, ok := positions[column]
		if !ok {
			return nil, fmt.Errorf("dataset: column %q not found in header", column)
		}
		out[i] = idx
	}
	return out, nil
}

func parseTargets(record []string, indexes []int) ([]float64, bool) {
	out := make([]float64, len(indexes))
	for i, idx := range indexes {
		value := strings.ReplaceAll(field(record, idx), ",", ".")
		if value == "" {
			return nil, false
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil || score <= 0 {
			return nil, false
		}
		out[i] = score
	}
	return out, true
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
