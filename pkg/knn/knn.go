// Package knn implements the k-nearest-neighbours regressor behind the
// prediction endpoint. Features are categorical and compared as one-hot
// vectors: equal categories are at distance 0, different known categories
// at 2, and a category never seen in training contributes 1 because it
// encodes as all zeros.
package knn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-predictform/pkg/dataset"
	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
)

// DefaultK is the number of neighbours averaged per prediction.
const DefaultK = 7

// ScorePlaces is the number of decimal places kept in predicted scores.
const ScorePlaces = 2

const formatVersion = 1

// ErrModelNotLoaded is returned by a nil or empty model.
var ErrModelNotLoaded = errors.New("knn: model not loaded")

// MissingFeatureError reports an input without one of the model features.
type MissingFeatureError struct {
	Name string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("knn: missing feature '%s'", e.Name)
}

// Option configures Fit.
type Option func(*Model)

// WithK sets the neighbour count.
func WithK(k int) Option {
	return func(m *Model) {
		if k > 0 {
			m.K = k
		}
	}
}

// Model is a fitted regressor. It is read-only after Fit or Load and safe
// for concurrent use.
type Model struct {
	Version  int              `json:"version"`
	K        int              `json:"k"`
	Features []string         `json:"features"`
	Targets  []string         `json:"targets"`
	Samples  []dataset.Sample `json:"samples"`

	categories []map[string]struct{}
}

var _ predict.Predictor = (*Model)(nil)

// Fit builds a model from a cleaned table.
func Fit(table dataset.Table, options ...Option) (*Model, error) {
	if len(table.Features) == 0 || len(table.Targets) == 0 {
		return nil, errors.New("knn: features and targets are required")
	}
	if len(table.Samples) == 0 {
		return nil, errors.New("knn: no samples to fit")
	}

	m := &Model{
		Version:  formatVersion,
		K:        DefaultK,
		Features: append([]string(nil), table.Features...),
		Targets:  append([]string(nil), table.Targets...),
		Samples:  append([]dataset.Sample(nil), table.Samples...),
	}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

// index validates sample shapes and collects the known categories.
func (m *Model) index() error {
	m.categories = make([]map[string]struct{}, len(m.Features))
	for i := range m.categories {
		m.categories[i] = make(map[string]struct{})
	}
	for n, sample := range m.Samples {
		if len(sample.Features) != len(m.Features) || len(sample.Targets) != len(m.Targets) {
			return fmt.Errorf("knn: sample %d has %d features and %d targets, want %d and %d",
				n, len(sample.Features), len(sample.Targets), len(m.Features), len(m.Targets))
		}
		for i, value := range sample.Features {
			m.categories[i][value] = struct{}{}
		}
	}
	return nil
}

// Ready reports whether the model can serve predictions.
func (m *Model) Ready() bool {
	return m != nil && len(m.Samples) > 0 && m.categories != nil
}

// Estimate returns the mean target values of the K nearest samples, rounded
// to ScorePlaces, in Targets order.
func (m *Model) Estimate(values map[string]string) ([]decimal.Decimal, error) {
	if !m.Ready() {
		return nil, ErrModelNotLoaded
	}

	query := make([]string, len(m.Features))
	for i, name := range m.Features {
		value, ok := values[name]
		if !ok {
			return nil, &MissingFeatureError{Name: name}
		}
		query[i] = value
	}

	type neighbour struct {
		index    int
		distance int
	}
	neighbours := make([]neighbour, len(m.Samples))
	for n, sample := range m.Samples {
		neighbours[n] = neighbour{index: n, distance: m.distance(query, sample.Features)}
	}
	sort.SliceStable(neighbours, func(i, j int) bool {
		return neighbours[i].distance < neighbours[j].distance
	})

	k := m.K
	if k <= 0 {
		k = DefaultK
	}
	if k > len(neighbours) {
		k = len(neighbours)
	}

	sums := make([]decimal.Decimal, len(m.Targets))
	for i := range sums {
		sums[i] = decimal.Zero
	}
	for _, nb := range neighbours[:k] {
		for i, target := range m.Samples[nb.index].Targets {
			sums[i] = sums[i].Add(decimal.NewFromFloat(target))
		}
	}

	count := decimal.NewFromInt(int64(k))
	out := make([]decimal.Decimal, len(sums))
	for i, sum := range sums {
		out[i] = sum.Div(count).Round(ScorePlaces)
	}
	return out, nil
}

// Predict adapts Estimate to the predictor contract. Scores are encoded as
// JSON numbers with their exact decimal text.
func (m *Model) Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scores, err := m.Estimate(input.Map())
	if err != nil {
		return nil, err
	}
	result := make(model.PredictionResult, len(scores))
	for i, score := range scores {
		result[m.Targets[i]] = json.RawMessage(score.String())
	}
	return result, nil
}

func (m *Model) distance(query, sample []string) int {
	total := 0
	for i, value := range query {
		if _, known := m.categories[i][value]; !known {
			total++
			continue
		}
		if value != sample[i] {
			total += 2
		}
	}
	return total
}

// Save writes the model as JSON.
func (m *Model) Save(w io.Writer) error {
	if !m.Ready() {
		return ErrModelNotLoaded
	}
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("knn: encode model: %w", err)
	}
	return nil
}

// SaveFile writes the model to path, creating parent directories.
func (m *Model) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("knn: create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("knn: create model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("knn: close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("knn: move model file: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("knn: decode model: %w", err)
	}
	if m.Version != formatVersion {
		return nil, fmt.Errorf("knn: unsupported model version %d", m.Version)
	}
	if len(m.Samples) == 0 {
		return nil, fmt.Errorf("knn: model has no samples: %w", ErrModelNotLoaded)
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads a model from path.
func LoadFile(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("knn: open model: %w", err)
	}
	defer file.Close()
	return Load(file)
}
