// Package contract reads the OpenAPI description of the prediction endpoint
// and derives the form model, the feature columns and the result subjects
// from it.
package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-predictform/pkg/model"
	"github.com/goliatone/go-predictform/pkg/predict"
)

const (
	orderExtension      = "x-order"
	enumLabelsExtension = "x-enum-labels"
)

//go:embed openapi.yaml
var embeddedDocument []byte

// Document returns the embedded OpenAPI document.
func Document() []byte {
	return append([]byte(nil), embeddedDocument...)
}

// Option configures Load.
type Option func(*options)

type options struct {
	path     string
	validate bool
}

// WithPath selects the operation path (default "/predict").
func WithPath(path string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			o.path = trimmed
		}
	}
}

// WithValidation toggles document validation (default on).
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// Contract is the parsed description of the prediction operation.
type Contract struct {
	doc      *openapi3.T
	form     model.FormModel
	required []string
}

// Default parses the embedded document.
func Default(ctx context.Context) (*Contract, error) {
	return Load(ctx, embeddedDocument)
}

// Load parses raw (YAML or JSON) and extracts the POST operation.
func Load(ctx context.Context, raw []byte, opts ...Option) (*Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("contract: document payload is empty")
	}

	cfg := options{path: predict.DefaultEndpoint, validate: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if cfg.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("contract: validate: %w", err)
		}
	}

	if doc.Paths == nil {
		return nil, errors.New("contract: document does not contain any paths")
	}
	item := doc.Paths.Value(cfg.path)
	if item == nil || item.Post == nil {
		return nil, fmt.Errorf("contract: no POST operation at %q", cfg.path)
	}
	operation := item.Post

	input, err := requestSchema(operation)
	if err != nil {
		return nil, err
	}

	fields := make([]model.Field, 0, len(input.Properties))
	required := make(map[string]bool, len(input.Required))
	for _, name := range input.Required {
		required[name] = true
	}
	for _, name := range orderedProperties(input.Properties) {
		fields = append(fields, buildField(name, input.Properties[name].Value, required[name]))
	}

	form := model.FormModel{
		ID:       operation.OperationID,
		Endpoint: cfg.path,
		Method:   http.MethodPost,
		Fields:   fields,
		Subjects: subjects(operation.Responses),
	}
	if doc.Info != nil {
		form.Title = doc.Info.Title
		form.Description = doc.Info.Description
	}
	if operation.Summary != "" && form.Title == "" {
		form.Title = operation.Summary
	}

	return &Contract{
		doc:      doc,
		form:     form,
		required: append([]string(nil), input.Required...),
	}, nil
}

// OpenAPI exposes the parsed document.
func (c *Contract) OpenAPI() *openapi3.T {
	return c.doc
}

// Form returns a copy of the form model.
func (c *Contract) Form() model.FormModel {
	form := c.form
	form.Fields = append([]model.Field(nil), c.form.Fields...)
	form.Subjects = append([]model.Subject(nil), c.form.Subjects...)
	return form
}

// Features lists the request field names in form order.
func (c *Contract) Features() []string {
	return c.form.FieldNames()
}

// Subjects lists the result keys in render order.
func (c *Contract) Subjects() []model.Subject {
	return append([]model.Subject(nil), c.form.Subjects...)
}

// Required lists the required request fields as declared.
func (c *Contract) Required() []string {
	return append([]string(nil), c.required...)
}

// Missing returns the required fields that are absent or blank in input, in
// form order.
func (c *Contract) Missing(input model.FormInput) []string {
	var out []string
	for _, field := range c.form.Fields {
		if !field.Required {
			continue
		}
		if value, ok := input.Get(field.Name); !ok || strings.TrimSpace(value) == "" {
			out = append(out, field.Name)
		}
	}
	return out
}

func requestSchema(operation *openapi3.Operation) (*openapi3.Schema, error) {
	body := operation.RequestBody
	if body == nil || body.Value == nil {
		return nil, errors.New("contract: operation has no request body")
	}
	media := body.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, errors.New("contract: request body has no application/json schema")
	}
	return media.Schema.Value, nil
}

func subjects(responses *openapi3.Responses) []model.Subject {
	if responses == nil {
		return model.DefaultSubjects()
	}
	ref := responses.Value("200")
	if ref == nil || ref.Value == nil {
		return model.DefaultSubjects()
	}
	media := ref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil || len(media.Schema.Value.Properties) == 0 {
		return model.DefaultSubjects()
	}

	props := media.Schema.Value.Properties
	out := make([]model.Subject, 0, len(props))
	for _, name := range orderedProperties(props) {
		label := name
		if schema := props[name].Value; schema != nil && schema.Title != "" {
			label = schema.Title
		}
		out = append(out, model.Subject{Key: name, Label: label})
	}
	return out
}

func buildField(name string, schema *openapi3.Schema, required bool) model.Field {
	field := model.Field{Name: name, Label: name, Required: required}
	if schema == nil {
		return field
	}
	if schema.Title != "" {
		field.Label = schema.Title
	}
	field.Description = schema.Description
	if schema.Default != nil {
		field.Default = scalarString(schema.Default)
	}

	labels := enumLabels(schema.Extensions[enumLabelsExtension])
	for _, value := range schema.Enum {
		text := scalarString(value)
		label := labels[text]
		if label == "" {
			label = text
		}
		field.Options = append(field.Options, model.Option{Value: text, Label: label})
	}
	return field
}

// orderedProperties sorts by x-order, then by name for unordered entries.
func orderedProperties(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, oj := propertyOrder(props[names[i]]), propertyOrder(props[names[j]])
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

func propertyOrder(ref *openapi3.SchemaRef) float64 {
	if ref == nil || ref.Value == nil {
		return math.MaxFloat64
	}
	raw, ok := ref.Value.Extensions[orderExtension]
	if !ok {
		return math.MaxFloat64
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case json.RawMessage:
		if f, err := strconv.ParseFloat(string(v), 64); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return math.MaxFloat64
}

func enumLabels(raw any) map[string]string {
	if raw == nil {
		return nil
	}
	if msg, ok := raw.(json.RawMessage); ok {
		var decoded map[string]any
		if err := json.Unmarshal(msg, &decoded); err != nil {
			return nil
		}
		raw = decoded
	}
	mapped, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(mapped))
	for key, value := range mapped {
		out[key] = scalarString(value)
	}
	return out
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
