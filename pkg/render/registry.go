package render

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrNotAcceptable reports that no registered renderer satisfies an Accept
// header.
var ErrNotAcceptable = errors.New("render: no acceptable renderer")

// Registry holds the renderers a results fragment can be answered with, in
// registration order. The first renderer is the default.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	order     []string
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer by its Name(). Duplicate names return an error.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("render: renderer %q already registered", name)
	}

	r.renderers[name] = renderer
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("render: renderer %q not found", name)
	}
	return renderer, nil
}

// Negotiate picks a renderer for an Accept header. Ranges are tried by
// descending quality; among equal qualities the header order wins. An empty
// header selects the default renderer.
func (r *Registry) Negotiate(accept string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return nil, ErrNotAcceptable
	}
	if strings.TrimSpace(accept) == "" {
		return r.renderers[r.order[0]], nil
	}

	for _, want := range parseAccept(accept) {
		for _, name := range r.order {
			renderer := r.renderers[name]
			if matchMediaRange(want, renderer.ContentType()) {
				return renderer, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotAcceptable, accept)
}

type mediaRange struct {
	value   string
	quality float64
}

func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for _, part := range strings.Split(header, ",") {
		value, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		quality := 1.0
		if raw, ok := params["q"]; ok {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			quality = parsed
		}
		if quality <= 0 {
			continue
		}
		ranges = append(ranges, mediaRange{value: value, quality: quality})
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].quality > ranges[j].quality
	})
	return ranges
}

func matchMediaRange(want mediaRange, contentType string) bool {
	have, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case want.value == "*/*":
		return true
	case strings.HasSuffix(want.value, "/*"):
		return strings.HasPrefix(have, strings.TrimSuffix(want.value, "*"))
	default:
		return want.value == have
	}
}
