package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Built-in stage names.
const (
	StageChunker  = "chunker"
	StageEmbedder = "embedder"
)

// Role says what a stage does with the chunks it receives.
type Role int

const (
	// Creates stages build chunks from the parsed pages and ignore their input.
	Creates Role = iota
	// Refines stages transform chunks made by an earlier stage.
	Refines
)

// BuilderFunc creates a stage from its entry in domain.PipelineConfig.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

type stage struct {
	role  Role
	build BuilderFunc
}

// Registry maps stage names to builders.
type Registry struct {
	stages map[string]stage
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]stage)}
}

// Register adds a stage. A later registration under the same name wins.
func (r *Registry) Register(name string, role Role, builder BuilderFunc) {
	r.stages[name] = stage{role: role, build: builder}
}

// Build creates the named stage.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	s, ok := r.stages[name]
	if !ok {
		return nil, r.unknown(name)
	}
	proc, err := s.build(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: stage %s: %w", domain.ErrInvalidInput, name, err)
	}
	return proc, nil
}

// Has reports whether a stage is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.stages[name]
	return ok
}

// Names returns the registered stage names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.stages))
}

// Validate checks that cfg names registered stages, each at most once,
// and that the first stage creates chunks for the ones after it.
func (r *Registry) Validate(cfg domain.PipelineConfig) error {
	if len(cfg.Processors) == 0 {
		return fmt.Errorf("%w: pipeline has no stages", domain.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(cfg.Processors))
	for i, name := range cfg.Processors {
		if !r.Has(name) {
			return r.unknown(name)
		}
		if seen[name] {
			return fmt.Errorf("%w: stage %s listed twice", domain.ErrInvalidInput, name)
		}
		seen[name] = true

		if i == 0 && r.stages[name].role != Creates {
			return fmt.Errorf("%w: first stage %s does not create chunks", domain.ErrInvalidInput, name)
		}
	}
	return nil
}

func (r *Registry) unknown(name string) error {
	return fmt.Errorf("%w: unknown stage %q (known: %s)",
		domain.ErrInvalidInput, name, strings.Join(r.Names(), ", "))
}
