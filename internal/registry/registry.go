package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/logging"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/monitoring"
)

// DrawFunc renders one embed into a frame's bootstrap document.
type DrawFunc func(ctx *frame.Context, doc *inject.Document) error

// Registry maps embed-type identifiers to draw functions. Registering
// the same type twice is an error: embed types are global identifiers
// and a silent overwrite would hand one vendor's frames to another.
type Registry struct {
	mu      sync.RWMutex
	embeds  map[string]DrawFunc
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates an empty embed registry.
func New(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		embeds: make(map[string]DrawFunc),
		log:    log.Named("registry"),
	}
}

// WithMetrics attaches a metrics collector.
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// Register adds a draw function for an embed type.
func (r *Registry) Register(embedType string, draw DrawFunc) error {
	if embedType == "" {
		return fmt.Errorf("embed type cannot be empty")
	}
	if draw == nil {
		return fmt.Errorf("draw function cannot be nil for embed type %q", embedType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.embeds[embedType]; exists {
		return fmt.Errorf("embed type %q is already registered", embedType)
	}
	r.embeds[embedType] = draw

	if r.metrics != nil {
		r.metrics.EmbedTypes.Set(float64(len(r.embeds)))
	}
	r.log.Info("registered embed type", zap.String("type", embedType))
	return nil
}

// Get retrieves the draw function for an embed type.
func (r *Registry) Get(embedType string) (DrawFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	draw, ok := r.embeds[embedType]
	return draw, ok
}

// Draw renders the embed for the frame's type into doc.
func (r *Registry) Draw(ctx *frame.Context, doc *inject.Document) error {
	draw, ok := r.Get(ctx.Type())
	if !ok {
		return fmt.Errorf("unknown embed type %q", ctx.Type())
	}

	if r.metrics != nil {
		r.metrics.DrawsTotal.WithLabelValues(ctx.Type()).Inc()
	}
	if err := draw(ctx, doc); err != nil {
		if r.metrics != nil {
			r.metrics.DrawErrors.WithLabelValues(ctx.Type()).Inc()
		}
		return fmt.Errorf("embed %q draw failed: %w", ctx.Type(), err)
	}
	return nil
}

// Types returns all registered embed types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.embeds))
	for t := range r.embeds {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Len returns the number of registered embed types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.embeds)
}
