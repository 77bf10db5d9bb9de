package frame

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/coordinator"
)

var (
	// ErrEmptyType is returned when a context is created without an embed type.
	ErrEmptyType = errors.New("embed type cannot be empty")
)

// Context represents one sandboxed embed frame: its identity, embed
// type, location, the configuration payload passed by the host page,
// and its place in a frame family. Exactly one context per family is
// the designated master.
type Context struct {
	id       string
	embed    string
	location *url.URL
	payload  map[string]any

	master   *Master
	isMaster bool
}

// ID returns the frame's unique identifier.
func (c *Context) ID() string { return c.id }

// Type returns the embed type this frame renders.
func (c *Context) Type() string { return c.embed }

// Location returns the frame's source location. May be nil when the
// host did not supply one.
func (c *Context) Location() *url.URL { return c.location }

// Payload returns the embed configuration object.
func (c *Context) Payload() map[string]any { return c.payload }

// Master returns the family's shared master context.
func (c *Context) Master() *Master { return c.master }

// IsMaster reports whether this context is the designated master of
// its family.
func (c *Context) IsMaster() bool { return c.isMaster }

// SharedTasks implements coordinator.Host.
func (c *Context) SharedTasks() *coordinator.Table {
	return c.master.Tasks()
}

// Family groups sibling frames that share one master context. The
// first context created in a family is designated master, matching
// the original runtime's first-frame-wins designation.
type Family struct {
	mu     sync.Mutex
	master *Master
	frames []*Context
}

// NewFamily creates an empty frame family. The master context is
// created eagerly so its state handle outlives individual frames.
func NewFamily() *Family {
	return &Family{master: newMaster()}
}

// NewContext creates a frame context in this family. location may be
// empty; payload may be nil.
func (f *Family) NewContext(embedType, location string, payload map[string]any) (*Context, error) {
	if embedType == "" {
		return nil, ErrEmptyType
	}

	var loc *url.URL
	if location != "" {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid frame location %q: %w", location, err)
		}
		loc = u
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ctx := &Context{
		id:       uuid.New().String(),
		embed:    embedType,
		location: loc,
		payload:  payload,
		master:   f.master,
		isMaster: len(f.frames) == 0,
	}
	f.frames = append(f.frames, ctx)
	return ctx, nil
}

// Master returns the family's master context handle.
func (f *Family) Master() *Master {
	return f.master
}

// Size returns the number of frames in the family.
func (f *Family) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

var _ coordinator.Host = (*Context)(nil)
