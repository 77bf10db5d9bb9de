package geo

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/coordinator"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/logging"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/validate"
)

// TaskID is the shared task key for the per-family country lookup.
// Namespaced by embed type so unrelated tasks cannot collide.
const TaskID = "geo.lookup"

// storeKey is where the resolved lookup lives in the family store.
const storeKey = "geo.lookup.result"

// Lookup is the shared result of the country lookup. A failed lookup
// is encoded in Err: the coordinator has no error channel, so failure
// travels inside the result value.
type Lookup struct {
	Country string `json:"country"`
	Err     string `json:"error,omitempty"`
}

// Embed renders a locale banner. All frames of one family share a
// single country lookup through the coordinator: the master performs
// the HTTP call once and every sibling receives the same result.
type Embed struct {
	coord    *coordinator.Coordinator
	client   *resty.Client
	endpoint string
	log      *logging.Logger
}

// New creates the geo embed.
func New(coord *coordinator.Coordinator, endpoint string, log *logging.Logger) *Embed {
	if log == nil {
		log = logging.NewNop()
	}
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2)
	return &Embed{
		coord:    coord,
		client:   client,
		endpoint: endpoint,
		log:      log.Named("geo"),
	}
}

// Type returns the embed type identifier.
func (e *Embed) Type() string { return "geo" }

// Draw renders the banner. When the shared lookup has already resolved
// (or resolves synchronously because this frame is the master), the
// country is rendered inline; otherwise the frame ships with a
// placeholder and the resolved value waits in the family store for
// siblings drawn later.
func (e *Embed) Draw(ctx *frame.Context, doc *inject.Document) error {
	if err := validate.Data(ctx.Payload(), nil, []string{"label", "locale"}); err != nil {
		return err
	}

	doc.WriteHTML(`<div class="geo-banner" data-state="pending"></div>`)

	// The callback can fire later on the master's goroutine while this
	// frame's document is being rendered, so it must not touch any
	// document. It only publishes to the family store; each frame
	// applies the result to its own document below, on its own
	// goroutine.
	master := ctx.Master()
	err := e.coord.RunOnce(ctx, TaskID, e.lookup, func(result any) {
		res, ok := result.(Lookup)
		if !ok {
			res = Lookup{Err: "unexpected lookup result type"}
		}
		master.Set(storeKey, res)
	})
	if err != nil {
		return fmt.Errorf("geo lookup coordination failed: %w", err)
	}

	if v, ok := master.Get(storeKey); ok {
		if res, ok := v.(Lookup); ok {
			applyLookup(doc, res, ctx.Payload())
		}
	}
	return nil
}

// applyLookup writes the resolved lookup into this frame's banner.
func applyLookup(doc *inject.Document, res Lookup, payload map[string]any) {
	banner := doc.Container().Find(".geo-banner")
	if res.Err != "" {
		banner.SetAttr("data-state", "error")
		return
	}
	banner.SetAttr("data-state", "ready")
	banner.SetAttr("data-country", res.Country)
	banner.SetText(label(payload) + res.Country)
}

// lookup performs the single shared country fetch.
func (e *Embed) lookup(resolve func(any)) {
	var out Lookup
	resp, err := e.client.R().SetResult(&out).Get(e.endpoint)
	if err != nil {
		e.log.Warn("country lookup failed", zap.Error(err))
		resolve(Lookup{Err: err.Error()})
		return
	}
	if resp.IsError() {
		e.log.Warn("country lookup returned error status",
			zap.Int("status", resp.StatusCode()),
		)
		resolve(Lookup{Err: fmt.Sprintf("status %d", resp.StatusCode())})
		return
	}
	resolve(out)
}

func label(payload map[string]any) string {
	if payload != nil {
		if l, ok := payload["label"].(string); ok && l != "" {
			return l + " "
		}
	}
	return ""
}
