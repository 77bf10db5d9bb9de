package pixel

import (
	"fmt"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/validate"
)

// ScriptURL is the vendor measurement script loaded by every pixel frame.
const ScriptURL = "https://static.pixel.example/collect.js"

// Embed renders a measurement pixel. The payload must carry exactly
// one of "pid" or "account"; the vendor script is loaded async with a
// load callback that flips the container state.
type Embed struct {
	policy inject.URLPolicy
}

// New creates the pixel embed with the runtime's script URL policy.
func New(policy inject.URLPolicy) *Embed {
	return &Embed{policy: policy}
}

// Type returns the embed type identifier.
func (e *Embed) Type() string { return "pixel" }

// Draw validates the payload and injects the vendor script.
func (e *Embed) Draw(ctx *frame.Context, doc *inject.Document) error {
	payload := ctx.Payload()
	if err := validate.Data(payload, nil, []string{"pid", "account", "campaign"}); err != nil {
		return err
	}
	if err := validate.ExactlyOneOf(payload, "pid", "account"); err != nil {
		return err
	}

	id := payloadID(payload)
	doc.WriteHTML(fmt.Sprintf(`<div class="pixel" data-id=%q data-state="loading"></div>`, id))

	return inject.LoadScript(doc, ScriptURL, func() {
		doc.Container().Find(".pixel").SetAttr("data-state", "loaded")
	}, e.policy)
}

func payloadID(payload map[string]any) string {
	if pid, ok := payload["pid"].(string); ok {
		return pid
	}
	if account, ok := payload["account"].(string); ok {
		return account
	}
	return ""
}
