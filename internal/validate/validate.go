package validate

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
)

// Payload size limits, in bytes.
const (
	MaxPayloadSize  = 64 * 1024
	MaxPayloadDepth = 10
)

// baselineFields are always accepted in an embed payload regardless of
// the embed's own allow-list: the host page sets them on every frame.
var baselineFields = map[string]struct{}{
	"type":   {},
	"width":  {},
	"height": {},
	"title":  {},
}

// Data checks an embed configuration payload against the embed's
// declared fields: every mandatory field must be present, and when an
// allow-list is declared (mandatory plus optional), no other field may
// appear.
func Data(payload map[string]any, mandatory, optional []string) error {
	for _, field := range mandatory {
		if _, ok := payload[field]; !ok {
			return fmt.Errorf("missing mandatory field %q", field)
		}
	}

	if optional == nil && len(mandatory) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(mandatory)+len(optional))
	for _, field := range mandatory {
		allowed[field] = struct{}{}
	}
	for _, field := range optional {
		allowed[field] = struct{}{}
	}

	for field := range payload {
		if _, ok := baselineFields[field]; ok {
			continue
		}
		if _, ok := allowed[field]; !ok {
			return fmt.Errorf("field %q is not allowed for this embed", field)
		}
	}
	return nil
}

// ExactlyOneOf checks that exactly one of the named fields is present
// in the payload.
func ExactlyOneOf(payload map[string]any, fields ...string) error {
	var found []string
	for _, field := range fields {
		if _, ok := payload[field]; ok {
			found = append(found, field)
		}
	}
	switch len(found) {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("exactly one of [%s] is required, none present", strings.Join(fields, ", "))
	default:
		return fmt.Errorf("exactly one of [%s] is required, got %s", strings.Join(fields, ", "), strings.Join(found, ", "))
	}
}

// SrcPrefix checks that the frame's location starts with one of the
// given prefixes.
func SrcPrefix(ctx *frame.Context, prefixes ...string) error {
	loc := ctx.Location()
	if loc == nil {
		return fmt.Errorf("frame for embed %q has no location", ctx.Type())
	}
	src := loc.String()
	for _, prefix := range prefixes {
		if strings.HasPrefix(src, prefix) {
			return nil
		}
	}
	return fmt.Errorf("frame location %q does not match any allowed prefix", src)
}

// SrcContains checks that the frame's location contains one of the
// given substrings.
func SrcContains(ctx *frame.Context, substrings ...string) error {
	loc := ctx.Location()
	if loc == nil {
		return fmt.Errorf("frame for embed %q has no location", ctx.Type())
	}
	src := loc.String()
	for _, sub := range substrings {
		if strings.Contains(src, sub) {
			return nil
		}
	}
	return fmt.Errorf("frame location %q does not contain any allowed marker", src)
}

// Depth checks that the payload's nesting stays within maxDepth,
// guarding the host against pathological configuration objects.
func Depth(payload map[string]any, maxDepth int) error {
	return checkDepth(payload, 0, maxDepth)
}

func checkDepth(data any, current, max int) error {
	if current > max {
		return fmt.Errorf("payload nesting depth %d exceeds maximum %d", current, max)
	}
	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, current+1, max); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, current+1, max); err != nil {
				return err
			}
		}
	}
	return nil
}
