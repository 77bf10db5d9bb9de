package validate

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
)

func testContext(t *testing.T, location string) *frame.Context {
	t.Helper()
	f := frame.NewFamily()
	ctx, err := f.NewContext("test", location, nil)
	if err != nil {
		t.Fatalf("failed to build test context: %v", err)
	}
	return ctx
}

func TestDataMandatoryFields(t *testing.T) {
	payload := map[string]any{"pid": "x"}

	if err := Data(payload, []string{"pid"}, nil); err != nil {
		t.Errorf("mandatory field present, got error: %v", err)
	}
	if err := Data(payload, []string{"pid", "region"}, nil); err == nil {
		t.Error("expected error for missing mandatory field")
	}
}

func TestDataAllowList(t *testing.T) {
	payload := map[string]any{"pid": "x", "extra": true}

	err := Data(payload, []string{"pid"}, []string{"campaign"})
	if err == nil || !strings.Contains(err.Error(), "extra") {
		t.Errorf("expected allow-list violation for %q, got %v", "extra", err)
	}

	if err := Data(map[string]any{"pid": "x", "campaign": "c"}, []string{"pid"}, []string{"campaign"}); err != nil {
		t.Errorf("allowed fields rejected: %v", err)
	}
}

func TestDataBaselineFieldsAlwaysAllowed(t *testing.T) {
	payload := map[string]any{"pid": "x", "type": "pixel", "width": 300, "height": 250}
	if err := Data(payload, []string{"pid"}, []string{}); err != nil {
		t.Errorf("baseline host fields must pass the allow-list: %v", err)
	}
}

func TestDataNoConstraints(t *testing.T) {
	if err := Data(map[string]any{"anything": 1}, nil, nil); err != nil {
		t.Errorf("no declared contract means no allow-list: %v", err)
	}
}

func TestExactlyOneOf(t *testing.T) {
	if err := ExactlyOneOf(map[string]any{"pid": "x"}, "pid", "account"); err != nil {
		t.Errorf("one field present, got error: %v", err)
	}
	if err := ExactlyOneOf(map[string]any{}, "pid", "account"); err == nil {
		t.Error("expected error when none present")
	}
	if err := ExactlyOneOf(map[string]any{"pid": "x", "account": "y"}, "pid", "account"); err == nil {
		t.Error("expected error when both present")
	}
}

func TestSrcPrefix(t *testing.T) {
	ctx := testContext(t, "https://cdn.vendor.example/widget/v2/frame.html")

	if err := SrcPrefix(ctx, "https://cdn.vendor.example/widget/"); err != nil {
		t.Errorf("matching prefix rejected: %v", err)
	}
	if err := SrcPrefix(ctx, "https://other.example/"); err == nil {
		t.Error("expected error for non-matching prefix")
	}
	// Multiple prefixes: any match passes, including the last one.
	if err := SrcPrefix(ctx, "https://a.example/", "https://b.example/", "https://cdn.vendor.example/"); err != nil {
		t.Errorf("last prefix must still be checked: %v", err)
	}
}

func TestSrcPrefixNoLocation(t *testing.T) {
	ctx := testContext(t, "")
	if err := SrcPrefix(ctx, "https://cdn.vendor.example/"); err == nil {
		t.Error("expected error when frame has no location")
	}
}

func TestSrcContains(t *testing.T) {
	ctx := testContext(t, "https://cdn.vendor.example/widget/frame.html?v=3")

	if err := SrcContains(ctx, "/widget/"); err != nil {
		t.Errorf("matching substring rejected: %v", err)
	}
	if err := SrcContains(ctx, "/other/"); err == nil {
		t.Error("expected error for non-matching substring")
	}
}

func TestDepth(t *testing.T) {
	shallow := map[string]any{"a": map[string]any{"b": 1}}
	if err := Depth(shallow, 5); err != nil {
		t.Errorf("shallow payload rejected: %v", err)
	}

	deep := map[string]any{}
	cur := deep
	for i := 0; i < 12; i++ {
		next := map[string]any{}
		cur["n"] = next
		cur = next
	}
	if err := Depth(deep, MaxPayloadDepth); err == nil {
		t.Error("expected error for over-deep payload")
	}
}
