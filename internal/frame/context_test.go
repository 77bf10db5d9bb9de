package frame

import (
	"testing"
)

func TestFirstContextIsMaster(t *testing.T) {
	f := NewFamily()

	first, err := f.NewContext("geo", "https://cdn.host.example/frame.html", nil)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	second, err := f.NewContext("geo", "", nil)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	if !first.IsMaster() {
		t.Error("first context in a family must be the master")
	}
	if second.IsMaster() {
		t.Error("second context must not be master")
	}
	if first.Master() != second.Master() {
		t.Error("siblings must share one master handle")
	}
	if f.Size() != 2 {
		t.Errorf("family size = %d, want 2", f.Size())
	}
}

func TestContextIdentity(t *testing.T) {
	f := NewFamily()
	a, _ := f.NewContext("pixel", "", map[string]any{"pid": "p-1"})
	b, _ := f.NewContext("pixel", "", nil)

	if a.ID() == "" || a.ID() == b.ID() {
		t.Error("contexts must have distinct non-empty IDs")
	}
	if a.Type() != "pixel" {
		t.Errorf("Type() = %q, want pixel", a.Type())
	}
	if a.Payload()["pid"] != "p-1" {
		t.Error("payload not carried through")
	}
}

func TestEmptyTypeRejected(t *testing.T) {
	f := NewFamily()
	if _, err := f.NewContext("", "", nil); err != ErrEmptyType {
		t.Errorf("expected ErrEmptyType, got %v", err)
	}
}

func TestInvalidLocationRejected(t *testing.T) {
	f := NewFamily()
	if _, err := f.NewContext("geo", "://not a url", nil); err == nil {
		t.Error("expected error for unparsable location")
	}
}

func TestSharedTasksIsFamilyWide(t *testing.T) {
	f := NewFamily()
	a, _ := f.NewContext("geo", "", nil)
	b, _ := f.NewContext("geo", "", nil)

	if a.SharedTasks() != b.SharedTasks() {
		t.Error("siblings must share the master's task table")
	}

	other := NewFamily()
	c, _ := other.NewContext("geo", "", nil)
	if a.SharedTasks() == c.SharedTasks() {
		t.Error("different families must not share task tables")
	}
}

func TestMasterStore(t *testing.T) {
	f := NewFamily()
	a, _ := f.NewContext("geo", "", nil)
	b, _ := f.NewContext("geo", "", nil)

	a.Master().Set("vendor.token", "abc")
	v, ok := b.Master().Get("vendor.token")
	if !ok || v != "abc" {
		t.Errorf("shared store read got (%v, %v), want (abc, true)", v, ok)
	}

	if _, ok := b.Master().Get("missing"); ok {
		t.Error("missing key must report absent")
	}
}
