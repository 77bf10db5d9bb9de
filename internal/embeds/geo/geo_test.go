package geo

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/coordinator"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/logging"
)

func geoServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"US"}`))
	}))
}

func newDoc(t *testing.T) *inject.Document {
	t.Helper()
	doc, err := inject.NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSharedLookupAcrossFamily(t *testing.T) {
	var hits int32
	srv := geoServer(t, &hits)
	defer srv.Close()

	coord := coordinator.New(logging.NewNop())
	embed := New(coord, srv.URL, logging.NewNop())

	family := frame.NewFamily()
	master, _ := family.NewContext("geo", "", nil)
	sib1, _ := family.NewContext("geo", "", nil)
	sib2, _ := family.NewContext("geo", "", nil)

	docs := make(map[*frame.Context]*inject.Document)
	for _, fc := range []*frame.Context{master, sib1, sib2} {
		doc := newDoc(t)
		docs[fc] = doc
		if err := embed.Draw(fc, doc); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
	}

	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("geo endpoint hit %d times, want 1", hits)
	}

	// The master drew first, so its lookup resolved synchronously and
	// every later sibling took the resolved path.
	for fc, doc := range docs {
		html, err := doc.Render()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(html, `data-country="US"`) {
			t.Errorf("frame %s (master=%v) missing country: %s", fc.ID(), fc.IsMaster(), html)
		}
	}
}

func TestSiblingBeforeMasterShipsPending(t *testing.T) {
	var hits int32
	srv := geoServer(t, &hits)
	defer srv.Close()

	coord := coordinator.New(logging.NewNop())
	embed := New(coord, srv.URL, logging.NewNop())

	family := frame.NewFamily()
	master, _ := family.NewContext("geo", "", nil)
	sibling, _ := family.NewContext("geo", "", nil)

	// Sibling draws first: it registers interest and ships pending.
	sibDoc := newDoc(t)
	if err := embed.Draw(sibling, sibDoc); err != nil {
		t.Fatalf("sibling Draw failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatal("non-master draw must not trigger the lookup")
	}
	html, _ := sibDoc.Render()
	if !strings.Contains(html, `data-state="pending"`) {
		t.Errorf("sibling should be pending before master resolves: %s", html)
	}

	// Master draws: work runs once. The already-shipped sibling document
	// must not be mutated from the master's call; the result lands in
	// the family store instead.
	if err := embed.Draw(master, newDoc(t)); err != nil {
		t.Fatalf("master Draw failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("geo endpoint hit %d times, want 1", hits)
	}
	html, _ = sibDoc.Render()
	if !strings.Contains(html, `data-state="pending"`) {
		t.Errorf("shipped sibling document must stay untouched: %s", html)
	}

	// A sibling drawn after resolution renders the stored result inline.
	lateDoc := newDoc(t)
	late, _ := family.NewContext("geo", "", nil)
	if err := embed.Draw(late, lateDoc); err != nil {
		t.Fatalf("late Draw failed: %v", err)
	}
	html, _ = lateDoc.Render()
	if !strings.Contains(html, `data-country="US"`) {
		t.Errorf("late sibling should render the stored country: %s", html)
	}
}

func TestSiblingDocumentSafeDuringConcurrentResolve(t *testing.T) {
	var hits int32
	srv := geoServer(t, &hits)
	defer srv.Close()

	coord := coordinator.New(logging.NewNop())
	embed := New(coord, srv.URL, logging.NewNop())

	family := frame.NewFamily()
	master, _ := family.NewContext("geo", "", nil)
	sibling, _ := family.NewContext("geo", "", nil)

	sibDoc := newDoc(t)
	if err := embed.Draw(sibling, sibDoc); err != nil {
		t.Fatalf("sibling Draw failed: %v", err)
	}

	// The sibling keeps rendering its document while the master resolves
	// the shared task on another goroutine, as two overlapping render
	// requests would. Nothing may write to the sibling's tree.
	done := make(chan error, 1)
	go func() {
		done <- embed.Draw(master, newDoc(t))
	}()
	for i := 0; i < 100; i++ {
		if _, err := sibDoc.Render(); err != nil {
			t.Fatalf("sibling render failed: %v", err)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("master Draw failed: %v", err)
	}

	html, _ := sibDoc.Render()
	if !strings.Contains(html, `data-state="pending"`) {
		t.Errorf("sibling document changed under a concurrent resolve: %s", html)
	}
}

func TestLookupFailureEncodedInResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	coord := coordinator.New(logging.NewNop())
	embed := New(coord, srv.URL, logging.NewNop())

	family := frame.NewFamily()
	master, _ := family.NewContext("geo", "", nil)

	doc := newDoc(t)
	if err := embed.Draw(master, doc); err != nil {
		t.Fatalf("Draw must not fail on lookup errors, got: %v", err)
	}

	html, _ := doc.Render()
	if !strings.Contains(html, `data-state="error"`) {
		t.Errorf("lookup failure should surface as error state: %s", html)
	}
}

func TestPayloadAllowList(t *testing.T) {
	coord := coordinator.New(logging.NewNop())
	embed := New(coord, "https://unused.example", logging.NewNop())

	family := frame.NewFamily()
	fc, _ := family.NewContext("geo", "", map[string]any{"unexpected": true})

	if err := embed.Draw(fc, newDoc(t)); err == nil {
		t.Error("unexpected payload field must fail validation")
	}
}

func TestLabelRendered(t *testing.T) {
	var hits int32
	srv := geoServer(t, &hits)
	defer srv.Close()

	coord := coordinator.New(logging.NewNop())
	embed := New(coord, srv.URL, logging.NewNop())

	family := frame.NewFamily()
	fc, _ := family.NewContext("geo", "", map[string]any{"label": "Region:"})

	doc := newDoc(t)
	if err := embed.Draw(fc, doc); err != nil {
		t.Fatal(err)
	}
	html, _ := doc.Render()
	if !strings.Contains(html, "Region: US") {
		t.Errorf("label missing from banner: %s", html)
	}
}
