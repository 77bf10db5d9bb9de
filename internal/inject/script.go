package inject

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/sandbox"
)

var (
	// ErrInsecureURL is returned for non-https script sources.
	ErrInsecureURL = errors.New("script URL must use https")
	// ErrHostNotAllowed is returned when a script host is outside the allow-list.
	ErrHostNotAllowed = errors.New("script host is not allowed")
)

// URLPolicy constrains where scripts may be injected from.
type URLPolicy struct {
	RequireHTTPS bool
	AllowedHosts []string // empty means any host
}

// DefaultURLPolicy requires https and allows any host.
func DefaultURLPolicy() URLPolicy {
	return URLPolicy{RequireHTTPS: true}
}

// Validate checks a script source URL against the policy.
func (p URLPolicy) Validate(src string) error {
	u, err := url.Parse(src)
	if err != nil {
		return fmt.Errorf("invalid script URL %q: %w", src, err)
	}
	if p.RequireHTTPS && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrInsecureURL, src)
	}
	if len(p.AllowedHosts) > 0 {
		allowed := false
		for _, host := range p.AllowedHosts {
			if u.Host == host {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %q", ErrHostNotAllowed, u.Host)
		}
	}
	return nil
}

// WriteScript synchronously writes a script tag into the document
// head, the server-side equivalent of a markup write. The script is
// part of the document before it ever reaches the frame.
func WriteScript(d *Document, src string, policy URLPolicy) error {
	if err := policy.Validate(src); err != nil {
		return err
	}
	d.doc.Find("head").AppendHtml(fmt.Sprintf(`<script src=%q></script>`, src))
	if d.metrics != nil {
		d.metrics.ScriptsWritten.Inc()
	}
	return nil
}

// LoadScript asynchronously loads a script: the tag is created and
// appended to the document body, and onLoad is queued to fire once the
// script has been fetched (and evaluated, when a sandbox is attached)
// during Flush. Load callbacks fire in write order. onLoad may be nil.
func LoadScript(d *Document, src string, onLoad func(), policy URLPolicy) error {
	if err := policy.Validate(src); err != nil {
		return err
	}
	d.doc.Find("body").AppendHtml(fmt.Sprintf(`<script src=%q async></script>`, src))
	d.pending = append(d.pending, &pendingScript{url: src, onLoad: onLoad})
	return nil
}

// Flush resolves all queued script loads in write order: each script
// body is fetched, evaluated in the frame's sandbox when vm is
// non-nil, and its onLoad callback fired. A script that fails to fetch
// or evaluate is skipped without blocking the chain: its onLoad never
// fires, matching a script element whose load never completes.
// Flush returns the first error encountered; the chain always runs to
// the end.
func Flush(ctx context.Context, d *Document, fetcher *Fetcher, vm *sandbox.VM) error {
	var firstErr error
	queue := d.pending
	d.pending = nil

	for _, p := range queue {
		body, err := fetcher.Fetch(ctx, p.url)
		if err != nil {
			if d.metrics != nil {
				d.metrics.ScriptFetchErrors.Inc()
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch %s: %w", p.url, err)
			}
			continue
		}

		if vm != nil {
			if _, err := vm.Execute(ctx, string(body)); err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("evaluate %s: %w", p.url, err)
				}
				continue
			}
		}

		if d.metrics != nil {
			d.metrics.ScriptsLoaded.Inc()
		}
		if p.onLoad != nil {
			p.onLoad()
		}
	}
	return firstErr
}
