// Package coordinator provides the cross-frame single-execution
// primitive for families of sandboxed embed frames.
//
// Many same-type frames often need one shared, possibly expensive
// computation (a geo lookup, a vendor bootstrap). One frame per family
// is designated master and hosts the shared task table; every frame
// calls RunOnce with an agreed task ID and a callback. The work runs
// at most once, and the single result is fanned out to every caller,
// including callers that arrive after resolution.
//
// Task IDs are caller-chosen strings; callers sharing a result must
// agree on the ID and should namespace it with their embed type
// ("geo.lookup") to avoid collisions with unrelated tasks.
//
// A resolved result is permanent for the master's lifetime; there is
// no cancellation and no built-in error channel. Callers that need to
// communicate failure encode it into the result value.
package coordinator
