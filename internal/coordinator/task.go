package coordinator

import "sync"

// Callback receives the single result computed for a shared task. Each
// callback passed to RunOnce is invoked exactly once.
type Callback func(result any)

// WorkFunc performs the shared computation. It must invoke resolve
// exactly once with the result, synchronously or at any later point.
type WorkFunc func(resolve func(result any))

// Host is the contract the hosting environment supplies per frame
// context: the designation of whether the calling context is the
// master, and a handle to the single shared task table owned by the
// master.
type Host interface {
	IsMaster() bool
	SharedTasks() *Table
}

type taskState uint8

const (
	taskPending taskState = iota
	taskResolved
)

// task is the tagged per-taskID state: Pending carries the ordered
// callback queue, Resolved carries the immutable result.
type task struct {
	state   taskState
	started bool
	waiters []Callback
	result  any
}

// Table is the shared task registry owned by a master context. The
// zero value is ready to use; entries are created lazily on first
// RunOnce for a task ID and a resolved entry is retained for the
// remaining lifetime of the master.
//
// The original embed runtime mutated this state on a single-threaded
// event loop. This port is called from goroutines, so all access goes
// through the table mutex; the type is safe for concurrent use.
type Table struct {
	mu    sync.Mutex
	tasks map[string]*task
}

// lookupOrCreate returns the entry for taskID, creating a pending one
// on first use. Caller must hold mu.
func (t *Table) lookupOrCreate(taskID string) *task {
	if t.tasks == nil {
		t.tasks = make(map[string]*task)
	}
	entry, ok := t.tasks[taskID]
	if !ok {
		entry = &task{state: taskPending}
		t.tasks[taskID] = entry
	}
	return entry
}

// Resolved reports whether taskID has reached the resolved state.
func (t *Table) Resolved(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.tasks[taskID]
	return ok && entry.state == taskResolved
}

// Pending returns the number of callbacks waiting on taskID.
func (t *Table) Pending(taskID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.tasks[taskID]
	if !ok {
		return 0
	}
	return len(entry.waiters)
}
