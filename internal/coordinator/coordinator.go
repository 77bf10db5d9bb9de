package coordinator

import (
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/logging"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/monitoring"
)

var (
	// ErrEmptyTaskID is returned when RunOnce is called without a task ID.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")
	// ErrNilWork is returned when RunOnce is called without a work function.
	ErrNilWork = errors.New("work function cannot be nil")
	// ErrNilCallback is returned when RunOnce is called without a callback.
	ErrNilCallback = errors.New("callback cannot be nil")
)

// Coordinator deduplicates a unit of work across N frame contexts that
// share a single designated master context and fans the result out to
// every caller.
//
// For a given task ID the work function executes at most once per
// master lifetime, no matter how many contexts call RunOnce or how
// often. Every callback is invoked exactly once with the same result;
// callbacks registered after resolution are invoked immediately with
// the stored value.
type Coordinator struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a coordinator.
func New(log *logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Coordinator{log: log.Named("coordinator")}
}

// WithMetrics attaches a metrics collector.
func (c *Coordinator) WithMetrics(m *monitoring.Metrics) *Coordinator {
	c.metrics = m
	return c
}

// RunOnce registers cb for the result of taskID within host's frame
// family and, when the calling context is the designated master,
// starts the work if it has not started yet.
//
// Non-master contexts only register interest; if the master never
// calls RunOnce for taskID the callbacks never fire, which is a caller
// contract violation and deliberately not handled here.
//
// A panic from work itself propagates to the invoking context and does
// not poison the task entry. During fan-out each queued callback is
// invoked in enqueue order and isolated: a panicking callback is
// logged and delivery continues with the next one.
func (c *Coordinator) RunOnce(host Host, taskID string, work WorkFunc, cb Callback) error {
	if taskID == "" {
		return ErrEmptyTaskID
	}
	if work == nil {
		return ErrNilWork
	}
	if cb == nil {
		return ErrNilCallback
	}

	table := host.SharedTasks()

	table.mu.Lock()
	entry := table.lookupOrCreate(taskID)

	if entry.state == taskResolved {
		result := entry.result
		table.mu.Unlock()
		if c.metrics != nil {
			c.metrics.LateDeliveries.WithLabelValues(taskID).Inc()
		}
		// Same-turn delivery; a panic here belongs to this caller.
		cb(result)
		return nil
	}

	entry.waiters = append(entry.waiters, cb)
	if len(entry.waiters) > 1 && c.metrics != nil {
		c.metrics.TaskJoins.WithLabelValues(taskID).Inc()
	}

	if !host.IsMaster() {
		table.mu.Unlock()
		return nil
	}

	if entry.started {
		// The master already kicked off the work; this call only
		// registered one more waiter.
		table.mu.Unlock()
		return nil
	}
	entry.started = true
	table.mu.Unlock()

	if c.metrics != nil {
		c.metrics.TasksStarted.WithLabelValues(taskID).Inc()
	}
	c.log.Debug("starting shared task", zap.String("task", taskID))

	work(func(result any) {
		c.resolve(table, taskID, result)
	})
	return nil
}

// resolve transitions taskID to the resolved state and synchronously
// delivers the result to every queued callback in enqueue order. Only
// the first resolution for a task takes effect.
func (c *Coordinator) resolve(table *Table, taskID string, result any) {
	table.mu.Lock()
	entry, ok := table.tasks[taskID]
	if !ok || entry.state == taskResolved {
		table.mu.Unlock()
		return
	}
	entry.state = taskResolved
	entry.result = result
	waiters := entry.waiters
	entry.waiters = nil
	table.mu.Unlock()

	if c.metrics != nil {
		c.metrics.TasksResolved.WithLabelValues(taskID).Inc()
		c.metrics.FanoutSize.Observe(float64(len(waiters)))
	}
	c.log.Debug("shared task resolved",
		zap.String("task", taskID),
		zap.Int("waiters", len(waiters)),
	)

	for _, w := range waiters {
		c.deliver(taskID, w, result)
	}
}

// deliver invokes one queued callback, isolating panics so one failing
// consumer cannot abort delivery to the rest of the queue.
func (c *Coordinator) deliver(taskID string, cb Callback, result any) {
	defer func() {
		if r := recover(); r != nil {
			if c.metrics != nil {
				c.metrics.CallbackPanics.Inc()
			}
			c.log.Error("embed callback panicked during fan-out",
				zap.String("task", taskID),
				zap.Any("panic", r),
			)
		}
	}()
	cb(result)
}
