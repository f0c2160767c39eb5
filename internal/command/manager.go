package command

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// BusyState is a bitmask of what the manager's worker is currently doing,
// logged transition-by-transition when BUSY_STATE_DEBUG is set (spec §6,
// "Environment variables").
type BusyState int

const (
	BusyQueued BusyState = 1 << iota
	BusyExecuting
	BusyCancelling
	BusyUndoing
)

// Listener receives CommandManager notifications (spec §4.8: "started,
// finished, commandProgressChanged, commandPhaseChanged,
// commandIsCancellableChanged, commandStackCleared"). Any field may be nil.
type Listener struct {
	Started                     func(description string)
	Finished                    func()
	CommandProgressChanged      func(progress int)
	CommandPhaseChanged         func(phase string)
	CommandIsCancellableChanged func(cancellable bool)
	CommandStackCleared         func()
}

// progressReporter is implemented by commands embedding Cancellable; the
// manager wires its hooks to forward live progress/phase updates to
// listeners for whichever command is currently active.
type progressReporter interface {
	OnProgress(func(int))
	OnPhase(func(string))
}

type job struct {
	id      uuid.UUID
	cmd     Command
	policy  ExecutePolicy
	done    chan struct{}
	succeed bool
}

// Manager is the CommandManager: a single worker goroutine draining a
// queue of submitted commands, plus undo/redo stacks (spec §4.8, §5:
// "The worker thread is a single goroutine draining a buffered channel of
// queued commands").
type Manager struct {
	log hclog.Logger

	mu        sync.Mutex
	undoStack []entry
	redoStack []entry

	listeners    map[int]Listener
	nextListener int

	queue  chan job
	busy   BusyState
	debug  bool
	active Command

	closed chan struct{}
}

// NewManager starts the worker goroutine and returns a ready Manager.
func NewManager(log hclog.Logger) *Manager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	m := &Manager{
		log:       log,
		listeners: make(map[int]Listener),
		queue:     make(chan job, 64),
		debug:     os.Getenv("BUSY_STATE_DEBUG") != "",
		closed:    make(chan struct{}),
	}
	go m.worker()
	return m
}

func (m *Manager) setBusy(bit BusyState, on bool) {
	before := m.busy
	if on {
		m.busy |= bit
	} else {
		m.busy &^= bit
	}
	if m.debug && before != m.busy {
		m.log.Info("busy state transition", "from", before, "to", m.busy)
	}
}

func (m *Manager) AddListener(l Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = l
	return id
}

func (m *Manager) RemoveListener(handle int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, handle)
}

func (m *Manager) forEachListener(fn func(Listener)) {
	m.mu.Lock()
	ls := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		ls = append(ls, l)
	}
	m.mu.Unlock()
	for _, l := range ls {
		fn(l)
	}
}

// Execute submits cmd under policy and blocks until it has run (spec §4.8:
// commands run on the worker thread; Execute itself is the synchronous
// caller-facing half, mirroring the host API's apply()/undo()/redo()
// returning once the worker has acted). It returns whether cmd succeeded.
func (m *Manager) Execute(cmd Command, policy ExecutePolicy) bool {
	j := job{id: uuid.New(), cmd: cmd, policy: policy, done: make(chan struct{})}
	m.setBusy(BusyQueued, true)
	m.queue <- j
	<-j.done
	return j.succeed
}

func (m *Manager) worker() {
	for j := range m.queue {
		m.runJob(j)
	}
}

func (m *Manager) runJob(j job) {
	m.setBusy(BusyQueued, false)
	m.setBusy(BusyExecuting, true)
	defer m.setBusy(BusyExecuting, false)

	m.mu.Lock()
	m.active = j.cmd
	m.mu.Unlock()

	if reporter, ok := j.cmd.(progressReporter); ok {
		reporter.OnProgress(func(p int) {
			m.forEachListener(func(l Listener) {
				if l.CommandProgressChanged != nil {
					l.CommandProgressChanged(p)
				}
			})
		})
		reporter.OnPhase(func(phase string) {
			m.forEachListener(func(l Listener) {
				if l.CommandPhaseChanged != nil {
					l.CommandPhaseChanged(phase)
				}
			})
		})
	}

	m.forEachListener(func(l Listener) {
		if l.Started != nil {
			l.Started(j.cmd.Description())
		}
		if l.CommandIsCancellableChanged != nil {
			l.CommandIsCancellableChanged(j.cmd.Cancellable())
		}
	})

	ok := j.cmd.Execute(context.Background())

	m.mu.Lock()
	m.active = nil
	if ok {
		m.pushLocked(j.id, j.cmd, j.policy)
	}
	m.mu.Unlock()

	j.succeed = ok
	close(j.done)

	m.forEachListener(func(l Listener) {
		if l.Finished != nil {
			l.Finished()
		}
	})
}

// pushLocked folds cmd onto the undo stack per policy (caller holds m.mu).
func (m *Manager) pushLocked(id uuid.UUID, cmd Command, policy ExecutePolicy) {
	m.redoStack = nil

	top := func() (entry, bool) {
		if len(m.undoStack) == 0 {
			return entry{}, false
		}
		return m.undoStack[len(m.undoStack)-1], true
	}

	switch policy {
	case ExecutePolicyOnce:
		if prev, ok := top(); ok && sameKind(prev.cmd, cmd) {
			m.undoStack[len(m.undoStack)-1] = entry{id: id, cmd: cmd}
			return
		}
	case ExecutePolicyOnceMutate:
		if prev, ok := top(); ok && sameKind(prev.cmd, cmd) {
			if merger, ok := cmd.(Merger); ok {
				merger.Merge(prev.cmd)
			}
			m.undoStack[len(m.undoStack)-1] = entry{id: id, cmd: cmd}
			return
		}
	case ExecutePolicyReplace:
		if prev, ok := top(); ok {
			if replacer, ok := cmd.(Replacer); ok {
				replacer.Replaces(prev.cmd)
			}
			m.undoStack[len(m.undoStack)-1] = entry{id: id, cmd: cmd}
			return
		}
	}
	m.undoStack = append(m.undoStack, entry{id: id, cmd: cmd})
}

// Undo pops the most recent undo-stack entry, calls its Undo, and pushes it
// onto the redo stack.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return false
	}
	e := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.mu.Unlock()

	m.setBusy(BusyUndoing, true)
	e.cmd.Undo()
	m.setBusy(BusyUndoing, false)

	m.mu.Lock()
	m.redoStack = append(m.redoStack, e)
	m.mu.Unlock()
	return true
}

// Redo re-executes the most recently undone entry.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return false
	}
	e := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.mu.Unlock()

	ok := e.cmd.Execute(context.Background())

	m.mu.Lock()
	if ok {
		m.undoStack = append(m.undoStack, e)
	}
	m.mu.Unlock()
	return ok
}

// CancelCommand requests cancellation of whatever command is currently
// executing, if any and if it reports itself cancellable.
func (m *Manager) CancelCommand() {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if active == nil || !active.Cancellable() {
		return
	}
	m.setBusy(BusyCancelling, true)
	defer m.setBusy(BusyCancelling, false)
	active.Cancel()
}

// InvalidateStack clears the undo/redo stacks, used when the graph is
// mutated outside command control and the history is no longer consistent
// (spec §4.8: "If a command mutates the graph outside command control, the
// undo stack is cleared").
func (m *Manager) InvalidateStack() {
	m.mu.Lock()
	m.undoStack = nil
	m.redoStack = nil
	m.mu.Unlock()
	m.forEachListener(func(l Listener) {
		if l.CommandStackCleared != nil {
			l.CommandStackCleared()
		}
	})
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// Close stops accepting new commands and shuts down the worker goroutine.
// It does not cancel an in-flight command.
func (m *Manager) Close() {
	close(m.queue)
}
