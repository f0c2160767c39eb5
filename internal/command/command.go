// Package command implements the CommandManager (spec §4.8): a
// single-worker undo/redo executor for the operations that mutate a
// document (applying transforms, editing attributes, and so on).
package command

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
)

// Command is the interface every undoable operation implements (spec
// §4.8, "ICommand").
type Command interface {
	Description() string
	Verb() string
	PastParticiple() string

	// Execute performs the command's work and reports whether it
	// completed successfully; a false return (or ctx cancellation) means
	// the command does not get pushed onto the undo stack.
	Execute(ctx context.Context) bool
	Undo()

	Cancellable() bool
	Cancel()

	Progress() int
	Phase() string
}

// Replacer is implemented by commands registered under ExecutePolicyReplace;
// Replaces lets the new command steal state from the one it displaces (most
// commonly a previousVisualisations-style snapshot), per spec §4.8's
// "replaces(prev) downcasts/pattern-matches on the prior command's concrete
// type; rejecting mismatched replacements is a programming error."
type Replacer interface {
	Replaces(prev Command)
}

// Merger is implemented by commands registered under
// ExecutePolicyOnceMutate; Merge folds prev's effect into the receiver so
// the two collapse into a single undo-stack entry.
type Merger interface {
	Merge(prev Command)
}

// ExecutePolicy controls how Execute folds a new command into the undo
// stack (spec §4.8).
type ExecutePolicy int

const (
	// ExecutePolicyAdd always pushes a new undo-stack entry.
	ExecutePolicyAdd ExecutePolicy = iota
	// ExecutePolicyOnce collapses a run of equivalent commands (same
	// concrete type and same Description) into the existing top entry.
	ExecutePolicyOnce
	// ExecutePolicyOnceMutate is like Once, but additionally asks the new
	// command to Merge the one it collapses with.
	ExecutePolicyOnceMutate
	// ExecutePolicyReplace unconditionally overwrites the top entry,
	// after calling the new command's Replaces hook on the old one.
	ExecutePolicyReplace
)

// entry is one undo-stack slot: the command plus the id it was submitted
// under, for progress/cancel correlation while it is the active command.
type entry struct {
	id  uuid.UUID
	cmd Command
}

func sameKind(a, b Command) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b) && a.Description() == b.Description()
}

func (e entry) String() string {
	return fmt.Sprintf("%s (%s)", e.cmd.Description(), e.id)
}

// Cancellable is embedded by concrete Command implementations to supply
// Cancellable/Cancel/Progress/Phase, the same shape as
// transform.Cancellable, plus the OnProgress/OnPhase hooks the manager uses
// to forward live updates to its listeners while the command is active.
type Cancellable struct {
	cancellable bool
	cancelled   int32
	progress    int32
	phase       atomic.Value // string

	progressFn func(int)
	phaseFn    func(string)
}

// NewCancellable returns a Cancellable reporting itself cancellable or not
// as given; most long-running commands (transform apply, enrichment) are
// cancellable, while simple attribute edits are not.
func NewCancellable(cancellable bool) Cancellable {
	return Cancellable{cancellable: cancellable}
}

func (c *Cancellable) Cancellable() bool { return c.cancellable }
func (c *Cancellable) Cancel()           { atomic.StoreInt32(&c.cancelled, 1) }
func (c *Cancellable) Cancelled() bool   { return atomic.LoadInt32(&c.cancelled) != 0 }

func (c *Cancellable) SetProgress(i int) {
	atomic.StoreInt32(&c.progress, int32(i))
	if c.progressFn != nil {
		c.progressFn(i)
	}
}
func (c *Cancellable) Progress() int { return int(atomic.LoadInt32(&c.progress)) }

func (c *Cancellable) SetPhase(phase string) {
	c.phase.Store(phase)
	if c.phaseFn != nil {
		c.phaseFn(phase)
	}
}
func (c *Cancellable) Phase() string {
	if v := c.phase.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (c *Cancellable) OnProgress(fn func(int))  { c.progressFn = fn }
func (c *Cancellable) OnPhase(fn func(string))  { c.phaseFn = fn }
