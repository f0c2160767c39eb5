package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/command"
)

type fakeCommand struct {
	command.Cancellable
	desc     string
	executed int
	undone   int
	mutate   func()
}

func newFakeCommand(desc string, mutate func()) *fakeCommand {
	return &fakeCommand{Cancellable: command.NewCancellable(true), desc: desc, mutate: mutate}
}

func (f *fakeCommand) Description() string   { return f.desc }
func (f *fakeCommand) Verb() string           { return "Doing " + f.desc }
func (f *fakeCommand) PastParticiple() string { return "Did " + f.desc }

func (f *fakeCommand) Execute(context.Context) bool {
	f.executed++
	if f.mutate != nil {
		f.mutate()
	}
	return true
}

func (f *fakeCommand) Undo() { f.undone++ }

func TestManager_ExecuteAddPushesUndoEntry(t *testing.T) {
	m := command.NewManager(nil)
	defer m.Close()

	cmd := newFakeCommand("first", nil)
	ok := m.Execute(cmd, command.ExecutePolicyAdd)
	require.True(t, ok)
	require.Equal(t, 1, cmd.executed)
	require.True(t, m.CanUndo())
	require.False(t, m.CanRedo())
}

func TestManager_UndoRedo(t *testing.T) {
	m := command.NewManager(nil)
	defer m.Close()

	var state int
	cmd := newFakeCommand("increment", func() { state++ })
	require.True(t, m.Execute(cmd, command.ExecutePolicyAdd))
	require.Equal(t, 1, state)

	require.True(t, m.Undo())
	require.Equal(t, 1, cmd.undone)
	require.True(t, m.CanRedo())

	require.True(t, m.Redo())
	require.Equal(t, 2, cmd.executed)
}

func TestManager_OncePolicyCollapsesContiguousExecutions(t *testing.T) {
	m := command.NewManager(nil)
	defer m.Close()

	m.Execute(newFakeCommand("rename", nil), command.ExecutePolicyOnce)
	m.Execute(newFakeCommand("rename", nil), command.ExecutePolicyOnce)
	m.Execute(newFakeCommand("rename", nil), command.ExecutePolicyOnce)

	require.True(t, m.CanUndo())
	require.True(t, m.Undo())
	require.False(t, m.CanUndo(), "three Once executions of the same command must collapse to one undo entry")
}

func TestManager_ReplacePolicyCallsReplaces(t *testing.T) {
	m := command.NewManager(nil)
	defer m.Close()

	first := &recordingEditCommand{name: "v1"}
	second := &recordingEditCommand{name: "v2"}

	m.Execute(first, command.ExecutePolicyReplace)
	m.Execute(second, command.ExecutePolicyReplace)

	require.Equal(t, "v1", second.replacedFrom)
	require.True(t, m.CanUndo())
	require.True(t, m.Undo())
	require.False(t, m.CanUndo())
}

type recordingEditCommand struct {
	command.Cancellable
	name         string
	replacedFrom string
}

func (r *recordingEditCommand) Description() string   { return "Edit" }
func (r *recordingEditCommand) Verb() string           { return "Editing" }
func (r *recordingEditCommand) PastParticiple() string { return "Edited" }
func (r *recordingEditCommand) Execute(context.Context) bool { return true }
func (r *recordingEditCommand) Undo()                        {}
func (r *recordingEditCommand) Replaces(prev command.Command) {
	p := prev.(*recordingEditCommand)
	r.replacedFrom = p.name
}

func TestManager_InvalidateStackClearsBothStacks(t *testing.T) {
	m := command.NewManager(nil)
	defer m.Close()

	m.Execute(newFakeCommand("a", nil), command.ExecutePolicyAdd)
	require.True(t, m.Undo())
	require.True(t, m.CanRedo())

	cleared := false
	m.AddListener(command.Listener{CommandStackCleared: func() { cleared = true }})
	m.InvalidateStack()

	require.True(t, cleared)
	require.False(t, m.CanUndo())
	require.False(t, m.CanRedo())
}
