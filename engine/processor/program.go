package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-graph/engine/program"
)

var (
	// ErrNoStore is returned by program operations on a node without a
	// program store.
	ErrNoStore = errors.New("processor: no program store")
	// ErrNoState is returned when the implementation holds no program
	// state.
	ErrNoState = errors.New("processor: implementation has no state")
	// ErrNoProgram is returned when no MIDI program is selected.
	ErrNoProgram = errors.New("processor: no program selected")
)

// SetMidiProgramStore sets where the node's programs are kept. key
// namespaces them within the store.
func (n *Node) SetMidiProgramStore(store program.Store, key string) {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	n.programStore = store
	n.programKey = key
}

// MidiProgramsEnabled reports whether incoming program changes switch the
// node's program.
func (n *Node) MidiProgramsEnabled() bool { return n.programsEnabled.Load() }

// SetMidiProgramsEnabled toggles reacting to incoming program changes.
func (n *Node) SetMidiProgramsEnabled(enabled bool) { n.programsEnabled.Store(enabled) }

// MidiProgram returns the selected program, or NoProgram.
func (n *Node) MidiProgram() int { return int(n.midiProgram.Load()) }

// SetMidiProgram selects a program and schedules loading it. Selecting
// the current program does nothing.
func (n *Node) SetMidiProgram(number int) error {
	if err := program.CheckNumber(number); err != nil {
		return err
	}

	if n.midiProgram.Swap(int32(number)) != int32(number) {
		n.ReloadMidiProgram()
	}

	return nil
}

// ReloadMidiProgram schedules loading the selected program on the control
// loop. It is safe from the render thread and reports whether the task
// was queued.
func (n *Node) ReloadMidiProgram() bool {
	return n.post(n.reloadTask)
}

// SaveMidiProgram schedules saving the node's state as the selected
// program.
func (n *Node) SaveMidiProgram() bool {
	return n.post(n.saveTask)
}

// MidiProgramName returns the name of a program, or "" when unknown.
func (n *Node) MidiProgramName(number int) string {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	return n.programNames[number]
}

// SetMidiProgramName names a program. The name is stored with the next
// save.
func (n *Node) SetMidiProgramName(number int, name string) error {
	if err := program.CheckNumber(number); err != nil {
		return err
	}

	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()

	n.programNames[number] = name

	return nil
}

func (n *Node) programTarget() (program.Store, string, StateHolder, int, error) {
	if n.state == nil {
		return nil, "", nil, 0, ErrNoState
	}

	number := n.MidiProgram()
	if number == NoProgram {
		return nil, "", nil, 0, ErrNoProgram
	}

	n.propertyLock.Lock()
	store, key := n.programStore, n.programKey
	n.propertyLock.Unlock()

	if store == nil {
		return nil, "", nil, 0, ErrNoStore
	}

	return store, key, n.state, number, nil
}

// LoadMidiProgramNow loads the selected program into the implementation
// and fires ProgramChanged. Control thread only.
func (n *Node) LoadMidiProgramNow(ctx context.Context) error {
	store, key, state, number, err := n.programTarget()
	if err != nil {
		return err
	}

	p, err := store.Load(ctx, key, number)
	if err != nil {
		return fmt.Errorf("processor: load program %d: %w", number, err)
	}

	if err := state.SetState(p.Data); err != nil {
		return fmt.Errorf("processor: restore program %d: %w", number, err)
	}

	n.propertyLock.Lock()
	if p.Name != "" {
		n.programNames[number] = p.Name
	}
	n.propertyLock.Unlock()

	n.ProgramChanged.Emit(number)

	return nil
}

// SaveMidiProgramNow stores the implementation state as the selected
// program. Control thread only.
func (n *Node) SaveMidiProgramNow(ctx context.Context) error {
	store, key, state, number, err := n.programTarget()
	if err != nil {
		return err
	}

	data, err := state.State()
	if err != nil {
		return fmt.Errorf("processor: capture program %d: %w", number, err)
	}

	p := program.Program{
		Number: number,
		Name:   n.MidiProgramName(number),
		Data:   data,
	}

	if err := store.Save(ctx, key, p); err != nil {
		return fmt.Errorf("processor: save program %d: %w", number, err)
	}

	return nil
}

func (n *Node) runProgramTask(task func(context.Context) error) {
	err := task(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, program.ErrNotFound), errors.Is(err, ErrNoProgram):
		n.log().Debug("program task skipped", "error", err)
	default:
		n.log().Warn("program task failed", "error", err)
	}
}
