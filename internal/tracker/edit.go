package tracker

import (
	"context"

	"github.com/looplab/fsm"
)

// Edit session states and events. An edit surface is either idle or editing
// exactly one record; beginning a new edit while one is in progress replaces
// it, and a failed save keeps the session open so entered values survive.
const (
	stateIdle    = "idle"
	stateEditing = "editing"

	eventBegin  = "begin"
	eventSave   = "save"
	eventFail   = "fail"
	eventCancel = "cancel"
)

// editSession wraps a two-state machine with the id of the record under
// edit. Callers hold the Tracker mutex; the session itself is not locked.
type editSession struct {
	fsm *fsm.FSM
	id  string
}

func newEditSession() *editSession {
	return &editSession{fsm: newEditFSM()}
}

func newEditFSM() *fsm.FSM {
	return fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventBegin, Src: []string{stateIdle, stateEditing}, Dst: stateEditing},
			{Name: eventSave, Src: []string{stateEditing}, Dst: stateIdle},
			{Name: eventFail, Src: []string{stateEditing}, Dst: stateEditing},
			{Name: eventCancel, Src: []string{stateIdle, stateEditing}, Dst: stateIdle},
		},
		fsm.Callbacks{},
	)
}

// current returns the id being edited, or empty when idle.
func (s *editSession) current() string {
	if s.fsm.Current() != stateEditing {
		return ""
	}
	return s.id
}

// begin starts editing the given record, replacing any edit in progress.
func (s *editSession) begin(id string) {
	s.trigger(eventBegin)
	s.id = id
}

// save closes the session when the saved record is the one under edit.
// Saves of other records leave a concurrent edit untouched.
func (s *editSession) save(id string) {
	if s.fsm.Current() != stateEditing || s.id != id {
		return
	}
	s.trigger(eventSave)
	s.id = ""
}

// fail records a failed save; the session stays in editing.
func (s *editSession) fail() {
	if s.fsm.Current() != stateEditing {
		return
	}
	s.trigger(eventFail)
}

// cancel abandons the edit without touching stored data.
func (s *editSession) cancel() {
	if s.fsm.Current() == stateIdle {
		return
	}
	s.trigger(eventCancel)
	s.id = ""
}

// reset drops the session unconditionally, used on sign-out.
func (s *editSession) reset() {
	s.fsm = newEditFSM()
	s.id = ""
}

func (s *editSession) trigger(event string) {
	// Call sites guard the current state, so every trigger is legal.
	// Self-transitions (begin while editing, fail) report
	// fsm.NoTransitionError, which is expected here.
	_ = s.fsm.Event(context.Background(), event)
}
