// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import "github.com/stratastor/logger"

// State is one stage of a single device's sanitize run.
//
//	INIT → PROBED → CLASSIFIED → [METHOD_PROMOTED?] →
//	  (verification_enabled ? PRE_VERIFIED : ready) →
//	  STEPS_RAN → (verification_enabled ? POST_VERIFIED : ready) →
//	  RESULT_COMPUTED → EMITTED
//
// A device can also terminate early at any state on a structural error
// (DeviceNotFound, MountedVolume, InformationMismatch, UnknownMedia,
// UnknownTool) — those are reported by Run itself, not modeled as states
// here.
type State string

const (
	StateInit             State = "INIT"
	StateProbed           State = "PROBED"
	StateClassified       State = "CLASSIFIED"
	StateMethodPromoted   State = "METHOD_PROMOTED"
	StatePreVerified      State = "PRE_VERIFIED"
	StateStepsRan         State = "STEPS_RAN"
	StatePostVerified     State = "POST_VERIFIED"
	StateResultComputed   State = "RESULT_COMPUTED"
	StateEmitted          State = "EMITTED"
)

// stateMachine validates and logs the forward-only progression above. It
// carries no per-device data; Run holds the Sanitize Record being built.
type stateMachine struct {
	logger      logger.Logger
	devPath     string
	transitions map[State][]State
	current     State
}

func newStateMachine(l logger.Logger, devPath string) *stateMachine {
	sm := &stateMachine{logger: l, devPath: devPath, current: StateInit}
	sm.transitions = map[State][]State{
		StateInit:           {StateProbed},
		StateProbed:         {StateClassified},
		StateClassified:     {StateMethodPromoted, StatePreVerified, StateStepsRan},
		StateMethodPromoted: {StatePreVerified, StateStepsRan},
		StatePreVerified:    {StateStepsRan, StateResultComputed},
		StateStepsRan:       {StatePostVerified, StateResultComputed},
		StatePostVerified:   {StateResultComputed},
		StateResultComputed: {StateEmitted},
	}
	return sm
}

func (sm *stateMachine) canTransition(next State) bool {
	for _, s := range sm.transitions[sm.current] {
		if s == next {
			return true
		}
	}
	return false
}

// advance moves to next, logging the transition; it panics on a
// programming error (an orchestrator wiring mistake), never on device data,
// since the transition graph above is fixed at compile time.
func (sm *stateMachine) advance(next State) {
	if !sm.canTransition(next) {
		panic("sanitize orchestrator: invalid state transition " + string(sm.current) + " -> " + string(next))
	}
	sm.logger.Debug("sanitize state transition", "device_path", sm.devPath, "from", sm.current, "to", next)
	sm.current = next
}
