// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"testing"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "orchestrator-test")
	require.NoError(t, err)
	return l
}

func TestStateMachine_HappyPathWithVerification(t *testing.T) {
	sm := newStateMachine(testLogger(t), "/dev/sda")

	sm.advance(StateProbed)
	sm.advance(StateClassified)
	sm.advance(StateMethodPromoted)
	sm.advance(StatePreVerified)
	sm.advance(StateStepsRan)
	sm.advance(StatePostVerified)
	sm.advance(StateResultComputed)
	sm.advance(StateEmitted)

	assert.Equal(t, StateEmitted, sm.current)
}

func TestStateMachine_SkipsPromotionAndVerificationForHDDWithoutIt(t *testing.T) {
	sm := newStateMachine(testLogger(t), "/dev/sda")

	sm.advance(StateProbed)
	sm.advance(StateClassified)
	sm.advance(StateStepsRan)
	sm.advance(StateResultComputed)
	sm.advance(StateEmitted)

	assert.Equal(t, StateEmitted, sm.current)
}

func TestStateMachine_PreVerifyFailureSkipsStraightToResult(t *testing.T) {
	sm := newStateMachine(testLogger(t), "/dev/sda")

	sm.advance(StateProbed)
	sm.advance(StateClassified)
	sm.advance(StatePreVerified)
	sm.advance(StateResultComputed)
	sm.advance(StateEmitted)

	assert.Equal(t, StateEmitted, sm.current)
}

func TestStateMachine_InvalidTransitionPanics(t *testing.T) {
	sm := newStateMachine(testLogger(t), "/dev/sda")

	assert.Panics(t, func() {
		sm.advance(StateEmitted)
	})
}
