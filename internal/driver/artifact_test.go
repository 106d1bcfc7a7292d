package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jitcore/internal/speculate"
)

func TestArtifactValidateEmptyIsValid(t *testing.T) {
	a := &Artifact{}
	assert.True(t, a.validate())
}

func TestArtifactValidateMatchedGuardsAndTriggers(t *testing.T) {
	a := &Artifact{
		Guards: []speculate.GuardDescriptor{
			{ID: 0},
			{ID: 1},
		},
		DeoptInfo: []speculate.DeoptTrigger{
			{GuardID: 0},
			{GuardID: 1},
		},
	}
	assert.True(t, a.validate())
}

func TestArtifactValidateRejectsMismatchedLengths(t *testing.T) {
	a := &Artifact{
		Guards:    []speculate.GuardDescriptor{{ID: 0}},
		DeoptInfo: []speculate.DeoptTrigger{{GuardID: 0}, {GuardID: 1}},
	}
	assert.False(t, a.validate())
}

func TestArtifactValidateRejectsOutOfOrderTrigger(t *testing.T) {
	a := &Artifact{
		Guards: []speculate.GuardDescriptor{
			{ID: 0},
			{ID: 1},
		},
		DeoptInfo: []speculate.DeoptTrigger{
			{GuardID: 1},
			{GuardID: 0},
		},
	}
	assert.False(t, a.validate())
}

func TestArtifactValidateRejectsDanglingGuardID(t *testing.T) {
	a := &Artifact{
		Guards:    []speculate.GuardDescriptor{{ID: 0}},
		DeoptInfo: []speculate.DeoptTrigger{{GuardID: 5}},
	}
	assert.False(t, a.validate())
}
