package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTrainingType(t *testing.T) {
	t.Parallel()

	for _, tt := range TrainingTypes() {
		parsed, err := ParseTrainingType(string(tt))
		require.NoError(t, err)
		require.Equal(t, tt, parsed)
	}

	_, err := ParseTrainingType("finetune")
	var perm *PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	terminal := []Status{StatusApproved, StatusRejected, StatusFailed}
	for _, s := range terminal {
		require.True(t, s.Terminal(), string(s))
	}
	open := []Status{StatusPending, StatusResearched, StatusGenerated, StatusReviewed}
	for _, s := range open {
		require.False(t, s.Terminal(), string(s))
	}
}

func TestStageOrdering(t *testing.T) {
	t.Parallel()

	require.True(t, StagePending.Before(StageReviewed))
	require.True(t, StageResearching.Before(StageReadyForGeneration))
	require.False(t, StageReviewed.Before(StagePending))
	require.False(t, StageGenerated.Before(StageGenerated))

	require.True(t, StagePending.Known())
	require.False(t, Stage("archived").Known())
}

func TestStageCanAdvanceTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from Stage
		to   Stage
		ok   bool
	}{
		{StagePending, StageResearching, true},
		// Research is optional: pending may jump straight to ready.
		{StagePending, StageReadyForGeneration, true},
		{StageResearching, StageReadyForGeneration, true},
		{StageReadyForGeneration, StageGenerated, true},
		{StageGenerated, StageReviewed, true},

		// No skipping.
		{StagePending, StageGenerated, false},
		{StageResearching, StageReviewed, false},
		// No moving backwards.
		{StageReviewed, StageGenerated, false},
		{StageGenerated, StagePending, false},
		{StageReadyForGeneration, StageReadyForGeneration, false},
		// Unknown stages never transition.
		{Stage("archived"), StageReviewed, false},
		{StagePending, Stage("archived"), false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.ok, tt.from.CanAdvanceTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
