package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"SynthForge/internal/domain"
)

func TestRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		score       float64
		autoApprove bool
		want        Destination
	}{
		{"high score approved", 0.95, false, DestinationApproved},
		{"exact approve threshold", 0.8, false, DestinationApproved},
		{"mid band held", 0.75, false, DestinationNeedsRevisionHold},
		{"mid band auto-approved", 0.75, true, DestinationNeedsRevisionStore},
		{"exact revision threshold held", 0.6, false, DestinationNeedsRevisionHold},
		{"low score rejected", 0.4, false, DestinationRejected},
		{"low score rejected despite auto-approve", 0.4, true, DestinationRejected},
		{"zero score rejected", 0.0, false, DestinationRejected},
		{"perfect score", 1.0, true, DestinationApproved},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Route(tt.score, tt.autoApprove)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRouteRejectsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	for _, score := range []float64{-0.01, 1.2, 2.0, -5} {
		_, err := Route(score, false)
		var scoreErr *domain.InvalidScoreError
		require.ErrorAs(t, err, &scoreErr)
		require.Equal(t, score, scoreErr.Score)
	}
}

func TestDestinationStored(t *testing.T) {
	t.Parallel()

	require.True(t, DestinationApproved.Stored())
	require.True(t, DestinationNeedsRevisionStore.Stored())
	require.False(t, DestinationNeedsRevisionHold.Stored())
	require.False(t, DestinationRejected.Stored())
}

func TestFinalStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, domain.StatusApproved, DestinationApproved.FinalStatus())
	require.Equal(t, domain.StatusApproved, DestinationNeedsRevisionStore.FinalStatus())
	require.Equal(t, domain.StatusReviewed, DestinationNeedsRevisionHold.FinalStatus())
	require.Equal(t, domain.StatusRejected, DestinationRejected.FinalStatus())
}
