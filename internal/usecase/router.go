package usecase

import "SynthForge/internal/domain"

// Destination is where a reviewed example ends up.
type Destination string

const (
	DestinationApproved           Destination = "approved"
	DestinationNeedsRevisionStore Destination = "needs_revision_stored"
	DestinationNeedsRevisionHold  Destination = "needs_revision_held"
	DestinationRejected           Destination = "rejected"
)

// Stored reports whether the destination persists to a final table.
func (d Destination) Stored() bool {
	return d == DestinationApproved || d == DestinationNeedsRevisionStore
}

// Routing thresholds over the review quality score.
const (
	approveThreshold  = 0.8
	revisionThreshold = 0.6
)

// Route maps a review quality score to a storage destination. autoApprove is
// an explicit escape hatch that persists mid-band examples; it never rescues
// scores below the revision threshold. Scores outside [0,1] are a contract
// violation and are surfaced, not clamped.
func Route(score float64, autoApprove bool) (Destination, error) {
	if score < 0 || score > 1 {
		return "", &domain.InvalidScoreError{Score: score}
	}

	switch {
	case score >= approveThreshold:
		return DestinationApproved, nil
	case score >= revisionThreshold:
		if autoApprove {
			return DestinationNeedsRevisionStore, nil
		}
		return DestinationNeedsRevisionHold, nil
	default:
		return DestinationRejected, nil
	}
}

// FinalStatus converts a destination into the question's terminal (or parked)
// coarse status.
func (d Destination) FinalStatus() domain.Status {
	switch d {
	case DestinationApproved, DestinationNeedsRevisionStore:
		return domain.StatusApproved
	case DestinationNeedsRevisionHold:
		return domain.StatusReviewed
	default:
		return domain.StatusRejected
	}
}
