package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"SynthForge/internal/domain"
)

func TestFormatSummary(t *testing.T) {
	t.Parallel()

	summary := domain.ProgressSummary{BatchID: "b-1", Total: 4}
	summary.Stages.Researched = 4
	summary.Stages.Generated = 3
	summary.Stages.Reviewed = 3
	summary.Stages.Approved = 2
	summary.Stages.Failed = 1

	text := formatSummary(summary)
	require.Contains(t, text, "*Batch b-1*")
	require.Contains(t, text, "Total: 4")
	require.Contains(t, text, "Approved: 2")
	require.Contains(t, text, "Failed: 1")
	require.Contains(t, text, "Completion: 50.0%")
}

func TestPublishSummaryMisconfigured(t *testing.T) {
	t.Parallel()

	n := NewNotifier("", "")
	err := n.PublishSummary(context.Background(), domain.ProgressSummary{})
	require.Error(t, err)
}
