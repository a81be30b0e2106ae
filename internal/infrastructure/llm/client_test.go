package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SynthForge/internal/config"
	"SynthForge/internal/domain"
)

func completion(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.ModelConfig{
		Endpoint: server.URL,
		Model:    "test-model",
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
	}, nil)
}

func researchedQuestion(tt domain.TrainingType) domain.Question {
	return domain.Question{
		ID:           1,
		Text:         "What is photosynthesis?",
		Topic:        "biology",
		SubTopic:     "plant biology",
		TrainingType: tt,
		Stage:        domain.StageReadyForGeneration,
		Research: &domain.ResearchArtifact{
			RawContext:         "Photosynthesis converts light into chemical energy.",
			SynthesizedContext: "light to sugar",
		},
	}
}

func TestResearchDecodesPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		require.Contains(t, req.Messages[1].Content, "What is photosynthesis?")

		w.Write(completion(t, `{
			"raw_context": "Photosynthesis converts light into chemical energy.",
			"synthesized_context": "light to sugar",
			"sources": [{"url": "https://example.org", "title": "Photosynthesis", "reliability": "high"}],
			"quality_score": 0.91
		}`))
	})

	artifact, err := client.Research(context.Background(), domain.Question{
		Text: "What is photosynthesis?", Topic: "biology", SubTopic: "plant biology", TrainingType: domain.TrainingSFT,
	})
	require.NoError(t, err)
	require.Equal(t, "Photosynthesis converts light into chemical energy.", artifact.RawContext)
	require.Len(t, artifact.Sources, 1)
	require.Equal(t, domain.ReliabilityHigh, artifact.Sources[0].Reliability)
	require.InDelta(t, 0.91, artifact.QualityScore, 1e-9)
	require.False(t, artifact.CompletedAt.IsZero())
}

func TestResearchEmptyContextIsPermanent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, `{"raw_context": "", "quality_score": 0.5}`))
	})

	_, err := client.Research(context.Background(), domain.Question{Text: "q"})
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
	require.False(t, domain.IsTransient(err))
}

type fakeFetcher struct {
	sources []domain.SourceRecord
	text    string
	err     error
}

func (f fakeFetcher) FetchSources(context.Context, string, string) ([]domain.SourceRecord, string, error) {
	return f.sources, f.text, f.err
}

func TestResearchGroundsPromptWithFetchedSources(t *testing.T) {
	t.Parallel()

	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[1].Content
		w.Write(completion(t, `{
			"raw_context": "model context",
			"sources": [{"url": "https://model.example", "title": "Model source"}],
			"quality_score": 0.8
		}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.ModelConfig{
		Endpoint: server.URL, Model: "test-model", APIKey: "test-key",
	}, fakeFetcher{
		sources: []domain.SourceRecord{{URL: "https://ref.example", Title: "Reference", Reliability: domain.ReliabilityHigh}},
		text:    "reference page text about photosynthesis",
	})

	artifact, err := client.Research(context.Background(), domain.Question{Text: "q", Topic: "biology"})
	require.NoError(t, err)
	require.Contains(t, prompt, "reference page text about photosynthesis")

	// Fetched sources come first, model-reported ones after.
	require.Len(t, artifact.Sources, 2)
	require.Equal(t, "https://ref.example", artifact.Sources[0].URL)
	require.Equal(t, "https://model.example", artifact.Sources[1].URL)
}

func TestGenerateRequiresResearch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.Generate(context.Background(), domain.Question{Text: "q", TrainingType: domain.TrainingSFT})
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestGenerateDecodesFencedExample(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, "```json\n{\"instruction\": \"Explain photosynthesis\", \"response\": \"Plants convert light into sugar.\"}\n```"))
	})

	example, err := client.Generate(context.Background(), researchedQuestion(domain.TrainingSFT))
	require.NoError(t, err)

	sft, ok := example.(domain.SFTExample)
	require.True(t, ok)
	require.Equal(t, "Explain photosynthesis", sft.Instruction)
}

func TestGenerateBackfillsGroupID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, `{"prompt": "solve", "response": "42", "is_correct": true}`))
	})

	example, err := client.Generate(context.Background(), researchedQuestion(domain.TrainingGRPO))
	require.NoError(t, err)

	grpo, ok := example.(domain.GRPOExample)
	require.True(t, ok)
	require.NotEmpty(t, grpo.GroupID)
	require.Equal(t, 1, grpo.GroupSize)
}

func TestGenerateRejectsIncompleteExample(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, `{"instruction": "Explain photosynthesis"}`))
	})

	_, err := client.Generate(context.Background(), researchedQuestion(domain.TrainingSFT))
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestReviewDecodesVerdict(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, `{
			"quality_score": 0.84,
			"decision": "approved",
			"notes": "accurate",
			"per_criterion_scores": {"factual_accuracy": 0.9, "clarity": 0.8}
		}`))
	})

	review, err := client.Review(context.Background(), researchedQuestion(domain.TrainingSFT),
		domain.SFTExample{Instruction: "i", Response: "r"})
	require.NoError(t, err)
	require.InDelta(t, 0.84, review.QualityScore, 1e-9)
	require.Equal(t, domain.DecisionApproved, review.Decision)
	require.InDelta(t, 0.9, review.Criteria["factual_accuracy"], 1e-9)
}

func TestReviewRejectsUnknownDecision(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, `{"quality_score": 0.84, "decision": "maybe"}`))
	})

	_, err := client.Review(context.Background(), researchedQuestion(domain.TrainingSFT),
		domain.SFTExample{Instruction: "i", Response: "r"})
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestServerErrorsAreTransient(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusTooManyRequests} {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		})

		_, err := client.Research(context.Background(), domain.Question{Text: "q"})
		require.True(t, domain.IsTransient(err), "status %d", code)
	}
}

func TestClientErrorsArePermanent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad prompt"))
	})

	_, err := client.Research(context.Background(), domain.Question{Text: "q"})
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
	require.Contains(t, perm.Reason, "bad prompt")
}

func TestMalformedReplyIsPermanent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(completion(t, "I cannot answer in JSON, sorry."))
	})

	_, err := client.Research(context.Background(), domain.Question{Text: "q"})
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestMisconfiguredClientFailsFast(t *testing.T) {
	t.Parallel()

	client := NewClient(config.ModelConfig{}, nil)
	_, err := client.Research(context.Background(), domain.Question{Text: "q"})
	var perm *domain.PermanentError
	require.ErrorAs(t, err, &perm)
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, stripFences(tt.in))
	}
}
