package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"SynthForge/internal/config"
	"SynthForge/internal/domain"
	"SynthForge/internal/ports"
)

// Client talks to an OpenAI-compatible chat-completions API and implements
// the research, generation and review collaborators. The model does the
// substantive work; the client only shapes prompts and decodes the JSON the
// model is asked to return.
type Client struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
	fetcher      ports.SourceFetcher
}

var _ ports.Researcher = (*Client)(nil)
var _ ports.Generator = (*Client)(nil)
var _ ports.Reviewer = (*Client)(nil)

// NewClient builds a collaborator client from configuration. fetcher is
// optional; when present its page text grounds the research prompt.
func NewClient(cfg config.ModelConfig, fetcher ports.SourceFetcher) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
		fetcher:      fetcher,
	}
}

type researchPayload struct {
	RawContext         string                `json:"raw_context"`
	SynthesizedContext string                `json:"synthesized_context"`
	Sources            []domain.SourceRecord `json:"sources"`
	QualityScore       float64               `json:"quality_score"`
}

// Research asks the model for grounding context on a question, optionally
// seeded with reference-page text from the source fetcher.
func (c *Client) Research(ctx context.Context, question domain.Question) (domain.ResearchArtifact, error) {
	var fetched string
	var fetchedSources []domain.SourceRecord
	if c.fetcher != nil {
		sources, text, err := c.fetcher.FetchSources(ctx, question.Topic, question.SubTopic)
		if err == nil {
			fetched = text
			fetchedSources = sources
		}
		// A failed fetch degrades research grounding but is not fatal;
		// the model still answers from its own knowledge.
	}

	prompt := fmt.Sprintf(`Research the following question and reply with JSON only:
{"raw_context": "...", "synthesized_context": "...", "sources": [{"url": "...", "title": "...", "license": "...", "reliability": "high|medium|low"}], "quality_score": 0.0}

Question: %s
Topic: %s
Sub-topic: %s
Training type: %s`,
		question.Text, question.Topic, question.SubTopic, question.TrainingType)

	if fetched != "" {
		prompt += "\n\nReference material:\n" + fetched
	}

	var payload researchPayload
	if err := c.complete(ctx, "research", prompt, &payload); err != nil {
		return domain.ResearchArtifact{}, err
	}
	if payload.RawContext == "" {
		return domain.ResearchArtifact{}, &domain.PermanentError{Op: "research", Reason: "model returned empty context"}
	}

	return domain.ResearchArtifact{
		RawContext:         payload.RawContext,
		SynthesizedContext: payload.SynthesizedContext,
		Sources:            append(fetchedSources, payload.Sources...),
		QualityScore:       payload.QualityScore,
		CompletedAt:        time.Now().UTC(),
	}, nil
}

// Generate asks the model for a training example shaped for the question's
// training type.
func (c *Client) Generate(ctx context.Context, question domain.Question) (domain.TrainingExample, error) {
	if question.Research == nil {
		return nil, &domain.PermanentError{Op: "generation", Reason: "research context missing"}
	}

	prompt := fmt.Sprintf(`Generate one %s training example as JSON only, following this schema:
%s

Question: %s
Topic: %s
Sub-topic: %s

Ground-truth context:
%s

Synthesized context:
%s`,
		question.TrainingType, schemaHint(question.TrainingType),
		question.Text, question.Topic, question.SubTopic,
		question.Research.RawContext, question.Research.SynthesizedContext)

	var raw json.RawMessage
	if err := c.complete(ctx, "generation", prompt, &raw); err != nil {
		return nil, err
	}

	example, err := decodeGenerated(question.TrainingType, raw)
	if err != nil {
		return nil, err
	}
	if err := example.Validate(); err != nil {
		return nil, err
	}
	return example, nil
}

type reviewPayload struct {
	QualityScore float64            `json:"quality_score"`
	Decision     string             `json:"decision"`
	Notes        string             `json:"notes"`
	Criteria     map[string]float64 `json:"per_criterion_scores"`
}

// Review asks the model to grade a generated example against the research
// ground truth.
func (c *Client) Review(ctx context.Context, question domain.Question, example domain.TrainingExample) (domain.ReviewArtifact, error) {
	exampleJSON, err := json.Marshal(example)
	if err != nil {
		return domain.ReviewArtifact{}, &domain.PermanentError{Op: "review", Reason: "example not serializable: " + err.Error()}
	}

	groundTruth := ""
	if question.Research != nil {
		groundTruth = question.Research.RawContext
	}

	prompt := fmt.Sprintf(`Review this %s training example for factual accuracy, completeness, clarity and format compliance.
Reply with JSON only:
{"quality_score": 0.0, "decision": "approved|needs_revision|rejected", "notes": "...", "per_criterion_scores": {"factual_accuracy": 0.0, "completeness": 0.0, "clarity": 0.0, "format_compliance": 0.0}}

Example:
%s

Ground truth:
%s`, question.TrainingType, exampleJSON, groundTruth)

	var payload reviewPayload
	if err := c.complete(ctx, "review", prompt, &payload); err != nil {
		return domain.ReviewArtifact{}, err
	}

	decision := domain.ReviewDecision(payload.Decision)
	switch decision {
	case domain.DecisionApproved, domain.DecisionNeedsRevision, domain.DecisionRejected:
	default:
		return domain.ReviewArtifact{}, &domain.PermanentError{Op: "review", Reason: "unknown decision " + payload.Decision}
	}

	return domain.ReviewArtifact{
		QualityScore: payload.QualityScore,
		Decision:     decision,
		Notes:        payload.Notes,
		Criteria:     payload.Criteria,
		ReviewedAt:   time.Now().UTC(),
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete posts one chat completion and decodes the model's JSON reply into v.
func (c *Client) complete(ctx context.Context, op, prompt string, v any) error {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return &domain.PermanentError{Op: op, Reason: "model client misconfigured"}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(c.systemPrompt)},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return &domain.TransientError{Op: op, Err: fmt.Errorf("model API returned %s", resp.Status)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.PermanentError{Op: op, Reason: fmt.Sprintf("model API %s: %s", resp.Status, strings.TrimSpace(string(payload)))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return &domain.PermanentError{Op: op, Reason: "malformed API response: " + err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return &domain.PermanentError{Op: op, Reason: "empty completion"}
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return &domain.PermanentError{Op: op, Reason: "model reply is not the requested JSON: " + err.Error()}
	}
	return nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You produce synthetic LLM training data. Always answer with valid JSON and nothing else."
	}
	return prompt
}

// stripFences removes a markdown code fence the model may wrap around JSON.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
