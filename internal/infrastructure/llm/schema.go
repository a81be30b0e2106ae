package llm

import (
	"github.com/google/uuid"

	"SynthForge/internal/domain"
)

// schemaHint tells the model which JSON shape to emit for a training type.
// Kept in sync with the domain example variants.
func schemaHint(tt domain.TrainingType) string {
	switch tt {
	case domain.TrainingSFT:
		return `{"system_prompt": "...", "instruction": "...", "input_context": "...", "response": "..."}`
	case domain.TrainingDPO:
		return `{"system_prompt": "...", "prompt": "...", "chosen": "...", "rejected": "...", "preference_strength": 0.0}`
	case domain.TrainingPPO:
		return `{"prompt": "...", "response": "...", "reward": 0.0, "reward_components": {"helpfulness": 0.0}}`
	case domain.TrainingGRPO:
		return `{"prompt": "...", "group_id": "...", "response": "...", "reasoning": "...", "code": "...", "expected_answer": "...", "predicted_answer": "...", "is_correct": true, "group_rank": 1, "group_size": 1, "relative_reward": 0.0}`
	case domain.TrainingRLHF:
		return `{"prompt": "...", "response_a": "...", "response_b": "...", "preference": "a|b|tie", "confidence": 0.0}`
	case domain.TrainingKTO:
		return `{"prompt": "...", "response": "...", "is_desirable": true, "feedback_reason": "..."}`
	case domain.TrainingORPO:
		return `{"system_prompt": "...", "prompt": "...", "chosen": "...", "rejected": "...", "odds_ratio": 0.0}`
	case domain.TrainingChat:
		return `{"conversation_id": "...", "system_prompt": "...", "messages": [{"role": "user", "content": "..."}, {"role": "assistant", "content": "..."}]}`
	case domain.TrainingQA:
		return `{"question": "...", "answer": "...", "reasoning": "...", "context": "..."}`
	}
	return "{}"
}

func decodeGenerated(tt domain.TrainingType, raw []byte) (domain.TrainingExample, error) {
	example, err := domain.DecodeExample(tt, raw)
	if err != nil {
		return nil, &domain.PermanentError{Op: "generation", Reason: err.Error()}
	}
	return fillIdentifiers(example), nil
}

// fillIdentifiers backfills the group/conversation ids variants require when
// the model omits them.
func fillIdentifiers(example domain.TrainingExample) domain.TrainingExample {
	switch e := example.(type) {
	case domain.GRPOExample:
		if e.GroupID == "" {
			e.GroupID = uuid.NewString()
		}
		if e.GroupSize == 0 {
			e.GroupSize = 1
		}
		return e
	case domain.ChatExample:
		if e.ConversationID == "" {
			e.ConversationID = uuid.NewString()
		}
		return e
	}
	return example
}
