package domain

// TrainingExample is the generation artifact. Each training type carries its
// own shape; dispatch is by type switch so a missing variant fails to compile
// instead of failing at runtime.
type TrainingExample interface {
	Type() TrainingType
	Validate() error
}

// SFTExample is an instruction/response pair for supervised fine-tuning.
type SFTExample struct {
	SystemPrompt string `json:"system_prompt,omitempty"`
	Instruction  string `json:"instruction"`
	InputContext string `json:"input_context,omitempty"`
	Response     string `json:"response"`
}

func (SFTExample) Type() TrainingType { return TrainingSFT }

func (e SFTExample) Validate() error {
	if e.Instruction == "" || e.Response == "" {
		return &PermanentError{Op: "validate sft", Reason: "instruction and response are required"}
	}
	return nil
}

// DPOExample is a preference pair: one chosen and one rejected response.
type DPOExample struct {
	SystemPrompt       string  `json:"system_prompt,omitempty"`
	Prompt             string  `json:"prompt"`
	Chosen             string  `json:"chosen"`
	Rejected           string  `json:"rejected"`
	PreferenceStrength float64 `json:"preference_strength,omitempty"`
}

func (DPOExample) Type() TrainingType { return TrainingDPO }

func (e DPOExample) Validate() error {
	if e.Prompt == "" || e.Chosen == "" || e.Rejected == "" {
		return &PermanentError{Op: "validate dpo", Reason: "prompt, chosen and rejected are required"}
	}
	return nil
}

// PPOExample pairs a response with a scalar reward signal.
type PPOExample struct {
	Prompt           string             `json:"prompt"`
	Response         string             `json:"response"`
	Reward           float64            `json:"reward"`
	RewardComponents map[string]float64 `json:"reward_components,omitempty"`
}

func (PPOExample) Type() TrainingType { return TrainingPPO }

func (e PPOExample) Validate() error {
	if e.Prompt == "" || e.Response == "" {
		return &PermanentError{Op: "validate ppo", Reason: "prompt and response are required"}
	}
	return nil
}

// GRPOExample is one member of a group of responses to the same prompt,
// scored relative to its siblings. Used for verifiable reasoning tasks.
type GRPOExample struct {
	Prompt          string  `json:"prompt"`
	GroupID         string  `json:"group_id"`
	Response        string  `json:"response"`
	Reasoning       string  `json:"reasoning,omitempty"`
	Code            string  `json:"code,omitempty"`
	ExpectedAnswer  string  `json:"expected_answer,omitempty"`
	PredictedAnswer string  `json:"predicted_answer,omitempty"`
	IsCorrect       bool    `json:"is_correct"`
	GroupRank       int     `json:"group_rank,omitempty"`
	GroupSize       int     `json:"group_size,omitempty"`
	RelativeReward  float64 `json:"relative_reward,omitempty"`
}

func (GRPOExample) Type() TrainingType { return TrainingGRPO }

func (e GRPOExample) Validate() error {
	if e.Prompt == "" || e.Response == "" || e.GroupID == "" {
		return &PermanentError{Op: "validate grpo", Reason: "prompt, response and group_id are required"}
	}
	return nil
}

// RLHFExample is comparison data for reward-model training.
type RLHFExample struct {
	Prompt     string  `json:"prompt"`
	ResponseA  string  `json:"response_a"`
	ResponseB  string  `json:"response_b"`
	Preference string  `json:"preference"` // "a", "b" or "tie"
	Confidence float64 `json:"confidence,omitempty"`
}

func (RLHFExample) Type() TrainingType { return TrainingRLHF }

func (e RLHFExample) Validate() error {
	if e.Prompt == "" || e.ResponseA == "" || e.ResponseB == "" {
		return &PermanentError{Op: "validate rlhf", Reason: "prompt and both responses are required"}
	}
	switch e.Preference {
	case "a", "b", "tie":
		return nil
	}
	return &PermanentError{Op: "validate rlhf", Reason: "preference must be a, b or tie"}
}

// KTOExample attaches a binary desirable/undesirable signal to a response.
type KTOExample struct {
	Prompt         string `json:"prompt"`
	Response       string `json:"response"`
	IsDesirable    bool   `json:"is_desirable"`
	FeedbackReason string `json:"feedback_reason,omitempty"`
}

func (KTOExample) Type() TrainingType { return TrainingKTO }

func (e KTOExample) Validate() error {
	if e.Prompt == "" || e.Response == "" {
		return &PermanentError{Op: "validate kto", Reason: "prompt and response are required"}
	}
	return nil
}

// ORPOExample combines the SFT target with a rejected alternative.
type ORPOExample struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Prompt       string  `json:"prompt"`
	Chosen       string  `json:"chosen"`
	Rejected     string  `json:"rejected"`
	OddsRatio    float64 `json:"odds_ratio,omitempty"`
}

func (ORPOExample) Type() TrainingType { return TrainingORPO }

func (e ORPOExample) Validate() error {
	if e.Prompt == "" || e.Chosen == "" || e.Rejected == "" {
		return &PermanentError{Op: "validate orpo", Reason: "prompt, chosen and rejected are required"}
	}
	return nil
}

// ChatMessage is a single turn inside a ChatExample.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatExample is a complete multi-turn conversation.
type ChatExample struct {
	ConversationID string        `json:"conversation_id"`
	SystemPrompt   string        `json:"system_prompt,omitempty"`
	Messages       []ChatMessage `json:"messages"`
}

func (ChatExample) Type() TrainingType { return TrainingChat }

func (e ChatExample) Validate() error {
	if e.ConversationID == "" || len(e.Messages) == 0 {
		return &PermanentError{Op: "validate chat", Reason: "conversation_id and messages are required"}
	}
	for _, m := range e.Messages {
		if m.Role == "" || m.Content == "" {
			return &PermanentError{Op: "validate chat", Reason: "every message needs a role and content"}
		}
	}
	return nil
}

// QAExample is a question/answer pair with an optional reasoning chain.
type QAExample struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning,omitempty"`
	Context   string `json:"context,omitempty"`
}

func (QAExample) Type() TrainingType { return TrainingQA }

func (e QAExample) Validate() error {
	if e.Question == "" || e.Answer == "" {
		return &PermanentError{Op: "validate qa", Reason: "question and answer are required"}
	}
	return nil
}
