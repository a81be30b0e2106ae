package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExampleValidate(t *testing.T) {
	t.Parallel()

	valid := []TrainingExample{
		SFTExample{Instruction: "explain", Response: "because"},
		DPOExample{Prompt: "p", Chosen: "good", Rejected: "bad"},
		PPOExample{Prompt: "p", Response: "r", Reward: 0.5},
		GRPOExample{Prompt: "p", Response: "r", GroupID: "g1"},
		RLHFExample{Prompt: "p", ResponseA: "a", ResponseB: "b", Preference: "tie"},
		KTOExample{Prompt: "p", Response: "r", IsDesirable: true},
		ORPOExample{Prompt: "p", Chosen: "good", Rejected: "bad"},
		ChatExample{ConversationID: "c1", Messages: []ChatMessage{{Role: "user", Content: "hi"}}},
		QAExample{Question: "q", Answer: "a"},
	}
	for _, ex := range valid {
		require.NoError(t, ex.Validate(), string(ex.Type()))
	}

	invalid := []TrainingExample{
		SFTExample{Instruction: "missing response"},
		DPOExample{Prompt: "p", Chosen: "good"},
		PPOExample{Response: "r"},
		GRPOExample{Prompt: "p", Response: "r"}, // no group id
		RLHFExample{Prompt: "p", ResponseA: "a", ResponseB: "b", Preference: "c"},
		KTOExample{Prompt: "p"},
		ORPOExample{Prompt: "p", Rejected: "bad"},
		ChatExample{ConversationID: "c1"},
		ChatExample{ConversationID: "c1", Messages: []ChatMessage{{Role: "user"}}},
		QAExample{Question: "q"},
	}
	for _, ex := range invalid {
		var perm *PermanentError
		require.ErrorAs(t, ex.Validate(), &perm, string(ex.Type()))
	}
}

func TestDecodeExample(t *testing.T) {
	t.Parallel()

	for _, tt := range TrainingTypes() {
		_, err := DecodeExample(tt, []byte("{}"))
		require.NoError(t, err, string(tt))
	}

	_, err := DecodeExample(TrainingType("finetune"), []byte("{}"))
	require.Error(t, err)

	_, err = DecodeExample(TrainingSFT, []byte("not json"))
	require.Error(t, err)
}

func TestDecodeExampleRoundTrip(t *testing.T) {
	t.Parallel()

	original := DPOExample{
		Prompt:             "compare",
		Chosen:             "clear answer",
		Rejected:           "vague answer",
		PreferenceStrength: 0.7,
	}
	payload, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := DecodeExample(TrainingDPO, payload)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	chat := ChatExample{
		ConversationID: "c-42",
		Messages: []ChatMessage{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi there"},
		},
	}
	payload, err = json.Marshal(chat)
	require.NoError(t, err)

	decoded, err = DecodeExample(TrainingChat, payload)
	require.NoError(t, err)
	require.Equal(t, chat, decoded)
}
