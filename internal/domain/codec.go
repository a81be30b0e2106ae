package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeExample rebuilds the typed variant for a training type from its JSON
// payload. The switch is exhaustive; an unknown tag is a contract violation,
// not a silent fallback.
func DecodeExample(tt TrainingType, payload []byte) (TrainingExample, error) {
	var (
		example TrainingExample
		err     error
	)

	switch tt {
	case TrainingSFT:
		var e SFTExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingDPO:
		var e DPOExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingPPO:
		var e PPOExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingGRPO:
		var e GRPOExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingRLHF:
		var e RLHFExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingKTO:
		var e KTOExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingORPO:
		var e ORPOExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingChat:
		var e ChatExample
		err = json.Unmarshal(payload, &e)
		example = e
	case TrainingQA:
		var e QAExample
		err = json.Unmarshal(payload, &e)
		example = e
	default:
		return nil, &PermanentError{Op: "decode example", Reason: "unknown training type " + string(tt)}
	}

	if err != nil {
		return nil, fmt.Errorf("unmarshal %s example: %w", tt, err)
	}
	return example, nil
}
