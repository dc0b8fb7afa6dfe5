package apimodels

import (
	"encoding/json"
	"fmt"
)

const verdictKey = "verdict"

// VerdictScore is the score attached to one possible verdict.
type VerdictScore struct {
	Confidence *float64 `json:"confidence,omitempty"`
	IsDetected *bool    `json:"is_detected,omitempty"`
}

// AIGenerated is a mapping of verdict names ("ai", "human", ...) to scores,
// plus the name of the authoritative entry.
//
// On the wire the scores and the verdict share one object:
//
//	{"verdict": "ai", "ai": {"confidence": 0.87}, "human": {"confidence": 0.13}}
type AIGenerated struct {
	Verdict string
	Scores  map[string]VerdictScore
}

func (a *AIGenerated) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ai_generated: %w", err)
	}

	a.Verdict = ""
	a.Scores = make(map[string]VerdictScore, len(raw))
	for key, value := range raw {
		if key == verdictKey {
			var verdict string
			if err := json.Unmarshal(value, &verdict); err == nil {
				a.Verdict = verdict
			}
			continue
		}
		// entries that are not score objects (e.g. generator breakdowns with other shapes) are skipped
		var score VerdictScore
		if err := json.Unmarshal(value, &score); err != nil {
			continue
		}
		a.Scores[key] = score
	}
	return nil
}

func (a AIGenerated) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Scores)+1)
	for key, score := range a.Scores {
		out[key] = score
	}
	if a.Verdict != "" {
		out[verdictKey] = a.Verdict
	}
	return json.Marshal(out)
}

// Valid reports whether the verdict names an entry of the mapping.
func (a *AIGenerated) Valid() bool {
	if a == nil || a.Verdict == "" {
		return false
	}
	_, ok := a.Scores[a.Verdict]
	return ok
}

// Confidence indexes the mapping with the verdict. It never assumes a fixed key.
func (a *AIGenerated) Confidence() (float64, bool) {
	if !a.Valid() {
		return 0, false
	}
	score := a.Scores[a.Verdict]
	if score.Confidence == nil {
		return 0, false
	}
	return *score.Confidence, true
}
