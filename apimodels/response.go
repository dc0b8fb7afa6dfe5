package apimodels

import (
	"bytes"
	"encoding/json"
)

// Status is the completion status reported by the analysis service.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// AnalysisResult is the full response of the analysis service for one image.
// It is treated as immutable once received.
type AnalysisResult struct {
	// Opaque identifier of the analysis
	ID string `json:"id"`

	// Upstream creation time, passed through verbatim
	CreatedAt string `json:"created_at,omitempty"`

	Status Status `json:"status,omitempty"`

	// Detection report; only ai_generated is interpreted
	Report *Report `json:"report,omitempty"`

	// Opaque structured payload rendered verbatim in the details view
	Results json.RawMessage `json:"results,omitempty"`

	// Reverse image search outcome, if the search ran
	Reverse *ReverseSearch `json:"reverse,omitempty"`

	// Output of the separate AI-artifact detection pass, if it ran
	Analysis *GPTResult `json:"analysis,omitempty"`
}

// UnmarshalJSON accepts "reverse_gpt" as an older name for "analysis".
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	type plain AnalysisResult
	var aux struct {
		plain
		ReverseGPT *GPTResult `json:"reverse_gpt,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = AnalysisResult(aux.plain)
	if r.Analysis == nil {
		r.Analysis = aux.ReverseGPT
	}
	return nil
}

// AIGenerated returns the ai_generated section, or nil when the report lacks one.
func (r *AnalysisResult) AIGenerated() *AIGenerated {
	if r == nil || r.Report == nil {
		return nil
	}
	return r.Report.AIGenerated
}

// Verdict returns the authoritative verdict key.
func (r *AnalysisResult) Verdict() (string, bool) {
	ai := r.AIGenerated()
	if ai == nil || ai.Verdict == "" {
		return "", false
	}
	return ai.Verdict, true
}

// Confidence returns report.ai_generated[verdict].confidence.
func (r *AnalysisResult) Confidence() (float64, bool) {
	return r.AIGenerated().Confidence()
}

// HasResults reports whether a non-null results payload is present.
func (r *AnalysisResult) HasResults() bool {
	if r == nil {
		return false
	}
	trimmed := bytes.TrimSpace(r.Results)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Report holds the sections of the upstream detection report.
type Report struct {
	AIGenerated *AIGenerated `json:"ai_generated,omitempty"`
}
