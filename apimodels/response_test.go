package apimodels

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisResultConfidenceFollowsVerdict(t *testing.T) {
	payload := `{
  "id": "a1",
  "status": "completed",
  "report": {
    "ai_generated": {
      "verdict": "human",
      "ai": {"is_detected": false, "confidence": 0.12},
      "human": {"is_detected": true, "confidence": 0.88},
      "generator": 7
    }
  }
}`
	var result AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))

	verdict, ok := result.Verdict()
	assert.True(t, ok)
	assert.Equal(t, "human", verdict)

	confidence, ok := result.Confidence()
	assert.True(t, ok)
	assert.InDelta(t, 0.88, confidence, 1e-9, "confidence must be read through the verdict key")

	assert.NotContains(t, result.AIGenerated().Scores, "generator", "non-object entries are skipped")
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestAnalysisResultConfidenceAbsent(t *testing.T) {
	cases := map[string]string{
		"no report":         `{"id": "x"}`,
		"no ai_generated":   `{"id": "x", "report": {}}`,
		"verdict not a key": `{"id": "x", "report": {"ai_generated": {"verdict": "ai", "human": {"confidence": 0.4}}}}`,
		"no confidence":     `{"id": "x", "report": {"ai_generated": {"verdict": "ai", "ai": {"is_detected": true}}}}`,
		"empty verdict":     `{"id": "x", "report": {"ai_generated": {"ai": {"confidence": 0.4}}}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var result AnalysisResult
			require.NoError(t, json.Unmarshal([]byte(payload), &result))
			_, ok := result.Confidence()
			assert.False(t, ok)
		})
	}

	var nilResult *AnalysisResult
	_, ok := nilResult.Confidence()
	assert.False(t, ok)
	_, ok = nilResult.Verdict()
	assert.False(t, ok)
	assert.False(t, nilResult.HasResults())
}

func TestAnalysisResultLegacyReverseGPT(t *testing.T) {
	payload := `{"id": "x", "reverse_gpt": {"overall_assessment": "inconclusive", "confidence": 0.5, "artifacts": []}}`
	var result AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	require.NotNil(t, result.Analysis)
	assert.Equal(t, AssessmentInconclusive, result.Analysis.OverallAssessment)

	both := `{"id": "x",
  "analysis": {"overall_assessment": "likely ai generated", "artifacts": []},
  "reverse_gpt": {"overall_assessment": "inconclusive", "artifacts": []}}`
	require.NoError(t, json.Unmarshal([]byte(both), &result))
	assert.Equal(t, AssessmentLikelyAI, result.Analysis.OverallAssessment, "analysis wins over the legacy name")
}

func TestAnalysisResultHasResults(t *testing.T) {
	var result AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "results": null}`), &result))
	assert.False(t, result.HasResults())

	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "results": {"source": "upload"}}`), &result))
	assert.True(t, result.HasResults())
}

func TestAIGeneratedMarshalKeepsVerdictBesideScores(t *testing.T) {
	confidence := 0.7
	ai := AIGenerated{
		Verdict: "ai",
		Scores:  map[string]VerdictScore{"ai": {Confidence: &confidence}},
	}
	data, err := json.Marshal(ai)
	require.NoError(t, err)
	assert.JSONEq(t, `{"verdict": "ai", "ai": {"confidence": 0.7}}`, string(data))

	var decoded AIGenerated
	require.NoError(t, json.Unmarshal(data, &decoded))
	got, ok := decoded.Confidence()
	assert.True(t, ok)
	assert.Equal(t, confidence, got)
}

func TestQualityControlsEmpty(t *testing.T) {
	var missing *QualityControls
	assert.True(t, missing.Empty())

	blank := ""
	assert.True(t, (&QualityControls{Ambiguities: &blank}).Empty())

	limited := false
	assert.False(t, (&QualityControls{AssumptionsLimitedToPixels: &limited}).Empty())
}
