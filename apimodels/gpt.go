package apimodels

// Assessment is the overall judgement of the artifact detection pass.
type Assessment string

const (
	AssessmentLikelyAI     Assessment = "likely ai generated"
	AssessmentPossiblyAI   Assessment = "possibly ai generated"
	AssessmentLikelyHuman  Assessment = "likely human made"
	AssessmentInconclusive Assessment = "inconclusive"
)

// EvidenceStrength rates how strongly an artifact supports the assessment.
type EvidenceStrength string

const (
	EvidenceWeak     EvidenceStrength = "weak"
	EvidenceModerate EvidenceStrength = "moderate"
	EvidenceStrong   EvidenceStrength = "strong"
)

const (
	MinSeverity = 1
	MaxSeverity = 5
)

// GPTResult is produced by the language-model pass that looks for visual
// artifacts of image generation.
type GPTResult struct {
	OverallAssessment   Assessment       `json:"overall_assessment" enum:"likely ai generated,possibly ai generated,likely human made,inconclusive" description:"Overall judgement of whether the image is AI generated"`
	Confidence          *float64         `json:"confidence,omitempty" description:"Confidence in the overall assessment, between 0 and 1"`
	Artifacts           []Artifact       `json:"artifacts" description:"Visual anomalies found in the image, most salient first"`
	QualityControls     *QualityControls `json:"quality_controls,omitempty"`
	NotesForHumanReview *string          `json:"notes_for_human_review,omitempty" description:"Anything a human reviewer should double check"`
}

// Artifact is one visual anomaly.
type Artifact struct {
	Category           string           `json:"category" description:"Short artifact category, e.g. hands, text, lighting, texture"`
	Severity           int              `json:"severity" description:"Severity from 1 (minor) to 5 (decisive)"`
	EvidenceStrength   EvidenceStrength `json:"evidence_strength" enum:"weak,moderate,strong"`
	RegionHint         string           `json:"region_hint" description:"Where in the image the artifact is"`
	Evidence           string           `json:"evidence" description:"What was observed"`
	BenignAlternatives *string          `json:"benign_alternatives,omitempty" description:"Non-AI explanations for the observation"`
}

// QualityControls records how the assessment was reached.
type QualityControls struct {
	Ambiguities                *string `json:"ambiguities,omitempty"`
	AssumptionsLimitedToPixels *bool   `json:"assumptions_limited_to_pixels,omitempty"`
}

// Empty reports whether no quality control field is set.
func (q *QualityControls) Empty() bool {
	return q == nil || ((q.Ambiguities == nil || *q.Ambiguities == "") && q.AssumptionsLimitedToPixels == nil)
}
