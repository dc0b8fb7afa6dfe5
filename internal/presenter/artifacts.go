package presenter

import (
	"fmt"
	"strings"

	"github.com/sozercan/image-verdict/apimodels"
)

const ArtifactsTitle = "Detected Artifacts"

var severityNames = map[int]string{
	1: "Minor",
	2: "Low",
	3: "Moderate",
	4: "High",
	5: "Critical",
}

type SeverityBadge struct {
	Level    int    `json:"level"`
	Label    string `json:"label"`
	Modifier string `json:"modifier"`
}

type ArtifactRecord struct {
	Number             int           `json:"number"`
	Category           string        `json:"category"`
	Severity           SeverityBadge `json:"severity"`
	EvidenceStrength   Badge         `json:"evidence_strength"`
	RegionHint         string        `json:"region_hint"`
	Evidence           string        `json:"evidence"`
	BenignAlternatives *string       `json:"benign_alternatives,omitempty"`
}

type ArtifactSection struct {
	Title   string           `json:"title"`
	Count   int              `json:"count"`
	Records []ArtifactRecord `json:"records"`
}

type QualityControlsView struct {
	Ambiguities                string `json:"ambiguities,omitempty"`
	AssumptionsLimitedToPixels string `json:"assumptions_limited_to_pixels,omitempty"`
}

// RenderArtifacts keeps the input order; records are not re-sorted by severity.
func RenderArtifacts(artifacts []apimodels.Artifact) ArtifactSection {
	section := ArtifactSection{
		Title:   ArtifactsTitle,
		Count:   len(artifacts),
		Records: make([]ArtifactRecord, 0, len(artifacts)),
	}
	for i, a := range artifacts {
		rec := ArtifactRecord{
			Number:           i + 1,
			Category:         a.Category,
			Severity:         severityBadge(a.Severity),
			EvidenceStrength: evidenceBadge(a.EvidenceStrength),
			RegionHint:       a.RegionHint,
			Evidence:         a.Evidence,
		}
		if a.BenignAlternatives != nil && strings.TrimSpace(*a.BenignAlternatives) != "" {
			alt := *a.BenignAlternatives
			rec.BenignAlternatives = &alt
		}
		section.Records = append(section.Records, rec)
	}
	return section
}

// RenderQualityControls returns nil when there is nothing to show.
func RenderQualityControls(qc *apimodels.QualityControls) *QualityControlsView {
	if qc.Empty() {
		return nil
	}
	view := &QualityControlsView{}
	if qc.Ambiguities != nil {
		view.Ambiguities = *qc.Ambiguities
	}
	if qc.AssumptionsLimitedToPixels != nil {
		view.AssumptionsLimitedToPixels = "No"
		if *qc.AssumptionsLimitedToPixels {
			view.AssumptionsLimitedToPixels = "Yes"
		}
	}
	return view
}

// RenderNotes returns nil for absent or blank notes.
func RenderNotes(notes *string) *string {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return nil
	}
	n := *notes
	return &n
}

func severityBadge(level int) SeverityBadge {
	name, ok := severityNames[level]
	if !ok {
		return SeverityBadge{Level: level, Label: "Unknown", Modifier: "severity-unknown"}
	}
	return SeverityBadge{
		Level:    level,
		Label:    fmt.Sprintf("%s (%d/%d)", name, level, apimodels.MaxSeverity),
		Modifier: fmt.Sprintf("severity-%d", level),
	}
}

func evidenceBadge(s apimodels.EvidenceStrength) Badge {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return Badge{Label: Placeholder, Modifier: "evidence-unknown"}
	}
	return Badge{
		Label:    strings.ToUpper(v),
		Modifier: "evidence-" + strings.ToLower(strings.Join(strings.Fields(v), "-")),
	}
}
