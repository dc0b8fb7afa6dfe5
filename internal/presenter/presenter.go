// Package presenter maps an analysis result into the overview, details and
// insights views. Every function here is pure.
package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sozercan/image-verdict/apimodels"
)

// Placeholder is shown in place of any metric that cannot be derived.
const Placeholder = "--"

const (
	OverviewTitle        = "Analysis Overview"
	OverviewEmpty        = "Upload an image to see a comprehensive overview of the analysis results, including key metrics and summary statistics."
	OverviewComplete     = "Analysis complete. Key metrics from the detection report are shown below."
	DetailsTitle         = "Detailed Analysis"
	DetailsDescription   = "Detailed breakdown of the analysis results, including technical information and granular data points."
	DetailsNoData        = "No data available yet"
	DetailsNoResults     = "No structured results were returned"
	InsightsTitle        = "AI Insights"
	InsightsDescription  = "Visual artifacts and reviewer notes from the AI-detection pass."
	InsightsNoImage      = "Upload and analyze an image to generate insights"
	InsightsNotAnalyzed  = "Analyze the image to generate insights"
	InsightsNotAvailable = "No AI-artifact analysis is available for this image"
)

// Input is everything the views are derived from.
type Input struct {
	ImagePresent bool
	Result       *apimodels.AnalysisResult
}

type Views struct {
	Overview Overview `json:"overview"`
	Details  Details  `json:"details"`
	Insights Insights `json:"insights"`
}

// View returns the view model of one tab.
func (v Views) View(id TabID) (interface{}, error) {
	switch id {
	case TabOverview:
		return v.Overview, nil
	case TabDetails:
		return v.Details, nil
	case TabInsights:
		return v.Insights, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTab, id)
}

type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Overview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	HasResult   bool   `json:"has_result"`
	Verdict     Metric `json:"verdict"`
	Confidence  Metric `json:"confidence"`
}

type DetailsKind string

const (
	DetailsPlaceholder   DetailsKind = "placeholder"
	DetailsReverseSearch DetailsKind = "reverse_search"
	DetailsRaw           DetailsKind = "raw"
)

type Details struct {
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Kind          DetailsKind        `json:"kind"`
	Placeholder   string             `json:"placeholder,omitempty"`
	ReverseSearch *ReverseSearchView `json:"reverse_search,omitempty"`
	Raw           string             `json:"raw,omitempty"`
}

type Badge struct {
	Label    string `json:"label"`
	Modifier string `json:"modifier"`
}

// ConfidenceBar is rendered as a bar whose width is Percent, in [0,100].
type ConfidenceBar struct {
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
}

type Insights struct {
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Placeholder     string               `json:"placeholder,omitempty"`
	Assessment      *Badge               `json:"assessment,omitempty"`
	ConfidenceBar   *ConfidenceBar       `json:"confidence_bar,omitempty"`
	Artifacts       *ArtifactSection     `json:"artifacts,omitempty"`
	QualityControls *QualityControlsView `json:"quality_controls,omitempty"`
	Notes           *string              `json:"notes_for_human_review,omitempty"`
}

// Present derives all three views.
func Present(in Input) Views {
	return Views{
		Overview: PresentOverview(in),
		Details:  PresentDetails(in),
		Insights: PresentInsights(in),
	}
}

func PresentOverview(in Input) Overview {
	ov := Overview{
		Title:       OverviewTitle,
		Description: OverviewEmpty,
		Verdict:     Metric{Label: "Verdict", Value: Placeholder},
		Confidence:  Metric{Label: "Confidence", Value: Placeholder},
	}
	if in.Result == nil {
		return ov
	}

	ov.HasResult = true
	ov.Description = OverviewComplete
	if verdict, ok := in.Result.Verdict(); ok {
		ov.Verdict.Value = strings.ToUpper(verdict)
	}
	if confidence, ok := in.Result.Confidence(); ok {
		ov.Confidence.Value = FormatPercent(confidence)
	}
	return ov
}

func PresentDetails(in Input) Details {
	d := Details{
		Title:       DetailsTitle,
		Description: DetailsDescription,
		Kind:        DetailsPlaceholder,
		Placeholder: DetailsNoData,
	}
	if in.Result == nil {
		return d
	}

	if in.Result.Reverse != nil {
		d.Kind = DetailsReverseSearch
		d.Placeholder = ""
		d.ReverseSearch = RenderReverseSearch(in.Result.Reverse)
		return d
	}

	if !in.Result.HasResults() {
		d.Placeholder = DetailsNoResults
		return d
	}

	d.Kind = DetailsRaw
	d.Placeholder = ""
	d.Raw = prettyJSON(in.Result.Results)
	return d
}

func PresentInsights(in Input) Insights {
	ins := Insights{
		Title:       InsightsTitle,
		Description: InsightsDescription,
	}
	switch {
	case in.Result == nil && !in.ImagePresent:
		ins.Placeholder = InsightsNoImage
		return ins
	case in.Result == nil:
		ins.Placeholder = InsightsNotAnalyzed
		return ins
	case in.Result.Analysis == nil:
		ins.Placeholder = InsightsNotAvailable
		return ins
	}

	gpt := in.Result.Analysis
	ins.Assessment = assessmentBadge(gpt.OverallAssessment)
	if gpt.Confidence != nil {
		ins.ConfidenceBar = &ConfidenceBar{
			Percent: clamp(*gpt.Confidence*100, 0, 100),
			Label:   FormatPercent(*gpt.Confidence),
		}
	}
	section := RenderArtifacts(gpt.Artifacts)
	ins.Artifacts = &section
	ins.QualityControls = RenderQualityControls(gpt.QualityControls)
	ins.Notes = RenderNotes(gpt.NotesForHumanReview)
	return ins
}

// FormatPercent renders a [0,1] ratio as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func assessmentBadge(a apimodels.Assessment) *Badge {
	words := strings.Fields(string(a))
	if len(words) == 0 {
		return &Badge{Label: Placeholder, Modifier: "unknown"}
	}
	return &Badge{
		Label:    strings.ToUpper(strings.Join(words, " ")),
		Modifier: strings.ToLower(strings.Join(words, "-")),
	}
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
