package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/sozercan/image-verdict/apimodels"
	"github.com/sozercan/image-verdict/internal/aiornot"
	"github.com/sozercan/image-verdict/internal/llm"
	"github.com/sozercan/image-verdict/internal/metrics"
	"github.com/sozercan/image-verdict/internal/tools"
)

// ErrUpstream wraps failures of the detection provider.
var ErrUpstream = errors.New("detection provider failed")

var SystemPrompt = `You are a forensic image analyst looking for visual artifacts left by image generation models.
Judge only from the pixels you are shown. Do not speculate about the source, the author or any metadata.
Typical artifacts include malformed hands and teeth, garbled text, inconsistent lighting and shadows,
impossible reflections, repeated textures, warped backgrounds and unnatural skin.
For every artifact give a short category, a severity from 1 (minor) to 5 (decisive), how strong the
evidence is, where in the image it is and what you observed. Mention benign explanations when they exist.
If nothing suspicious is visible, return an empty artifact list and say so in the overall assessment.
Report your findings by calling the report_image_findings function exactly once.`

const userPrompt = "Inspect this image for signs of AI generation."

// Detector is the remote AI-generation detector.
type Detector interface {
	Analyze(ctx context.Context, data []byte, filename, externalID string) (*aiornot.Response, error)
}

// Image is an uploaded image that already passed content-type validation.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (img Image) dataURL() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

type Analyzer struct {
	detector     Detector
	llmProvider  llm.Provider
	findingsTool openai.ChatCompletionToolParam
	now          func() time.Time
}

// New returns an Analyzer. llmProvider may be nil, in which case the artifact pass is skipped.
func New(detector Detector, llmProvider llm.Provider) (*Analyzer, error) {
	tool, err := tools.FindingsTool()
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		detector:     detector,
		llmProvider:  llmProvider,
		findingsTool: tool,
		now:          time.Now,
	}, nil
}

// upstreamReport is the part of the provider report that maps onto AnalysisResult.
type upstreamReport struct {
	AIGenerated   *apimodels.AIGenerated `json:"ai_generated"`
	ReverseSearch json.RawMessage        `json:"reverse_search"`
}

type findingsOutcome struct {
	result *apimodels.GPTResult
	err    error
}

// Analyze runs the detector and the artifact pass concurrently and merges them.
// Only a detector failure fails the analysis.
func (a *Analyzer) Analyze(ctx context.Context, img Image) (*apimodels.AnalysisResult, error) {
	externalID := uuid.NewString()
	slog.Info("Starting analysis", "id", externalID, "filename", img.Filename, "bytes", len(img.Data))
	startTime := time.Now()

	findings := make(chan findingsOutcome, 1)
	if a.llmProvider != nil {
		go func() {
			result, err := a.findArtifacts(ctx, img)
			findings <- findingsOutcome{result: result, err: err}
		}()
	} else {
		findings <- findingsOutcome{}
	}

	detectStart := time.Now()
	resp, err := a.detector.Analyze(ctx, img.Data, img.Filename, externalID)
	observeUpstream("aiornot", detectStart, err)

	// always drain so the goroutine never outlives the request
	outcome := <-findings

	if err != nil {
		slog.Error("Detection failed", "id", externalID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	result, err := a.buildResult(externalID, resp)
	if err != nil {
		return nil, err
	}

	if outcome.err != nil {
		slog.Warn("Artifact detection failed, continuing without it", "id", externalID, "error", outcome.err)
	} else {
		result.Analysis = outcome.result
	}

	slog.Info("Analysis completed", "id", result.ID, "duration", time.Since(startTime))
	return result, nil
}

func (a *Analyzer) buildResult(externalID string, resp *aiornot.Response) (*apimodels.AnalysisResult, error) {
	result := &apimodels.AnalysisResult{
		ID:        resp.ID,
		CreatedAt: resp.CreatedAt,
		Status:    apimodels.StatusCompleted,
		Results:   resp.Report,
	}
	if result.ID == "" {
		result.ID = externalID
	}
	if result.CreatedAt == "" {
		result.CreatedAt = a.now().UTC().Format(time.RFC3339)
	}

	if len(resp.Report) == 0 {
		return result, nil
	}

	var report upstreamReport
	if err := json.Unmarshal(resp.Report, &report); err != nil {
		return nil, fmt.Errorf("%w: malformed report: %v", ErrUpstream, err)
	}
	result.Report = &apimodels.Report{AIGenerated: report.AIGenerated}

	if len(report.ReverseSearch) > 0 && string(report.ReverseSearch) != "null" {
		var reverse apimodels.ReverseSearch
		if err := json.Unmarshal(report.ReverseSearch, &reverse); err != nil {
			slog.Warn("Ignoring malformed reverse search section", "id", result.ID, "error", err)
		} else {
			result.Reverse = &reverse
		}
	}
	return result, nil
}

func (a *Analyzer) findArtifacts(ctx context.Context, img Image) (*apimodels.GPTResult, error) {
	start := time.Now()
	resp, err := a.llmProvider.Analyze(ctx, llm.Request{
		SystemPrompt: SystemPrompt,
		UserPrompt:   userPrompt,
		ImageURL:     img.dataURL(),
	}, llm.WithTools(a.findingsTool))
	observeUpstream("openai", start, err)
	if err != nil {
		return nil, fmt.Errorf("LLM analysis failed: %w", err)
	}

	slog.Debug("Artifact detection responded", "tokens", resp.Usage.TotalTokens, "function_call", resp.FunctionCall != nil)
	if resp.FunctionCall != nil {
		if resp.FunctionCall.Name != tools.FindingsToolName {
			return nil, fmt.Errorf("unexpected function call %q", resp.FunctionCall.Name)
		}
		return tools.DecodeFindings(resp.FunctionCall.Arguments)
	}
	return tools.DecodeFindings(resp.Content)
}

func observeUpstream(provider string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.UpstreamDurationSeconds.WithLabelValues(provider, result).Observe(time.Since(start).Seconds())
}
