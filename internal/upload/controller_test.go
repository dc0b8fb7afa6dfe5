package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/image-verdict/apimodels"
	"github.com/sozercan/image-verdict/internal/client"
	"github.com/sozercan/image-verdict/internal/metrics"
	"github.com/sozercan/image-verdict/internal/store"
)

type reply struct {
	result *apimodels.AnalysisResult
	err    error
}

// fakeClient blocks every call until the test sends a reply.
type fakeClient struct {
	mu      sync.Mutex
	uploads []client.Upload
	started chan struct{}
	replies chan reply
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		started: make(chan struct{}, 8),
		replies: make(chan reply),
	}
}

func (f *fakeClient) Analyze(ctx context.Context, u client.Upload) (*apimodels.AnalysisResult, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, u)
	f.mu.Unlock()
	f.started <- struct{}{}

	r := <-f.replies
	return r.result, r.err
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func pngFile(t *testing.T, name string, shade uint8) File {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: shade})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return File{Name: name, ContentType: "image/png", Data: buf.Bytes()}
}

func verdictResult(id string, confidence float64) *apimodels.AnalysisResult {
	return &apimodels.AnalysisResult{
		ID: id,
		Report: &apimodels.Report{AIGenerated: &apimodels.AIGenerated{
			Verdict: "ai",
			Scores:  map[string]apimodels.VerdictScore{"ai": {Confidence: &confidence}},
		}},
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := map[State][]State{
		StateEmpty:     {StateEmpty, StateStaged},
		StateStaged:    {StateEmpty, StateStaged, StateAnalyzing},
		StateAnalyzing: {StateEmpty, StateStaged, StateComplete, StateFailed},
		StateComplete:  {StateEmpty, StateStaged},
		StateFailed:    {StateEmpty, StateStaged},
	}
	all := []State{StateEmpty, StateStaged, StateAnalyzing, StateComplete, StateFailed}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStageRejectsNonImages(t *testing.T) {
	results := store.New()
	c := NewController(newFakeClient(), results)

	assert.False(t, c.Stage(File{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello there")}))
	assert.False(t, c.Stage(File{Name: "lie.png", ContentType: "image/png", Data: []byte("plain text, not a png")}))
	assert.False(t, c.Stage(File{Name: "empty.png", ContentType: "image/png"}))
	assert.Equal(t, StateEmpty, c.Snapshot().State)

	staged := pngFile(t, "a.png", 10)
	require.True(t, c.Stage(staged))
	before := c.Snapshot()

	assert.False(t, c.Stage(File{Name: "notes.txt", Data: []byte("hello there")}))
	after := c.Snapshot()
	assert.Equal(t, before.Generation, after.Generation, "rejected file must not change state")
	assert.Equal(t, "a.png", after.Image.Name)
}

func TestStageTrustsDeclaredTypeOnlyWhenSniffingIsInconclusive(t *testing.T) {
	c := NewController(newFakeClient(), store.New())
	assert.True(t, c.Stage(File{Name: "raw.heic", ContentType: "image/heic", Data: []byte{0x00, 0x01, 0x02, 0x03, 0xfe}}))
	assert.Equal(t, "image/heic", c.Snapshot().Image.ContentType)
}

func TestStageBuildsDataURIPreview(t *testing.T) {
	c := NewController(newFakeClient(), store.New())
	f := pngFile(t, "a.png", 10)
	require.True(t, c.Stage(f))

	snap := c.Snapshot()
	assert.Equal(t, StateStaged, snap.State)
	assert.Equal(t, "image/png", snap.Image.ContentType)
	assert.Contains(t, snap.Image.Preview, "data:image/png;base64,")
	assert.True(t, snap.CanAnalyze)
	assert.True(t, snap.CanRemove)
}

func TestRemoveThenStageSameFileReproducesPreview(t *testing.T) {
	c := NewController(newFakeClient(), store.New())
	f := pngFile(t, "a.png", 42)

	require.True(t, c.Stage(f))
	first := c.Snapshot().Image.Preview

	c.Remove()
	assert.Equal(t, StateEmpty, c.Snapshot().State)
	assert.Nil(t, c.Snapshot().Image)

	require.True(t, c.Stage(f))
	assert.Equal(t, first, c.Snapshot().Image.Preview)
}

func TestAnalyzeWithoutImageIsNoop(t *testing.T) {
	fc := newFakeClient()
	c := NewController(fc, store.New())
	assert.False(t, c.Analyze(context.Background()))
	assert.Equal(t, StateEmpty, c.Snapshot().State)
	assert.Equal(t, 0, fc.calls())
}

func TestAnalyzeSuccessPublishesResult(t *testing.T) {
	fc := newFakeClient()
	results := store.New()
	c := NewController(fc, results)

	var states []State
	c.Subscribe(func(s Snapshot) { states = append(states, s.State) })

	require.True(t, c.Stage(pngFile(t, "a.png", 1)))
	require.True(t, c.Analyze(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, StateAnalyzing, snap.State)
	assert.False(t, snap.CanAnalyze)
	assert.False(t, snap.CanRemove)

	<-fc.started
	fc.replies <- reply{result: verdictResult("A", 0.873)}
	c.Wait()

	got, ok := results.Load()
	require.True(t, ok)
	assert.Equal(t, "A", got.ID)
	assert.Equal(t, StateComplete, c.Snapshot().State)
	assert.Equal(t, []State{StateStaged, StateAnalyzing, StateComplete}, states)

	fc.mu.Lock()
	assert.Equal(t, "image/png", fc.uploads[0].ContentType)
	fc.mu.Unlock()
}

func TestAnalyzeTwiceSendsOneRequest(t *testing.T) {
	fc := newFakeClient()
	c := NewController(fc, store.New())
	require.True(t, c.Stage(pngFile(t, "a.png", 1)))

	assert.True(t, c.Analyze(context.Background()))
	assert.False(t, c.Analyze(context.Background()))

	<-fc.started
	fc.replies <- reply{result: verdictResult("A", 0.5)}
	c.Wait()

	assert.Equal(t, 1, fc.calls())
}

func TestAnalyzeFailureKeepsImageStaged(t *testing.T) {
	fc := newFakeClient()
	results := store.New()
	c := NewController(fc, results)
	require.True(t, c.Stage(pngFile(t, "a.png", 1)))

	require.True(t, c.Analyze(context.Background()))
	<-fc.started
	fc.replies <- reply{err: &client.ServiceError{StatusCode: 413, Message: "file too large"}}
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "file too large", snap.Error)
	require.NotNil(t, snap.Image)
	assert.Equal(t, "a.png", snap.Image.Name)
	assert.True(t, snap.CanAnalyze)
	_, ok := results.Load()
	assert.False(t, ok)

	// retry from Failed goes back through Staged
	require.True(t, c.Analyze(context.Background()))
	assert.Empty(t, c.Snapshot().Error)
	<-fc.started
	fc.replies <- reply{err: errors.New("connection reset")}
	c.Wait()
	assert.Equal(t, client.GenericFailureMessage, c.Snapshot().Error)
}

func TestReanalyzeFromComplete(t *testing.T) {
	fc := newFakeClient()
	results := store.New()
	c := NewController(fc, results)
	require.True(t, c.Stage(pngFile(t, "a.png", 1)))

	require.True(t, c.Analyze(context.Background()))
	<-fc.started
	fc.replies <- reply{result: verdictResult("first", 0.1)}
	c.Wait()

	require.True(t, c.Analyze(context.Background()))
	<-fc.started
	fc.replies <- reply{result: verdictResult("second", 0.2)}
	c.Wait()

	got, _ := results.Load()
	assert.Equal(t, "second", got.ID)
	assert.Equal(t, 2, fc.calls())
}

func TestLateResponseAfterRestageIsDiscarded(t *testing.T) {
	fc := newFakeClient()
	results := store.New()
	c := NewController(fc, results)

	require.True(t, c.Stage(pngFile(t, "a.png", 1)))
	require.True(t, c.Analyze(context.Background()))
	<-fc.started

	staleBefore := testutil.ToFloat64(metrics.StaleResponsesTotal)

	require.True(t, c.Stage(pngFile(t, "b.png", 2)))
	assert.Equal(t, StateStaged, c.Snapshot().State)

	// A is still outstanding, so B cannot be sent yet
	assert.False(t, c.Snapshot().CanAnalyze)
	assert.False(t, c.Analyze(context.Background()))
	assert.Equal(t, 1, fc.calls())

	fc.replies <- reply{result: verdictResult("A", 0.9)}
	c.Wait()

	assert.Equal(t, staleBefore+1, testutil.ToFloat64(metrics.StaleResponsesTotal))
	assert.True(t, c.Snapshot().CanAnalyze)

	_, ok := results.Load()
	assert.False(t, ok, "response for A must not be published after B was staged")
	snap := c.Snapshot()
	assert.Equal(t, StateStaged, snap.State)
	assert.Equal(t, "b.png", snap.Image.Name)

	require.True(t, c.Analyze(context.Background()))
	<-fc.started
	fc.replies <- reply{result: verdictResult("B", 0.2)}
	c.Wait()

	got, ok := results.Load()
	require.True(t, ok)
	assert.Equal(t, "B", got.ID)
}

func TestLateFailureAfterRemoveIsDiscarded(t *testing.T) {
	fc := newFakeClient()
	c := NewController(fc, store.New())

	require.True(t, c.Stage(pngFile(t, "a.png", 1)))
	require.True(t, c.Analyze(context.Background()))
	<-fc.started

	c.Remove()
	fc.replies <- reply{err: &client.ServiceError{StatusCode: 500, Message: "boom"}}
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.Empty(t, snap.Error, "stale failures are not surfaced")
}

func TestStageClearsPreviousResult(t *testing.T) {
	fc := newFakeClient()
	results := store.New()
	c := NewController(fc, results)

	require.True(t, c.Stage(pngFile(t, "a.png", 1)))
	require.True(t, c.Analyze(context.Background()))
	<-fc.started
	fc.replies <- reply{result: verdictResult("A", 0.9)}
	c.Wait()
	_, ok := results.Load()
	require.True(t, ok)

	require.True(t, c.Stage(pngFile(t, "b.png", 2)))
	_, ok = results.Load()
	assert.False(t, ok)

	c.Remove()
	_, ok = results.Load()
	assert.False(t, ok)
}

func TestRemoveUnlessAnalyzing(t *testing.T) {
	fc := newFakeClient()
	c := NewController(fc, store.New())

	require.True(t, c.Stage(pngFile(t, "a.png", 1)))
	require.True(t, c.Analyze(context.Background()))
	<-fc.started

	assert.False(t, c.RemoveUnlessAnalyzing())
	snap := c.Snapshot()
	assert.Equal(t, StateAnalyzing, snap.State)
	require.NotNil(t, snap.Image)

	fc.replies <- reply{result: verdictResult("A", 0.4)}
	c.Wait()

	assert.True(t, c.RemoveUnlessAnalyzing())
	snap = c.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.Nil(t, snap.Image)
}
