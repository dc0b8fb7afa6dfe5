// Package upload drives the stage -> analyze state machine for a single image.
package upload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sozercan/image-verdict/apimodels"
	"github.com/sozercan/image-verdict/internal/client"
	"github.com/sozercan/image-verdict/internal/metrics"
	"github.com/sozercan/image-verdict/internal/store"
)

// AnalysisClient performs the network call for one image.
type AnalysisClient interface {
	Analyze(ctx context.Context, upload client.Upload) (*apimodels.AnalysisResult, error)
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State State
	Image *Image
	// Error is the user-facing message of the last failed analysis
	Error string
	// Generation changes whenever the staged image is replaced or removed
	Generation uint64
	CanAnalyze bool
	CanRemove  bool
}

// Controller owns the staged image and is the only caller of the AnalysisClient.
//
// Analyze returns immediately; the response is applied later on its own goroutine.
// A response is applied only if the image it was requested for is still staged.
// Result store listeners run while the controller lock is held and must not call
// back into the controller.
type Controller struct {
	client  AnalysisClient
	results *store.ResultStore

	mu         sync.Mutex
	state      State
	image      *Image
	errMsg     string
	generation uint64
	// pending is set while a request is outstanding, stale or not
	pending   bool
	listeners []func(Snapshot)
	events    []Snapshot

	inflight sync.WaitGroup
}

func NewController(analysisClient AnalysisClient, results *store.ResultStore) *Controller {
	return &Controller{
		client:  analysisClient,
		results: results,
		state:   StateEmpty,
	}
}

// Subscribe registers fn to receive a snapshot after every transition.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Stage replaces the staged image with f. Files that are not images are
// ignored and Stage reports false.
func (c *Controller) Stage(f File) bool {
	img, err := Decode(f)
	if err != nil {
		slog.Debug("Ignoring staged file", "name", f.Name, "contentType", f.ContentType, "error", err)
		return false
	}

	c.mu.Lock()
	if c.state == StateAnalyzing {
		slog.Info("Image replaced while analysis pending, response will be discarded", "generation", c.generation)
	}
	c.generation++
	c.image = &img
	c.errMsg = ""
	c.results.Clear()
	c.setState(StateStaged)
	c.unlockAndNotify()

	slog.Info("Image staged", "name", img.Name, "contentType", img.ContentType, "bytes", len(img.Data))
	return true
}

// Remove clears the staged image and any result. It is valid from any state.
func (c *Controller) Remove() {
	c.mu.Lock()
	c.removeLocked()
}

// removeLocked must be called with mu held; it releases it.
func (c *Controller) removeLocked() {
	c.generation++
	c.image = nil
	c.errMsg = ""
	c.results.Clear()
	c.setState(StateEmpty)
	c.unlockAndNotify()

	slog.Info("Image removed")
}

// RemoveUnlessAnalyzing removes the staged image unless an analysis is running
// for it, and reports whether it did.
func (c *Controller) RemoveUnlessAnalyzing() bool {
	c.mu.Lock()
	if c.state == StateAnalyzing {
		c.mu.Unlock()
		return false
	}
	c.removeLocked()
	return true
}

// Analyze starts the analysis of the staged image and reports whether a request
// was sent. It is a no-op without a staged image or while a request is
// outstanding, including one whose response will be discarded.
func (c *Controller) Analyze(ctx context.Context) bool {
	c.mu.Lock()
	if c.image == nil || c.state == StateAnalyzing || c.pending {
		state, pending := c.state, c.pending
		c.mu.Unlock()
		slog.Debug("Analyze ignored", "state", state, "pending", pending)
		return false
	}

	if c.state == StateComplete || c.state == StateFailed {
		c.setState(StateStaged)
	}
	c.errMsg = ""
	c.setState(StateAnalyzing)
	c.pending = true
	generation := c.generation
	img := *c.image
	c.inflight.Add(1)
	c.unlockAndNotify()

	slog.Info("Analysis started", "name", img.Name, "generation", generation)
	go c.run(ctx, generation, img)
	return true
}

// Wait blocks until every request sent by Analyze has settled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) run(ctx context.Context, generation uint64, img Image) {
	defer c.inflight.Done()

	result, err := c.client.Analyze(ctx, img.upload())

	c.mu.Lock()
	c.pending = false
	if generation != c.generation || c.state != StateAnalyzing {
		current := c.generation
		if len(c.listeners) > 0 {
			// CanAnalyze flips back without a transition
			c.events = append(c.events, c.snapshotLocked())
		}
		c.unlockAndNotify()
		metrics.StaleResponsesTotal.Inc()
		slog.Info("Discarding stale analysis response", "generation", generation, "current", current)
		return
	}

	if err != nil {
		c.errMsg = client.UserMessage(err)
		c.results.Clear()
		c.setState(StateFailed)
		msg := c.errMsg
		c.unlockAndNotify()
		slog.Error("Analysis failed", "name", img.Name, "message", msg, "error", err)
		return
	}

	c.results.Replace(result)
	c.setState(StateComplete)
	c.unlockAndNotify()
	slog.Info("Analysis complete", "name", img.Name, "id", result.ID)
}

// setState must be called with mu held.
func (c *Controller) setState(next State) {
	if !CanTransition(c.state, next) {
		slog.Error("Invalid upload state transition", "from", c.state, "to", next)
		return
	}
	c.state = next
	metrics.ControllerTransitionsTotal.WithLabelValues(next.String()).Inc()
	if len(c.listeners) > 0 {
		c.events = append(c.events, c.snapshotLocked())
	}
}

// unlockAndNotify releases mu and delivers queued snapshots outside the lock.
func (c *Controller) unlockAndNotify() {
	events := c.events
	c.events = nil
	listeners := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()

	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:      c.state,
		Error:      c.errMsg,
		Generation: c.generation,
		CanAnalyze: c.image != nil && c.state != StateAnalyzing && !c.pending,
		CanRemove:  c.image != nil && c.state != StateAnalyzing,
	}
	if c.image != nil {
		img := *c.image
		snap.Image = &img
	}
	return snap
}
