package presenter

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownTab = errors.New("unknown tab")

type TabID string

const (
	TabOverview TabID = "overview"
	TabDetails  TabID = "details"
	TabInsights TabID = "insights"
)

type Tab struct {
	ID    TabID  `json:"id"`
	Label string `json:"label"`
}

// Tabs in display order.
var Tabs = []Tab{
	{ID: TabOverview, Label: "Overview"},
	{ID: TabDetails, Label: "Details"},
	{ID: TabInsights, Label: "Insights"},
}

func ParseTabID(s string) (TabID, error) {
	for _, t := range Tabs {
		if string(t.ID) == s {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// TabSelection is the active tab. It starts on the overview and is never persisted.
type TabSelection struct {
	mu     sync.Mutex
	active TabID
}

func NewTabSelection() *TabSelection {
	return &TabSelection{active: TabOverview}
}

func (t *TabSelection) Active() TabID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *TabSelection) Select(id TabID) error {
	if _, err := ParseTabID(string(id)); err != nil {
		return err
	}
	t.mu.Lock()
	t.active = id
	t.mu.Unlock()
	return nil
}
