package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabSelection(t *testing.T) {
	tabs := NewTabSelection()
	assert.Equal(t, TabOverview, tabs.Active())

	assert.NoError(t, tabs.Select(TabInsights))
	assert.Equal(t, TabInsights, tabs.Active())

	err := tabs.Select("heatmap")
	assert.ErrorIs(t, err, ErrUnknownTab)
	assert.Equal(t, TabInsights, tabs.Active(), "unknown tabs leave the selection unchanged")
}

func TestParseTabID(t *testing.T) {
	id, err := ParseTabID("details")
	assert.NoError(t, err)
	assert.Equal(t, TabDetails, id)

	_, err = ParseTabID("")
	assert.ErrorIs(t, err, ErrUnknownTab)
}
