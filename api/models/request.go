package models

import (
	"github.com/sozercan/image-verdict/internal/presenter"
	"github.com/sozercan/image-verdict/internal/upload"
)

type SelectTabRequest struct {
	// Tab is one of overview, details or insights
	Tab string `json:"tab"`
}

// ImageInfo describes the staged image without its raw bytes.
type ImageInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	// Preview is a data URI of the image
	Preview string `json:"preview"`
}

type StateResponse struct {
	State      upload.State    `json:"state"`
	Image      *ImageInfo      `json:"image,omitempty"`
	Error      string          `json:"error,omitempty"`
	CanAnalyze bool            `json:"can_analyze"`
	CanRemove  bool            `json:"can_remove"`
	ActiveTab  presenter.TabID `json:"active_tab"`
	// ResultVersion changes whenever the displayed result is replaced or cleared
	ResultVersion uint64 `json:"result_version"`
}

// StageResponse reports whether a file was staged. A rejected file leaves the state untouched.
type StageResponse struct {
	Accepted bool          `json:"accepted"`
	State    StateResponse `json:"state"`
}

type ViewsResponse struct {
	ActiveTab presenter.TabID `json:"active_tab"`
	Tabs      []presenter.Tab `json:"tabs"`
	Views     presenter.Views `json:"views"`
}

func NewStateResponse(snap upload.Snapshot, activeTab presenter.TabID, resultVersion uint64) StateResponse {
	resp := StateResponse{
		State:         snap.State,
		Error:         snap.Error,
		CanAnalyze:    snap.CanAnalyze,
		CanRemove:     snap.CanRemove,
		ActiveTab:     activeTab,
		ResultVersion: resultVersion,
	}
	if snap.Image != nil {
		resp.Image = &ImageInfo{
			Name:        snap.Image.Name,
			ContentType: snap.Image.ContentType,
			Size:        len(snap.Image.Data),
			Preview:     snap.Image.Preview,
		}
	}
	return resp
}
