package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/sozercan/image-verdict/apimodels"
)

const (
	ReverseSearchTitle    = "Reverse Image Search"
	MessageFoundNoDetails = "Matches were found but details are not available."
	MessageNotFound       = "No matching images were found."
	crawlDateLayout       = "January 2, 2006"
)

var crawlDateInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ImagePreview is a remote thumbnail. A preview that fails to load is hidden.
type ImagePreview struct {
	URL         string `json:"url"`
	Alt         string `json:"alt"`
	HideOnError bool   `json:"hide_on_error"`
}

type MatchRecord struct {
	Number     int           `json:"number"`
	Domain     Link          `json:"domain"`
	ImageLink  Link          `json:"image_link"`
	SourceLink Link          `json:"source_link"`
	Dimensions string        `json:"dimensions"`
	CrawlDate  string        `json:"crawl_date"`
	Preview    *ImagePreview `json:"preview,omitempty"`
}

type ReverseSearchView struct {
	Title      string        `json:"title"`
	Found      bool          `json:"found"`
	Status     Badge         `json:"status"`
	CountLabel string        `json:"count_label,omitempty"`
	Message    string        `json:"message,omitempty"`
	Matches    []MatchRecord `json:"matches"`
}

// RenderReverseSearch produces one record per match, in source order.
func RenderReverseSearch(rs *apimodels.ReverseSearch) *ReverseSearchView {
	if rs == nil {
		return nil
	}

	view := &ReverseSearchView{
		Title:   ReverseSearchTitle,
		Found:   rs.WasFound,
		Matches: []MatchRecord{},
	}
	if !rs.WasFound {
		view.Status = Badge{Label: "✗ No Matches", Modifier: "not-found"}
		view.Message = MessageNotFound
		return view
	}

	view.Status = Badge{Label: "✓ Matches Found", Modifier: "found"}
	if len(rs.Matches) == 0 {
		view.Message = MessageFoundNoDetails
		return view
	}

	view.CountLabel = matchCount(len(rs.Matches))
	for i, m := range rs.Matches {
		view.Matches = append(view.Matches, renderMatch(i+1, m))
	}
	return view
}

func renderMatch(number int, m apimodels.Match) MatchRecord {
	rec := MatchRecord{
		Number:     number,
		Domain:     Link{Label: m.Domain, URL: m.EarliestBacklink},
		ImageLink:  Link{Label: "View Image ↗", URL: m.ImageURL},
		SourceLink: Link{Label: "Visit Page ↗", URL: m.EarliestBacklink},
		Dimensions: fmt.Sprintf("%d × %d px", m.Width, m.Height),
		CrawlDate:  FormatCrawlDate(m.EarliestCrawlDate),
	}
	if m.ImageURL != "" {
		rec.Preview = &ImagePreview{
			URL:         m.ImageURL,
			Alt:         "Match from " + m.Domain,
			HideOnError: true,
		}
	}
	return rec
}

// FormatCrawlDate renders a crawl date as "January 2, 2006" in UTC.
func FormatCrawlDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range crawlDateInputs {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Format(crawlDateLayout)
		}
	}
	return Placeholder
}

func matchCount(n int) string {
	if n == 1 {
		return "Found 1 match"
	}
	return fmt.Sprintf("Found %d matches", n)
}
