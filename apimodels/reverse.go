package apimodels

// ReverseSearch is the outcome of a reverse image search.
// WasFound may be true while Matches is empty when the provider withholds details.
type ReverseSearch struct {
	WasFound bool    `json:"was_found"`
	Matches  []Match `json:"matches,omitempty"`
}

// Match is one place the image was seen online.
type Match struct {
	Domain            string `json:"domain"`
	ImageURL          string `json:"image_url"`
	EarliestBacklink  string `json:"earliest_backlink"`
	EarliestCrawlDate string `json:"earliest_crawl_date"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
}
