package models

// Article is a single news item as served to clients. Items without a title
// or link are dropped at the provider boundary.
type Article struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	SourceID    string   `json:"source_id,omitempty"`
	PubDate     string   `json:"pub_date,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}
