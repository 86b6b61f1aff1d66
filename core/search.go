package core

// Snippet is a ranked piece of retrieved text with source metadata. An empty
// result set is a valid outcome, not an error.
type Snippet struct {
	Text     string
	Score    float64
	Metadata map[string]string
}
