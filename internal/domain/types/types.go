// Package types contains common types used across the application
package types

// Note is one entry of the list response: the raw filename (extension
// included) and the file contents.
type Note struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Stats is the snapshot served on /stats.
type Stats struct {
	CacheDir    string `json:"cache_dir"`
	NotesStored int    `json:"notes_stored"`
	Watching    bool   `json:"watching"`
}
