package petriflow

import "time"

// Entry records one successful firing in a token's history. Entries are
// appended and never rewritten.
type Entry struct {
	From       string
	To         string
	Transition string
	Timestamp  time.Time
	Actor      string
	Details    map[string]interface{}
}
