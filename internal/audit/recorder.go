package audit

import (
	"context"
	"sync"
)

// Recorder keeps audit entries in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Record(_ context.Context, entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Entries returns the recorded entries, optionally filtered by action type.
func (r *Recorder) Entries(actionType string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, entry := range r.entries {
		if actionType == "" || entry.ActionType == actionType {
			out = append(out, entry)
		}
	}
	return out
}
