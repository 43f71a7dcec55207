// Package coordination flags near-duplicate text submitted by distinct
// users within a short time horizon, a proxy for scripted or
// coordinated scam campaigns. The signal is best-effort and in-memory
// only: nothing survives a restart.
package coordination

import (
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the retention horizon for submitted phrases.
const DefaultWindow = 60 * time.Second

// matchThreshold is the minimum keyword overlap between two phrases
// from different submitters for them to count as a match.
const matchThreshold = 2

// record is one retained phrase
type record struct {
	normalizedText string
	submitterID    string
	keywords       map[string]struct{}
	timestamp      time.Time
}

// Signal reports that multiple distinct submitters produced similar
// text inside the window.
type Signal struct {
	TriggeringText string   `json:"triggering_text"`
	MatchCount     int      `json:"match_count"`
	Examples       []string `json:"examples"`
}

// Window is the shared store of recently analyzed phrases. One instance
// is created at process start and injected into the analysis service.
// The mutex is held for the whole Register call so that concurrent
// submissions cannot both scan the store before either appends.
type Window struct {
	mu       sync.Mutex
	duration time.Duration
	records  []record
}

// NewWindow creates a phrase window with the given retention horizon.
// A non-positive duration falls back to DefaultWindow.
func NewWindow(duration time.Duration) *Window {
	if duration <= 0 {
		duration = DefaultWindow
	}
	return &Window{duration: duration}
}

// Register records a submission and reports whether it matches phrases
// recently submitted by other users. The new phrase is always stored,
// match or not. Expired records are purged lazily on every call; there
// is no background sweep.
//
// A submitter's own earlier phrases never count as matches.
func (w *Window) Register(text, submitterID string, now time.Time) *Signal {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.duration)
	live := w.records[:0]
	for _, r := range w.records {
		if r.timestamp.After(cutoff) {
			live = append(live, r)
		}
	}
	w.records = live

	normalized := strings.ToLower(text)
	keywords := ExtractKeywords(text)

	var examples []string
	for _, r := range w.records {
		if r.submitterID == submitterID {
			continue
		}
		if overlap(keywords, r.keywords) >= matchThreshold {
			examples = append(examples, r.normalizedText)
		}
	}

	w.records = append(w.records, record{
		normalizedText: normalized,
		submitterID:    submitterID,
		keywords:       keywords,
		timestamp:      now,
	})

	if len(examples) == 0 {
		return nil
	}

	return &Signal{
		TriggeringText: text,
		MatchCount:     len(examples) + 1, // includes the triggering submission
		Examples:       examples,
	}
}

// Size returns the number of retained records, expired ones included
// until the next Register purges them.
func (w *Window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for k := range a {
		if _, ok := b[k]; ok {
			count++
		}
	}
	return count
}
