package pipeline

import (
	"encoding/json"
	"sync"
)

// Step keys used in result sets and request flags
const (
	StepKeyBlog       = "blog"
	StepKeyImages     = "images"
	StepKeyPodcast    = "podcast"
	StepKeySocial     = "social"
	StepKeyWRHQBlog   = "wrhqBlog"
	StepKeyWRHQSocial = "wrhqSocial"
	StepKeyShortVideo = "shortVideo"
	StepKeyVideoDesc  = "videoDescription"
	StepKeyVideoSocial = "videoSocial"
	StepKeyStorage    = "storage"
	StepKeyYouTube    = "youtube"
	StepKeySchema     = "schema"
	StepKeyEmbeds     = "embeds"
)

// StepResult records one pipeline step's outcome. A failed step never aborts
// its siblings; the error string lands here instead.
type StepResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Title   string `json:"title,omitempty"`
	Count   int    `json:"count,omitempty"`
	Status  string `json:"status,omitempty"`
	JobID   string `json:"jobId,omitempty"`
	URL     string `json:"url,omitempty"`
}

// StatusBlocked marks a publish request rejected by a server-side
// precondition (artifact not generated or not approved)
const StatusBlocked = "blocked"

// ResultSet maps step name (or step:platform) to its result. Safe for
// concurrent writers so platform fan-out can record directly.
type ResultSet struct {
	mu      sync.Mutex
	results map[string]StepResult
}

func NewResultSet() *ResultSet {
	return &ResultSet{results: make(map[string]StepResult)}
}

func (rs *ResultSet) Set(step string, result StepResult) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results[step] = result
}

func (rs *ResultSet) Fail(step string, err error) {
	rs.Set(step, StepResult{Success: false, Error: err.Error()})
}

func (rs *ResultSet) Get(step string) (StepResult, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r, ok := rs.results[step]
	return r, ok
}

// OK reports the logical AND across all recorded steps
func (rs *ResultSet) OK() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, r := range rs.results {
		if !r.Success {
			return false
		}
	}
	return true
}

func (rs *ResultSet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.results)
}

// Blocked reports whether any step was rejected by a precondition check
func (rs *ResultSet) Blocked() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, r := range rs.results {
		if r.Status == StatusBlocked {
			return true
		}
	}
	return false
}

// Map returns a copy for JSON responses
func (rs *ResultSet) Map() map[string]StepResult {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make(map[string]StepResult, len(rs.results))
	for k, v := range rs.results {
		out[k] = v
	}
	return out
}

// JSON serializes the result set for the LastError column
func (rs *ResultSet) JSON() string {
	data, err := json.Marshal(rs.Map())
	if err != nil {
		return ""
	}
	return string(data)
}
