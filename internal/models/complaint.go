package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Complaint statuses. Transitions between them are unconstrained.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// TimeLayout is how complaint timestamps are written: UTC, millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Complaint is a user-submitted issue record.
//
// Top-level fields not declared here are kept in Extra and written back verbatim,
// so callers can attach their own metadata without a schema change.
type Complaint struct {
	// ID is a UUID assigned at creation. It never changes.
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContactInfo string `json:"contactInfo"`

	Category   string `json:"category,omitempty"`
	Department string `json:"department,omitempty"`
	Priority   string `json:"priority,omitempty"`
	UserType   string `json:"userType,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Type       string `json:"type,omitempty"`

	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	Timestamp string `json:"timestamp,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`

	// AIAnalyzed is set once an external classifier has labelled the complaint.
	AIAnalyzed   bool    `json:"aiAnalyzed"`
	AIConfidence float64 `json:"aiConfidence,omitempty"`
	// Analysis is opaque classifier output. Updates replace it wholesale.
	Analysis  json.RawMessage `json:"analysis,omitempty"`
	Sentiment string          `json:"sentiment,omitempty"`

	ResolutionTime    float64 `json:"resolutionTime,omitempty"`
	FirstResponseTime float64 `json:"firstResponseTime,omitempty"`
	Satisfaction      float64 `json:"satisfaction,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownFields = []string{
	"id", "title", "description", "contactInfo",
	"category", "department", "priority", "userType", "domain", "type",
	"status", "createdAt", "timestamp", "updatedAt",
	"aiAnalyzed", "aiConfidence", "analysis", "sentiment",
	"resolutionTime", "firstResponseTime", "satisfaction",
}

// canonicalKey maps a key to its declared spelling. encoding/json matches struct
// fields case-insensitively, so "Title" and "title" must not coexist.
func canonicalKey(key string) (string, bool) {
	for _, k := range knownFields {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return key, false
}

type complaintAlias Complaint

// UnmarshalJSON decodes declared fields and keeps every other key in Extra.
func (c *Complaint) UnmarshalJSON(data []byte) error {
	var alias complaintAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	alias.Analysis = compact(alias.Analysis)
	if isNull(alias.Analysis) {
		alias.Analysis = nil
	}
	alias.Extra = nil
	for k, v := range raw {
		if _, known := canonicalKey(k); known || isNull(v) {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]json.RawMessage)
		}
		alias.Extra[k] = compact(v)
	}

	*c = Complaint(alias)
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// compact strips insignificant whitespace so indented files decode to the same bytes.
func compact(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}

// MarshalJSON writes declared fields plus Extra. Declared fields win on collision.
func (c Complaint) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(complaintAlias(c))
	if err != nil || len(c.Extra) == 0 {
		return base, err
	}

	fields := make(map[string]json.RawMessage, len(c.Extra)+len(knownFields))
	for k, v := range c.Extra {
		fields[k] = v
	}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Merge returns c with patch applied as a shallow top-level overwrite.
// Nested objects in the patch replace the existing value instead of merging into it.
// A null value clears the field.
func Merge(c Complaint, patch map[string]json.RawMessage) (Complaint, error) {
	if len(patch) == 0 {
		return c, nil
	}

	base, err := json.Marshal(c)
	if err != nil {
		return Complaint{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return Complaint{}, err
	}
	for k, v := range patch {
		key, _ := canonicalKey(k)
		fields[key] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return Complaint{}, err
	}

	var out Complaint
	if err := json.Unmarshal(merged, &out); err != nil {
		return Complaint{}, err
	}
	return out, nil
}

// IsResolved reports whether the complaint status is resolved, ignoring case.
func (c Complaint) IsResolved() bool {
	return strings.EqualFold(c.Status, StatusResolved)
}

type analysisDetails struct {
	Sentiment string   `json:"sentiment"`
	Keywords  []string `json:"keywords"`
}

func (c Complaint) details() analysisDetails {
	var d analysisDetails
	if len(c.Analysis) > 0 {
		_ = json.Unmarshal(c.Analysis, &d)
	}
	return d
}

// SentimentLabel returns the top-level sentiment, falling back to analysis.sentiment.
func (c Complaint) SentimentLabel() string {
	if c.Sentiment != "" {
		return c.Sentiment
	}
	return c.details().Sentiment
}

// Keywords returns analysis.keywords, or nil when the analysis carries none.
func (c Complaint) Keywords() []string {
	return c.details().Keywords
}
