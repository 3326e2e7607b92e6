package commission

import "time"

// Bounds caps the resources a worker may consume on one commission.
// Zero values mean "no override" and leave the worker's defaults in place.
type Bounds struct {
	MaxTurns int     `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`
	MaxSpend float64 `yaml:"max_spend,omitempty" json:"max_spend,omitempty"`
}

// TimelineEntry is one time-ordered event on a commission's history.
type TimelineEntry struct {
	Event  string            `yaml:"event" json:"event"`
	Reason string            `yaml:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time         `yaml:"at" json:"at"`
	Extra  map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Record is the durable commission document. The artifact store is the sole
// writer of these fields; the engine reads them back and issues semantic
// mutations through the store.
type Record struct {
	ID            string
	Status        Status
	Worker        string
	DependsOn     []string
	Bounds        Bounds
	Prompt        string
	Timeline      []TimelineEntry
	Progress      string
	ResultSummary string
	Artifacts     []string
}

// Spec carries the caller-supplied fields for creating a commission.
type Spec struct {
	Worker    string
	Prompt    string
	DependsOn []string
	Bounds    Bounds
}

// Update carries the fields a caller may mutate while a commission is still
// pending. Nil pointers leave the field untouched.
type Update struct {
	Prompt    *string
	DependsOn *[]string
	Bounds    *Bounds
}
