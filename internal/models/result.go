// file: internal/models/result.go
// version: 1.0.0
// guid: e90f24a4-0d40-46d4-b6f7-a6a767028176

package models

import "encoding/json"

// RawItem is a single unnormalized item returned by a provider.
type RawItem struct {
	Data   []byte `json:"data"`
	Label  string `json:"label,omitempty"`  // provider sub-type, e.g. "wikipedia" for a relation
	Source string `json:"source,omitempty"` // URL the item was read from
	Rank   int    `json:"rank,omitempty"`
}

// Result is a normalized record handed back to the caller.
type Result struct {
	Provider string   `json:"provider" yaml:"provider"`
	Kind     Category `json:"kind" yaml:"kind"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Data     []byte   `json:"-" yaml:"-"`
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Rank     int      `json:"rank" yaml:"rank"`
}

// Text returns the payload as a string.
func (r Result) Text() string {
	return string(r.Data)
}

type resultView struct {
	Provider string   `json:"provider" yaml:"provider"`
	Kind     Category `json:"kind" yaml:"kind"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Data     string   `json:"data" yaml:"data"`
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Rank     int      `json:"rank" yaml:"rank"`
}

func (r Result) view() resultView {
	return resultView{
		Provider: r.Provider,
		Kind:     r.Kind,
		Label:    r.Label,
		Data:     r.Text(),
		Source:   r.Source,
		Rank:     r.Rank,
	}
}

// MarshalJSON writes the payload as text rather than base64.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.view())
}

// MarshalYAML implements yaml.Marshaler.
func (r Result) MarshalYAML() (any, error) {
	return r.view(), nil
}

// Group is the reliability tier a provider belongs to.
type Group string

const (
	GroupSafe    Group = "safe"
	GroupUnsafe  Group = "unsafe"
	GroupSpecial Group = "special"
)

// Descriptor describes a registered provider.
type Descriptor struct {
	Name       string     `json:"name" yaml:"name"`
	Categories []Category `json:"categories" yaml:"categories"`
	Group      Group      `json:"group" yaml:"group"`
	RateLimit  float64    `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"` // requests per second, 0 means unlimited
	Enabled    bool       `json:"enabled" yaml:"enabled"`
}

// Supports reports whether the descriptor claims category c.
func (d Descriptor) Supports(c Category) bool {
	for _, have := range d.Categories {
		if have == c {
			return true
		}
	}
	return false
}
