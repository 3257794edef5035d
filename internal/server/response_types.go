// file: internal/server/response_types.go
// version: 2.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

import (
	"github.com/jdfalk/spit/internal/models"
)

// ListResponse provides a consistent format for list responses
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// ItemResponse provides a consistent format for single item responses
type ItemResponse struct {
	Data any `json:"data"`
}

// StatusResponse provides a consistent format for status check responses
type StatusResponse struct {
	Status string `json:"status"` // "ok", "degraded"
	Data   any    `json:"data,omitempty"`
}

// RetrievalResponse is the body of GET /api/v1/get.
type RetrievalResponse struct {
	Query     QueryEcho        `json:"query"`
	Results   []models.Result  `json:"results"`
	Count     int              `json:"count"`
	Providers []ProviderReport `json:"providers"`
}

// QueryEcho repeats the normalized query back to the caller.
type QueryEcho struct {
	Category   string `json:"category"`
	From       string `json:"from,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	Title      string `json:"title,omitempty"`
	MaxResults int    `json:"number,omitempty"`
}

// ProviderReport summarizes one provider's part in a retrieval.
type ProviderReport struct {
	Name     string `json:"name"`
	Items    int    `json:"items"`
	CacheHit bool   `json:"cache_hit,omitempty"`
	TimedOut bool   `json:"timed_out,omitempty"`
	Error    string `json:"error,omitempty"`
	Millis   int64  `json:"duration_ms"`
}

// CategoryInfo describes a category and the providers that serve it.
type CategoryInfo struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Providers []string `json:"providers"`
}

func echoQuery(q models.Query) QueryEcho {
	echo := QueryEcho{
		Category:   q.Category().String(),
		From:       q.SourceFilter(),
		MaxResults: q.MaxResults(),
	}
	echo.Artist, _ = q.Artist()
	echo.Album, _ = q.Album()
	echo.Title, _ = q.Track()
	return echo
}
