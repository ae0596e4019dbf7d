// Package models holds the request and response bodies shared by the JSON API.
package models

// AnalyzeURLRequest asks the service to fetch a remote image and analyze it.
// The URL may use any configured source scheme (http, https, azblob, s3).
type AnalyzeURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model"`
	Sources   []string `json:"sources"`
	Sessions  int      `json:"sessions"`
}
