package api

import "time"

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string     `json:"status"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Block         string     `json:"block,omitempty"`
	LastFrameAt   *time.Time `json:"last_frame_at,omitempty"`
	SSEClients    int        `json:"sse_clients"`
}
