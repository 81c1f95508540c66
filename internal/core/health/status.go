package health

import "time"

const (
	StatusUp       = "UP"
	StatusDegraded = "DEGRADED"
	StatusDown     = "DOWN"
)

// Status captures the state of the service at a moment in time.
type Status struct {
	Service      string               `json:"service"`
	Version      string               `json:"version"`
	Environment  string               `json:"environment"`
	Status       string               `json:"status"`
	StartedAt    time.Time            `json:"startedAt"`
	Uptime       string               `json:"uptime"`
	UptimeSecs   int64                `json:"uptimeSeconds"`
	Dependencies map[string]Component `json:"dependencies,omitempty"`
}

// Component is the state of one dependency (SRI web service, database,
// category memory).
type Component struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}
