package models

// HealthCheckResponse is the body served at /health
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
