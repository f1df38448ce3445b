package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid CSV body
	Error string `json:"error" example:"invalid CSV body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// PingResponse documents the fixed health-check body.
type PingResponse struct {
	// Fixed status string.
	// example: ok
	Status string `json:"status" example:"ok"`
}
