package handler

type PlanResponse struct {
	Success bool   `json:"success"`
	Plan    string `json:"plan"`
	HTML    string `json:"html,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse is the bare shape used by health and 405 replies.
type StatusResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}
