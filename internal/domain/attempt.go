package domain

// ModelStat summarises logged attempts for one model under one API version.
type ModelStat struct {
	APIVersion   string  `json:"api_version"`
	Model        string  `json:"model"`
	Attempts     int     `json:"attempts"`
	Successes    int     `json:"successes"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

type ModelStatsResponse struct {
	WindowHours int         `json:"window_hours"`
	Models      []ModelStat `json:"models"`
	GeneratedAt string      `json:"generated_at"`
}
