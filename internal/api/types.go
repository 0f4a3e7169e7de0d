package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a dubbing job in a transport-friendly format.
type JobView struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Progress     JobProgress       `json:"progress"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	SourceLang   string            `json:"sourceLang,omitempty"`
	TargetLang   string            `json:"targetLang"`
	VoiceMode    string            `json:"voiceMode"`
	QualityTier  string            `json:"qualityTier,omitempty"`
	Filename     string            `json:"filename,omitempty"`
	Outputs      map[string]string `json:"outputs,omitempty"`
	Degraded     []string          `json:"degraded,omitempty"`
	CreatedAt    string            `json:"createdAt,omitempty"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
}

// JobProgress captures stage progress information for a job.
type JobProgress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs  []JobView `json:"jobs"`
	Total int       `json:"total"`
}

// SubmitResponse is returned immediately after accepting a new job.
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HealthResponse reports daemon liveness and dependency readiness.
type HealthResponse struct {
	Status       string             `json:"status"`
	JobCount     int                `json:"jobCount"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus captures availability of an external capability.
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Optional  bool   `json:"optional"`
	Detail    string `json:"detail,omitempty"`
}
