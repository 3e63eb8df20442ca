package api

import (
	"studio/internal/batch"
	"studio/internal/registry"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse accompanies every 4xx and 5xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Task is one outstanding generation.
type Task struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Label     string `json:"label"`
	StartedAt string `json:"started_at"`
}

// TasksResponse lists the live tasks of the daemon session.
type TasksResponse struct {
	Success bool   `json:"success"`
	Session string `json:"session"`
	Data    []Task `json:"data"`
}

// ControlsResponse reports which generate controls are busy.
type ControlsResponse struct {
	Success bool                    `json:"success"`
	Data    []registry.ControlState `json:"data"`
}

// InvokeResponse is the outcome of one generation.
type InvokeResponse struct {
	Success  bool   `json:"success"`
	TaskID   string `json:"task_id"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
	DataURL  string `json:"data_url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// BatchStartRequest starts a batch speech run.
type BatchStartRequest struct {
	ProjectPath    string `json:"projectPath"`
	APIKey         string `json:"apiKey"`
	PromptAudioURL string `json:"promptAudioUrl"`
	PromptText     string `json:"promptText"`
	Input          string `json:"input"`
	EmoText        string `json:"emoText"`
}

// BatchStartResponse acknowledges an accepted run.
type BatchStartResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id"`
	Total   int    `json:"total"`
}

// BatchItem is one line of a run.
type BatchItem struct {
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
	AuxText   string `json:"aux_text,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Filename  string `json:"filename,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Batch is the live or most recent run.
type Batch struct {
	RunID       string       `json:"run_id"`
	ProjectPath string       `json:"project_path,omitempty"`
	Running     bool         `json:"running"`
	StartedAt   string       `json:"started_at,omitempty"`
	FinishedAt  string       `json:"finished_at,omitempty"`
	Items       []BatchItem  `json:"items"`
	Report      batch.Report `json:"report"`
}

// BatchResponse wraps Batch.
type BatchResponse struct {
	Success bool  `json:"success"`
	Data    Batch `json:"data"`
}

// PreflightCheck mirrors one readiness check.
type PreflightCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Session      string           `json:"session"`
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	Version      string           `json:"version"`
	StartedAt    string           `json:"started_at,omitempty"`
	RunningBatch bool             `json:"running_batch"`
	ActiveTasks  int              `json:"active_tasks"`
	DatabasePath string           `json:"database_path"`
	LockFilePath string           `json:"lock_file_path"`
	Preflight    []PreflightCheck `json:"preflight"`
}

// StatusResponse wraps DaemonStatus.
type StatusResponse struct {
	Success bool         `json:"success"`
	Data    DaemonStatus `json:"data"`
}

// LogsResponse carries a slice of the daemon log and the offset to resume at.
type LogsResponse struct {
	Success bool     `json:"success"`
	Lines   []string `json:"lines"`
	Offset  int64    `json:"offset"`
}
