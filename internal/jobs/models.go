package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a dubbing job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusDone,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Pipeline stage identifiers in execution order. StageComplete is the
// sentinel recorded once a job finishes successfully.
const (
	StageExtractAudio    = "extract-audio"
	StageExtractFrames   = "extract-frames"
	StageTranscribe      = "transcribe"
	StageTranslate       = "translate"
	StageSynthesizeVoice = "synthesize-voice"
	StageLipSync         = "lip-sync"
	StageRender          = "render"
	StageComplete        = "complete"
)

// ArtifactKind identifies one deliverable in a finished job's output set.
type ArtifactKind string

const (
	ArtifactVideo ArtifactKind = "video"
	ArtifactSRT   ArtifactKind = "srt"
	ArtifactAudio ArtifactKind = "audio"
)

// ParseArtifactKind converts a string into a known ArtifactKind.
func ParseArtifactKind(value string) (ArtifactKind, bool) {
	switch ArtifactKind(strings.ToLower(strings.TrimSpace(value))) {
	case ArtifactVideo:
		return ArtifactVideo, true
	case ArtifactSRT:
		return ArtifactSRT, true
	case ArtifactAudio:
		return ArtifactAudio, true
	default:
		return "", false
	}
}

// VoiceMode selects between voice cloning and plain synthesis.
type VoiceMode string

const (
	VoiceModeClone VoiceMode = "clone"
	VoiceModePlain VoiceMode = "plain"
)

// Meta is the immutable snapshot of submission parameters.
type Meta struct {
	SourcePath       string
	OriginalFilename string
	SourceLang       string
	TargetLang       string
	VoiceMode        VoiceMode
	QualityTier      string
	SyncThreshold    float64
}

// Job represents one end-to-end dubbing request persisted in SQLite.
type Job struct {
	ID           string
	Status       Status
	Stage        string
	Progress     int
	Message      string
	ErrorMessage string
	Meta         Meta
	Outputs      map[ArtifactKind]string
	Degraded     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// SetProgress updates stage, message, and percent together. Progress never
// moves backward; a lower value keeps the current percent.
func (j *Job) SetProgress(stage, message string, percent int) {
	j.Stage = stage
	j.Message = message
	if percent > j.Progress {
		j.Progress = percent
	}
}

// SetDone marks the job complete with the final artifact set.
func (j *Job) SetDone(outputs map[ArtifactKind]string) {
	j.Status = StatusDone
	j.Stage = StageComplete
	j.Progress = 100
	j.Message = "Dubbing complete"
	j.Outputs = outputs
}

// SetFailed marks the job failed with the causing message recorded verbatim.
func (j *Job) SetFailed(message string) {
	j.Status = StatusError
	j.ErrorMessage = message
	j.Message = message
}

// MarkDegraded records that a stage substituted a fallback output.
func (j *Job) MarkDegraded(stage string) {
	for _, existing := range j.Degraded {
		if existing == stage {
			return
		}
	}
	j.Degraded = append(j.Degraded, stage)
}
