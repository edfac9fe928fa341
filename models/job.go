package models

// Phase is the externally observable state of a conversion job.
type Phase string

const (
	PhaseConverting Phase = "converting"
	PhaseUploading  Phase = "uploading"
	PhaseCompleted  Phase = "completed"
	PhaseError      Phase = "error"
)

// rank orders the happy path; error sits outside it.
func (p Phase) rank() int {
	switch p {
	case PhaseConverting:
		return 1
	case PhaseUploading:
		return 2
	case PhaseCompleted:
		return 3
	default:
		return 0
	}
}

// Terminal reports whether no further transition is allowed.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// CanAdvance reports whether a job currently in p may move to next.
// Transitions only go forward along converting -> uploading -> completed,
// or to error from any non-terminal phase.
func (p Phase) CanAdvance(next Phase) bool {
	if p == "" {
		return next == PhaseConverting || next == PhaseError
	}
	if p.Terminal() {
		return false
	}
	if next == PhaseError {
		return true
	}
	return next.rank() > p.rank()
}

// VariantPlaylist describes one encoded tier as referenced by the master manifest.
type VariantPlaylist struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bitrate      string `json:"bitrate"`    // e.g. "1111k"
	Resolution   string `json:"resolution"` // e.g. "1280x720"
	PlaylistPath string `json:"playlist"`   // relative to the master manifest
}

// ConversionJob is the orchestrator-owned record of a single job.
type ConversionJob struct {
	ObjectID     string            `json:"objectId"`
	SourcePath   string            `json:"sourcePath"`
	SourceURL    string            `json:"sourceUrl,omitempty"`
	Phase        Phase             `json:"phase"`
	Variants     []VariantPlaylist `json:"variants"`
	ThumbnailKey string            `json:"thumbnailKey,omitempty"`
	SpriteKey    string            `json:"spriteKey,omitempty"`
}

// UploadTask is a single file transfer produced by a directory walk.
type UploadTask struct {
	LocalPath   string
	RemoteKey   string
	ContentType string
}
