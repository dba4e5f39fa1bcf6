package types

import "time"

// Phase names a step of the reload state machine
type Phase string

const (
	PhaseGenerate   Phase = "generate"
	PhasePersist    Phase = "persist"
	PhaseLoad       Phase = "load"
	PhaseIntrospect Phase = "introspect"
	PhaseAppend     Phase = "append"
	PhaseReload     Phase = "reload"
	PhasePublish    Phase = "publish"
)

// PublishMode selects how the manifest reaches the shared namespace
type PublishMode string

const (
	// ModeManifest applies the manifest as one atomic batch
	ModeManifest PublishMode = "manifest"
	// ModeReload re-executes the appended artifact in the shared namespace
	ModeReload PublishMode = "reload"
)

// ValidateMode checks if the publish mode is known
func ValidateMode(m PublishMode) error {
	switch m {
	case ModeManifest, ModeReload:
		return nil
	default:
		return ErrInvalidMode
	}
}

// ReloadResult describes one run of the reload driver
type ReloadResult struct {
	// Identification
	ID         string
	Unit       string
	Generation int // Loader-reported generation, 0 if unknown

	// Artifact
	ArtifactPath string
	ContentHash  [32]byte // SHA-256 of the unit source before APPEND

	// Introspection and publishing
	Exports   []string
	Published Manifest
	Skipped   []string // Exported names dropped by the blacklist

	// Execution
	Mode     PublishMode
	Phase    Phase // Last phase reached
	Duration time.Duration
}
