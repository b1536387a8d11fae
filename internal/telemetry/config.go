package telemetry

import (
	"os"
)

const defaultArtifactsDir = ".agent"

var observeEnabled bool

func init() {
	// Read once at process start; ObserveEnabled still honours a later explicit "1".
	observeEnabled = os.Getenv("RAG_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	if os.Getenv("RAG_OBSERVE_JSON") == "1" {
		return true
	}
	return observeEnabled
}

// ArtifactsDir is where events.jsonl lives: RAG_ARTIFACTS_DIR, else ".agent"
// relative to the working directory.
func ArtifactsDir() string {
	if d := os.Getenv("RAG_ARTIFACTS_DIR"); d != "" {
		return d
	}
	return defaultArtifactsDir
}
