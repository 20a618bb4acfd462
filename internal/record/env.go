package record

import (
	"runtime"

	"github.com/salazaj/provenance-recorder/internal/models"
)

// CaptureEnvironment snapshots the recording environment. The snapshot is
// deliberately minimal; the diff engine compares it structurally, so every
// key added here widens the environment facet.
func CaptureEnvironment() models.Environment {
	return models.Environment{
		"runtime_version": runtime.Version(),
		"platform":        runtime.GOOS + "/" + runtime.GOARCH,
	}
}
