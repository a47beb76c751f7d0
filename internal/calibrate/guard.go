package calibrate

import "time"

// maxCalibrationAge is how long a calibration snapshot stays trusted
// before staleness alone triggers a recalibration.
const maxCalibrationAge = 30 * 24 * time.Hour

// chunkCountDriftThreshold is the fraction of chunk-count change that
// invalidates a prior snapshot.
const chunkCountDriftThreshold = 0.20

// GuardInput is everything CalibrationGuard needs to decide whether an
// indexing pass should trigger recalibration.
type GuardInput struct {
	HasPriorSnapshot bool
	PriorChunkCount  int
	CurrentChunkCount int
	PriorLanguage    string
	CurrentLanguage  string
	PriorSampledAt   time.Time
	Now              time.Time
}

// ShouldRecalibrate implements the CalibrationGuard predicate: no prior
// snapshot, a chunk-count swing past chunkCountDriftThreshold, a changed
// primary language, or a snapshot older than maxCalibrationAge.
func ShouldRecalibrate(in GuardInput) bool {
	if !in.HasPriorSnapshot {
		return true
	}
	if in.PriorChunkCount > 0 {
		delta := float64(in.CurrentChunkCount-in.PriorChunkCount) / float64(in.PriorChunkCount)
		if delta < 0 {
			delta = -delta
		}
		if delta > chunkCountDriftThreshold {
			return true
		}
	}
	if in.PriorLanguage != "" && in.PriorLanguage != in.CurrentLanguage {
		return true
	}
	if in.Now.Sub(in.PriorSampledAt) > maxCalibrationAge {
		return true
	}
	return false
}
