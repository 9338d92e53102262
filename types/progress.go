package types

// Stage identifies the phase a progress event belongs to
type Stage string

const (
	StageExtract Stage = "extract"
	StageCluster Stage = "cluster"
)

// Progress reports how far a run has advanced.
// During extraction Processed counts handled files; during clustering
// Remaining counts records still in the working pool.
type Progress struct {
	Stage     Stage
	Processed int
	Remaining int
	Total     int
}

// Percent returns completion of the current stage in the range 0..100
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	switch p.Stage {
	case StageCluster:
		return float64(p.Total-p.Remaining) / float64(p.Total) * 100
	default:
		return float64(p.Processed) / float64(p.Total) * 100
	}
}
