package game

import "math"

type TimingPoint struct {
	Time        float64 // Offset in ms
	BeatLength  float64 // ms per beat, negative for inherited points
	Meter       int
	SampleSet   int
	SampleIndex int
	Volume      int
	Uninherited bool
	Effects     int
}

// BPM of the first uninherited timing point, rounded. ok is false when
// the chart has no uninherited point.
func BPM(points []TimingPoint) (bpm float64, ok bool) {
	for _, tp := range points {
		if tp.Uninherited {
			return math.Round(60000 / tp.BeatLength), true
		}
	}
	return 0, false
}
