package game

import (
	"fmt"
	"math"
)

const (
	DefaultKeys = 4
	MaxKeys     = 18
	DefaultMode = 3 // The lane based mode
)

// Metadata is everything displayed about a chart. The computed fields are
// filled once by the archive extractor.
type Metadata struct {
	Title        string
	Artist       string
	Mapper       string
	Difficulty   string // The version label, e.g. "Hard"
	Keys         int
	Mode         int
	BPM          float64
	OD           float64
	AR           float64
	HP           float64
	BeatmapID    int
	BeatmapSetID int

	AudioFilename      string
	BackgroundFilename string

	Length   string // m:ss
	Objects  int
	Circles  int
	Holds    int
	Spinners int // Never modeled, always 0
	Stars    float64
	Rating   string
}

// Identity is the leaderboard key of a chart. Two charts from different
// sources sharing all three fields collide.
type Identity struct {
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Mapper     string `json:"mapper"`
}

func (m *Metadata) Identity() Identity {
	return Identity{Title: m.Title, Difficulty: m.Difficulty, Mapper: m.Mapper}
}

// Key is the persisted form, a plain concatenation kept compatible with
// existing leaderboards.
func (id Identity) Key() string {
	return id.Title + id.Difficulty + id.Mapper
}

// StarRating is a density placeholder, not a real difficulty calculation.
// notes must be time ordered.
func StarRating(notes []Note, keys int) float64 {
	if len(notes) == 0 {
		return 0
	}
	span := notes[len(notes)-1].Time - notes[0].Time
	nps := 0.0
	if span > 0 {
		nps = float64(len(notes)) / float64(span) * 1000
	}
	stars := nps * math.Sqrt(float64(keys)/4) * 2
	return math.Min(10, math.Max(0.1, stars))
}

// FormatLength renders ms as m:ss
func FormatLength(ms int) string {
	seconds := ms / 1000
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
