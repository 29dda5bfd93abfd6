package game

import "math"

type Judgement uint8

// Ordered from best to worst
const (
	Marvelous Judgement = iota
	Perfect
	Great
	Good
	Bad
	Miss
)

var Judgements = [...]Judgement{Marvelous, Perfect, Great, Good, Bad, Miss}

type judgementInfo struct {
	Name     string
	Window   float64 // Maximum absolute distance in ms, inclusive
	Accuracy float64
	Score    float64 // Multiplier of a note's score budget
}

var judgementTable = [...]judgementInfo{
	Marvelous: {Name: "MARVELOUS", Window: 50, Accuracy: 1.0, Score: 1.0},
	Perfect:   {Name: "PERFECT", Window: 100, Accuracy: 1.0, Score: 0.95},
	Great:     {Name: "GREAT", Window: 200, Accuracy: 0.8, Score: 0.7},
	Good:      {Name: "GOOD", Window: 300, Accuracy: 0.6, Score: 0.4},
	Bad:       {Name: "BAD", Window: 400, Accuracy: 0.3, Score: 0.1},
	Miss:      {Name: "MISS", Window: math.Inf(1), Accuracy: 0, Score: 0},
}

// MissWindow is the distance beyond which a note can no longer be hit
var MissWindow = judgementTable[Bad].Window

func (j Judgement) String() string { return judgementTable[j].Name }

func (j Judgement) Window() float64 { return judgementTable[j].Window }

func (j Judgement) Accuracy() float64 { return judgementTable[j].Accuracy }

func (j Judgement) Multiplier() float64 { return judgementTable[j].Score }

// Judge classifies a signed distance in ms. Anything beyond the BAD window
// is a MISS.
func Judge(distance float64) Judgement {
	d := math.Abs(distance)
	for _, j := range Judgements[:Miss] {
		if d <= j.Window() {
			return j
		}
	}
	return Miss
}

// Worse returns the lower ranked of two judgements
func Worse(a, b Judgement) Judgement {
	if a > b {
		return a
	}
	return b
}

// Counts is the per judgement tally of a run. The JSON form matches the
// leaderboard and run summary records.
type Counts struct {
	Marvelous int `json:"MARVELOUS"`
	Perfect   int `json:"PERFECT"`
	Great     int `json:"GREAT"`
	Good      int `json:"GOOD"`
	Bad       int `json:"BAD"`
	Miss      int `json:"MISS"`
}

func (c *Counts) field(j Judgement) *int {
	switch j {
	case Marvelous:
		return &c.Marvelous
	case Perfect:
		return &c.Perfect
	case Great:
		return &c.Great
	case Good:
		return &c.Good
	case Bad:
		return &c.Bad
	}
	return &c.Miss
}

func (c *Counts) Add(j Judgement) {
	*c.field(j)++
}

func (c Counts) Get(j Judgement) int {
	return *c.field(j)
}

func (c Counts) Total() int {
	return c.Marvelous + c.Perfect + c.Great + c.Good + c.Bad + c.Miss
}

func (c Counts) Hits() int {
	return c.Total() - c.Miss
}
