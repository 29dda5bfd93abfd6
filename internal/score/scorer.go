package score

import (
	"errors"
	"math"

	"github.com/google/uuid"

	"git.lost.host/meutraa/ryth/internal/game"
)

const MaxScore = 1_000_000

var (
	ErrNoActiveChart = errors.New("no chart selected")
	ErrStopped       = errors.New("run has been torn down")
)

// Scorer is what the scheduler and the play screen need from a run
type Scorer interface {
	Start() error
	Pause()
	Resume()
	Restart() error
	Stop()

	KeyDown(lane int)
	KeyUp(lane int)
	Tick() State

	State() State
	Snapshot(horizon int) Snapshot
}

// Audio is driven fire and forget, nothing waits on playback
type Audio interface {
	Play()
	Pause()
	Resume()
	Rewind()
}

type nopAudio struct{}

func (nopAudio) Play()   {}
func (nopAudio) Pause()  {}
func (nopAudio) Resume() {}
func (nopAudio) Rewind() {}

type State uint8

const (
	Idle State = iota
	Running
	Paused
	Finished
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	case Stopped:
		return "stopped"
	}
	return "idle"
}

type Status uint8

const (
	Pending Status = iota
	Hit
	Missed
)

func (s Status) Terminal() bool {
	return s != Pending
}

// RuntimeNote is the per run copy of a chart note
type RuntimeNote struct {
	game.Note
	Index        int
	Status       Status
	HoldStartHit bool
	HoldProgress float64        // 0..1 of the hold body passed while held
	Judgement    game.Judgement // Final judgement, valid once terminal
}

// Snapshot is a copy of the run for display
type Snapshot struct {
	State     State
	GameTime  int
	Score     float64
	Combo     int
	MaxCombo  int
	Accuracy  float64 // 0..1
	Counts    game.Counts
	Last      game.Judgement
	HasLast   bool
	Notes     []RuntimeNote // Unresolved notes up to the horizon
	Held      []bool
	NoteCount int
}

type Summary struct {
	RunID      uuid.UUID     `json:"runId"`
	Score      float64       `json:"score"`
	Accuracy   float64       `json:"accuracy"` // Percent
	MaxCombo   int           `json:"maxCombo"`
	Judgements game.Counts   `json:"judgements"`
	BeatmapID  string        `json:"beatmapId"`
	Chart      game.Identity `json:"chart"`
}

// Submission is the body the remote scoring API accepts
type Submission struct {
	BeatmapID string  `json:"beatmapId"`
	Score     float64 `json:"score"`
	Accuracy  float64 `json:"accuracy"`
}

func (s Summary) Submission() Submission {
	return Submission{BeatmapID: s.BeatmapID, Score: s.Score, Accuracy: s.Accuracy}
}

func (s Summary) Rank() string {
	return Rank(s.Accuracy)
}

// Rank grades an accuracy percentage
func Rank(accuracy float64) string {
	switch {
	case accuracy >= 100:
		return "SS"
	case accuracy >= 95:
		return "S"
	case accuracy >= 90:
		return "A"
	case accuracy >= 85:
		return "B"
	case accuracy >= 80:
		return "C"
	case accuracy >= 70:
		return "D"
	}
	return "E"
}

func PP(score float64) int {
	return int(math.Floor(score / 10000))
}
