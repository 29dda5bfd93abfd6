package score

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/game"
)

// Engine judges one chart against key events and a clock. Notes are
// identified by their index in the time ordered chart.
//
// gameTime = now - start - paused, in ms.
type Engine struct {
	Audio    Audio
	Log      *zap.Logger
	OnFinish func(Summary)

	mu    sync.Mutex
	clock Clock
	chart *game.Chart
	state State

	start    time.Time
	pausedAt time.Time
	paused   time.Duration
	gameTime int

	notes  []RuntimeNote
	cursor int // Every note before this is terminal or a held hold
	budget float64
	held   []bool

	// Holds whose head was hit, to the judgement of that head
	activeHolds map[int]game.Judgement

	runID       uuid.UUID
	score       float64
	accuracySum float64
	combo       int
	maxCombo    int
	counts      game.Counts
	last        game.Judgement
	hasLast     bool
}

var _ Scorer = (*Engine)(nil)

// NewEngine accepts a nil chart, Start then fails with ErrNoActiveChart
func NewEngine(chart *game.Chart, clock Clock) *Engine {
	if nil == clock {
		clock = SystemClock{}
	}
	return &Engine{clock: clock, chart: chart}
}

func (e *Engine) log() *zap.Logger {
	if nil == e.Log {
		return zap.NewNop()
	}
	return e.Log
}

func (e *Engine) audio() Audio {
	if nil == e.Audio {
		return nopAudio{}
	}
	return e.Audio
}

func (e *Engine) Chart() *game.Chart {
	return e.chart
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start begins a run. It does nothing while a run is in progress.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Running, Paused:
		return nil
	case Stopped:
		return ErrStopped
	}
	if nil == e.chart {
		return ErrNoActiveChart
	}
	e.reset()
	e.audio().Rewind()
	e.audio().Play()
	return nil
}

func (e *Engine) reset() {
	keys := e.chart.Keys()
	e.notes = make([]RuntimeNote, len(e.chart.Notes))
	for i, n := range e.chart.Notes {
		e.notes[i] = RuntimeNote{Note: n, Index: i}
	}
	e.budget = 0
	if len(e.notes) > 0 {
		e.budget = MaxScore / float64(len(e.notes))
	}
	e.cursor = 0
	e.held = make([]bool, keys)
	e.activeHolds = make(map[int]game.Judgement)

	e.runID = uuid.New()
	e.score = 0
	e.accuracySum = 0
	e.combo = 0
	e.maxCombo = 0
	e.counts = game.Counts{}
	e.hasLast = false

	e.state = Running
	e.start = e.clock.Now()
	e.paused = 0
	e.gameTime = 0

	e.log().Info("run started",
		zap.String("run", e.runID.String()),
		zap.String("chart", e.chart.Identity().Key()),
		zap.Int("notes", len(e.notes)),
	)
}

// Pause freezes game time without touching any note
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return
	}
	e.gameTime = e.now()
	e.state = Paused
	e.pausedAt = e.clock.Now()
	e.audio().Pause()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Paused {
		return
	}
	e.paused += e.clock.Now().Sub(e.pausedAt)
	e.state = Running
	e.audio().Resume()
}

// Restart throws the current run away and starts over on the same chart
func (e *Engine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Stopped {
		return ErrStopped
	}
	if nil == e.chart {
		return ErrNoActiveChart
	}
	e.audio().Pause()
	e.reset()
	e.audio().Rewind()
	e.audio().Play()
	return nil
}

// Stop tears the run down for good. Repeated calls do nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Stopped {
		return
	}
	if e.state == Running || e.state == Paused {
		e.audio().Pause()
	}
	e.state = Stopped
}

func (e *Engine) now() int {
	return int((e.clock.Now().Sub(e.start) - e.paused).Milliseconds())
}

func (e *Engine) GameTime() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Running {
		e.gameTime = e.now()
	}
	return e.gameTime
}

func (e *Engine) KeyDown(lane int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running || lane < 0 || lane >= len(e.held) {
		return
	}
	if e.held[lane] {
		return
	}
	e.held[lane] = true
	e.gameTime = e.now()
	e.hit(lane, e.gameTime)
}

func (e *Engine) KeyUp(lane int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lane < 0 || lane >= len(e.held) {
		return
	}
	e.held[lane] = false
	if e.state != Running {
		return
	}
	e.gameTime = e.now()
	e.release(lane, e.gameTime)
}

// hit judges the nearest unresolved note in lane, if it is in reach
func (e *Engine) hit(lane int, gt int) {
	best := -1
	bestDistance := math.Inf(1)
	for i := e.cursor; i < len(e.notes); i++ {
		n := &e.notes[i]
		if float64(n.Time-gt) > game.MissWindow {
			break
		}
		if n.Lane != lane || n.Status != Pending || n.HoldStartHit {
			continue
		}
		d := math.Abs(float64(gt - n.Time))
		if d <= game.MissWindow && d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return
	}

	n := &e.notes[best]
	j := game.Judge(float64(gt - n.Time))
	if !n.IsHold() {
		n.Status = Hit
		n.Judgement = j
		e.award(e.budget * j.Multiplier())
		e.apply(j)
		return
	}

	// Combo and accuracy wait for the tail
	n.HoldStartHit = true
	e.activeHolds[best] = j
	e.award(e.budget * 0.5 * j.Multiplier())
}

func (e *Engine) release(lane int, gt int) {
	for _, i := range e.holding() {
		n := &e.notes[i]
		if n.Lane != lane {
			continue
		}
		tail := game.Judge(float64(gt - n.EndTime))
		e.award(e.budget * 0.5 * tail.Multiplier())

		final := game.Worse(e.activeHolds[i], tail)
		n.Status = Hit
		n.Judgement = final
		n.HoldProgress = 1
		delete(e.activeHolds, i)
		e.apply(final)
	}
}

func (e *Engine) holding() []int {
	holding := lo.Keys(e.activeHolds)
	sort.Ints(holding)
	return holding
}

// award adds points, a sum within rounding error of the cap is the cap
func (e *Engine) award(points float64) {
	e.score = math.Min(e.score+points, MaxScore)
	if MaxScore-e.score < 1e-6 {
		e.score = MaxScore
	}
}

// apply counts a resolved note once
func (e *Engine) apply(j game.Judgement) {
	e.counts.Add(j)
	e.accuracySum += j.Accuracy()
	if j == game.Miss {
		e.combo = 0
	} else {
		e.combo++
		e.maxCombo = max(e.maxCombo, e.combo)
	}
	e.last, e.hasLast = j, true
}

func (e *Engine) accuracy() float64 {
	total := e.counts.Total()
	if total == 0 {
		return 1
	}
	return e.accuracySum / float64(total)
}

// Advance misses every note that can no longer be hit at gameTime.
// Running it again at the same time changes nothing.
func (e *Engine) Advance(gameTime int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return
	}
	e.sweep(gameTime)
}

func (e *Engine) sweep(gt int) {
	for i := e.cursor; i < len(e.notes); i++ {
		n := &e.notes[i]
		if float64(gt-n.Time) <= game.MissWindow {
			break
		}
		if n.Status == Pending && !n.HoldStartHit {
			n.Status = Missed
			n.Judgement = game.Miss
			e.apply(game.Miss)
		}
	}
	for e.cursor < len(e.notes) && (e.notes[e.cursor].Status.Terminal() || e.notes[e.cursor].HoldStartHit) {
		e.cursor++
	}

	// Held past the end of the tail window
	for _, i := range e.holding() {
		n := &e.notes[i]
		if float64(gt-n.EndTime) > game.MissWindow {
			n.Status = Missed
			n.Judgement = game.Miss
			n.HoldProgress = 1
			delete(e.activeHolds, i)
			e.apply(game.Miss)
		}
	}
}

func (e *Engine) progress(gt int) {
	for i := range e.activeHolds {
		n := &e.notes[i]
		if !e.held[n.Lane] || gt < n.Time || gt > n.EndTime {
			continue
		}
		if n.Duration() <= 0 {
			n.HoldProgress = 1
			continue
		}
		n.HoldProgress = math.Min(float64(gt-n.Time)/float64(n.Duration()), 1)
	}
}

func (e *Engine) done() bool {
	return e.cursor == len(e.notes) && len(e.activeHolds) == 0
}

// Tick moves the run to the clock's current time and reports its state.
// OnFinish is called once, outside the lock, when the last note resolves.
func (e *Engine) Tick() State {
	e.mu.Lock()
	if e.state != Running {
		s := e.state
		e.mu.Unlock()
		return s
	}
	e.gameTime = e.now()
	e.sweep(e.gameTime)
	e.progress(e.gameTime)
	if !e.done() {
		e.mu.Unlock()
		return Running
	}

	e.state = Finished
	e.audio().Pause()
	summary := e.summary()
	e.log().Info("run finished",
		zap.String("run", summary.RunID.String()),
		zap.String("chart", summary.BeatmapID),
		zap.Float64("score", summary.Score),
		zap.Float64("accuracy", summary.Accuracy),
		zap.Int("maxCombo", summary.MaxCombo),
	)
	onFinish := e.OnFinish
	e.mu.Unlock()

	if nil != onFinish {
		onFinish(summary)
	}
	return Finished
}

func (e *Engine) summary() Summary {
	id := e.chart.Identity()
	return Summary{
		RunID:      e.runID,
		Score:      e.score,
		Accuracy:   e.accuracy() * 100,
		MaxCombo:   e.maxCombo,
		Judgements: e.counts,
		BeatmapID:  id.Key(),
		Chart:      id,
	}
}

// Summary of the run so far
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary()
}

// Snapshot copies the unresolved notes up to horizon ms ahead
func (e *Engine) Snapshot(horizon int) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Running {
		e.gameTime = e.now()
	}

	s := Snapshot{
		State:     e.state,
		GameTime:  e.gameTime,
		Score:     e.score,
		Combo:     e.combo,
		MaxCombo:  e.maxCombo,
		Accuracy:  e.accuracy(),
		Counts:    e.counts,
		Last:      e.last,
		HasLast:   e.hasLast,
		Held:      append([]bool(nil), e.held...),
		NoteCount: len(e.notes),
	}
	for _, i := range e.holding() {
		if i < e.cursor {
			s.Notes = append(s.Notes, e.notes[i])
		}
	}
	for i := e.cursor; i < len(e.notes); i++ {
		n := e.notes[i]
		if n.Time > e.gameTime+horizon {
			break
		}
		if n.Status == Pending {
			s.Notes = append(s.Notes, n)
		}
	}
	return s
}

// Notes copies every runtime note, for tests and the results screen
func (e *Engine) Notes() []RuntimeNote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RuntimeNote(nil), e.notes...)
}
