package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/score"
)

const (
	LeaderboardKey = "ryth_localLeaderboard"
	SummaryKey     = "lastGameScore"
)

type ScoreEntry struct {
	Player     string      `json:"player"`
	Score      float64     `json:"score"`
	Accuracy   float64     `json:"accuracy"` // Percent
	Combo      int         `json:"combo"`    // The max combo of the run
	PP         int         `json:"pp"`
	Judgements game.Counts `json:"judgements"`
}

func NewScoreEntry(player string, s score.Summary) ScoreEntry {
	return ScoreEntry{
		Player:     player,
		Score:      s.Score,
		Accuracy:   s.Accuracy,
		Combo:      s.MaxCombo,
		PP:         score.PP(s.Score),
		Judgements: s.Judgements,
	}
}

// Summary rebuilds what the results screen shows for a stored entry
func (e ScoreEntry) Summary(beatmapID string) score.Summary {
	return score.Summary{
		Score:      e.Score,
		Accuracy:   e.Accuracy,
		MaxCombo:   e.Combo,
		Judgements: e.Judgements,
		BeatmapID:  beatmapID,
	}
}

// Leaderboard maps a chart identity key to entries, best score first
type Leaderboard map[string][]ScoreEntry

// Store is the shared state of one process: loaded charts, the chart
// selected for play and the local leaderboard.
type Store struct {
	Local   Storage // Survives restarts
	Session Storage // Hands results to the next screen
	Log     *zap.Logger

	mu          sync.RWMutex
	current     *game.Chart
	charts      []*game.Chart
	known       map[string]bool
	leaderboard Leaderboard
}

func New(local, session Storage, log *zap.Logger) *Store {
	if nil == log {
		log = zap.NewNop()
	}
	return &Store{
		Local:       local,
		Session:     session,
		Log:         log,
		known:       make(map[string]bool),
		leaderboard: make(Leaderboard),
	}
}

func (s *Store) SetCurrent(c *game.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
	if nil != c {
		s.Log.Debug("chart selected", zap.String("chart", c.Identity().Key()))
	}
}

func (s *Store) Current() *game.Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AddCharts keeps charts whose identity is new and returns them
func (s *Store) AddCharts(charts []*game.Chart) []*game.Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := make([]*game.Chart, 0, len(charts))
	for _, c := range charts {
		key := c.Identity().Key()
		if s.known[key] {
			continue
		}
		s.known[key] = true
		s.charts = append(s.charts, c)
		added = append(added, c)
	}
	return added
}

func (s *Store) Charts() []*game.Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*game.Chart(nil), s.charts...)
}

// Load reads the leaderboard from local storage. Data that does not
// decode is removed and the leaderboard starts empty.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.Local.Get(ctx, LeaderboardKey)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if nil != err {
		return fmt.Errorf("unable to read leaderboard: %w", err)
	}

	var lb Leaderboard
	if err := json.Unmarshal(data, &lb); nil != err || nil == lb {
		s.Log.Warn("discarding corrupt leaderboard", zap.String("key", LeaderboardKey), zap.Error(err))
		if err := s.Local.Remove(ctx, LeaderboardKey); nil != err {
			return fmt.Errorf("unable to remove leaderboard: %w", err)
		}
		return nil
	}
	for key := range lb {
		sortEntries(lb[key])
	}

	s.mu.Lock()
	s.leaderboard = lb
	s.mu.Unlock()
	s.Log.Debug("loaded leaderboard", zap.Int("charts", len(lb)))
	return nil
}

func sortEntries(entries []ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// AddScore inserts entry and writes the whole leaderboard back. The
// in memory leaderboard keeps the entry even if the write fails.
func (s *Store) AddScore(ctx context.Context, key string, entry ScoreEntry) error {
	s.mu.Lock()
	entries := append(s.leaderboard[key], entry)
	sortEntries(entries)
	s.leaderboard[key] = entries
	data, err := json.Marshal(s.leaderboard)
	s.mu.Unlock()
	if nil != err {
		return err
	}

	if err := s.Local.Set(ctx, LeaderboardKey, data); nil != err {
		return fmt.Errorf("unable to save leaderboard: %w", err)
	}
	s.Log.Info("score added",
		zap.String("chart", key),
		zap.String("player", entry.Player),
		zap.Float64("score", entry.Score),
	)
	return nil
}

func (s *Store) Leaderboard(key string) []ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ScoreEntry(nil), s.leaderboard[key]...)
}

// PutSummary hands a finished run to whoever shows results
func (s *Store) PutSummary(ctx context.Context, summary score.Summary) error {
	data, err := json.Marshal(summary)
	if nil != err {
		return err
	}
	return s.Session.Set(ctx, SummaryKey, data)
}

// TakeSummary returns the handed over summary once, then clears it
func (s *Store) TakeSummary(ctx context.Context) (score.Summary, bool, error) {
	var summary score.Summary
	data, err := s.Session.Get(ctx, SummaryKey)
	if errors.Is(err, ErrNotFound) {
		return summary, false, nil
	}
	if nil != err {
		return summary, false, err
	}
	if err := s.Session.Remove(ctx, SummaryKey); nil != err {
		return summary, false, err
	}
	if err := json.Unmarshal(data, &summary); nil != err {
		s.Log.Warn("discarding corrupt summary", zap.String("key", SummaryKey), zap.Error(err))
		return score.Summary{}, false, nil
	}
	return summary, true, nil
}
