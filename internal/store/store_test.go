package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/score"
)

func chart(title, difficulty string) *game.Chart {
	return &game.Chart{Metadata: game.Metadata{Title: title, Difficulty: difficulty, Mapper: "m"}}
}

func TestCurrent(t *testing.T) {
	s := New(NewMemoryStorage(), NewMemoryStorage(), nil)
	assert.Nil(t, s.Current())

	c := chart("a", "b")
	s.SetCurrent(c)
	assert.Same(t, c, s.Current())
}

func TestAddChartsDedupes(t *testing.T) {
	s := New(NewMemoryStorage(), NewMemoryStorage(), nil)

	a, b := chart("a", "easy"), chart("a", "hard")
	added := s.AddCharts([]*game.Chart{a, b})
	assert.Equal(t, []*game.Chart{a, b}, added)

	again := chart("a", "easy")
	c := chart("c", "easy")
	added = s.AddCharts([]*game.Chart{again, c, c})
	assert.Equal(t, []*game.Chart{c}, added)
	assert.Equal(t, []*game.Chart{a, b, c}, s.Charts())
}

func TestAddScoreSortsAndPersists(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryStorage()
	s := New(local, NewMemoryStorage(), nil)

	require.NoError(t, s.AddScore(ctx, "k", ScoreEntry{Player: "a", Score: 100}))
	require.NoError(t, s.AddScore(ctx, "k", ScoreEntry{Player: "b", Score: 300}))
	require.NoError(t, s.AddScore(ctx, "k", ScoreEntry{Player: "c", Score: 100}))
	require.NoError(t, s.AddScore(ctx, "other", ScoreEntry{Player: "d", Score: 5}))

	players := func(entries []ScoreEntry) []string {
		var p []string
		for _, e := range entries {
			p = append(p, e.Player)
		}
		return p
	}
	assert.Equal(t, []string{"b", "a", "c"}, players(s.Leaderboard("k")))
	assert.Empty(t, s.Leaderboard("missing"))

	// A fresh store sees the same leaderboard
	fresh := New(local, NewMemoryStorage(), nil)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, []string{"b", "a", "c"}, players(fresh.Leaderboard("k")))
	assert.Equal(t, []string{"d"}, players(fresh.Leaderboard("other")))
}

func TestLeaderboardJSON(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryStorage()
	s := New(local, NewMemoryStorage(), nil)

	summary := score.Summary{Score: 123456, Accuracy: 97.5, MaxCombo: 42, Judgements: game.Counts{Marvelous: 40, Miss: 2}}
	require.NoError(t, s.AddScore(ctx, "SongHardme", NewScoreEntry("p", summary)))

	data, err := local.Get(ctx, LeaderboardKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"SongHardme":[{
		"player":"p","score":123456,"accuracy":97.5,"combo":42,"pp":12,
		"judgements":{"MARVELOUS":40,"PERFECT":0,"GREAT":0,"GOOD":0,"BAD":0,"MISS":2}
	}]}`, string(data))
}

func TestLoadFillsMissingCounts(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryStorage()
	require.NoError(t, local.Set(ctx, LeaderboardKey, []byte(
		`{"x":[{"player":"a","score":1,"judgements":{"PERFECT":3}},{"player":"b","score":9}]}`,
	)))

	s := New(local, NewMemoryStorage(), nil)
	require.NoError(t, s.Load(ctx))
	entries := s.Leaderboard("x")
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Player)
	assert.Equal(t, game.Counts{Perfect: 3}, entries[1].Judgements)
}

func TestLoadDiscardsCorrupt(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryStorage()
	require.NoError(t, local.Set(ctx, LeaderboardKey, []byte(`{"x":[{"score":`)))

	core, logs := observer.New(zapcore.WarnLevel)
	s := New(local, NewMemoryStorage(), zap.New(core))
	require.NoError(t, s.Load(ctx))
	assert.Empty(t, s.Leaderboard("x"))
	assert.Equal(t, 1, logs.FilterMessage("discarding corrupt leaderboard").Len())

	_, err := local.Get(ctx, LeaderboardKey)
	assert.ErrorIs(t, err, ErrNotFound)

	// Still usable afterwards
	require.NoError(t, s.AddScore(ctx, "x", ScoreEntry{Score: 1}))
	assert.Len(t, s.Leaderboard("x"), 1)
}

func TestSummaryHandoff(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStorage(), NewMemoryStorage(), nil)

	_, ok, err := s.TakeSummary(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	summary := score.Summary{
		RunID:      uuid.New(),
		Score:      5000,
		Accuracy:   88.8,
		MaxCombo:   7,
		Judgements: game.Counts{Great: 7, Miss: 1},
		BeatmapID:  "abc",
		Chart:      game.Identity{Title: "a", Difficulty: "b", Mapper: "c"},
	}
	require.NoError(t, s.PutSummary(ctx, summary))

	got, ok, err := s.TakeSummary(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary, got)

	_, ok, err = s.TakeSummary(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummaryJSONKeys(t *testing.T) {
	data, err := json.Marshal(score.Summary{BeatmapID: "abc"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"score", "accuracy", "maxCombo", "judgements", "beatmapId"} {
		assert.Contains(t, fields, key)
	}
}

func TestCorruptSummaryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	session := NewMemoryStorage()
	require.NoError(t, session.Set(ctx, SummaryKey, []byte("{nope")))

	s := New(NewMemoryStorage(), session, nil)
	_, ok, err := s.TakeSummary(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = session.Get(ctx, SummaryKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntrySummary(t *testing.T) {
	e := ScoreEntry{Player: "p", Score: 10, Accuracy: 50, Combo: 3, Judgements: game.Counts{Bad: 1}}
	s := e.Summary("key")
	assert.Equal(t, "key", s.BeatmapID)
	assert.Equal(t, 3, s.MaxCombo)
	assert.Equal(t, "E", s.Rank())
}

func testStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "a", []byte("one")))
	require.NoError(t, s.Set(ctx, "a", []byte("two")))
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), v)

	require.NoError(t, s.Remove(ctx, "a"))
	require.NoError(t, s.Remove(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage(t *testing.T) {
	testStorage(t, NewMemoryStorage())
	testStorage(t, &MemoryStorage{})
}

func TestSQLiteStorage(t *testing.T) {
	s := &SQLiteStorage{Path: filepath.Join(t.TempDir(), "ryth.db")}
	require.NoError(t, s.Init())
	defer s.Deinit()
	testStorage(t, s)
}

func TestSQLiteStorageInMemory(t *testing.T) {
	s := &SQLiteStorage{Path: ":memory:"}
	require.NoError(t, s.Init())
	defer s.Deinit()
	testStorage(t, s)
}
