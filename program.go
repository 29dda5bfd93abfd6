package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eiannone/keyboard"
	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/archive"
	"git.lost.host/meutraa/ryth/internal/audio"
	"git.lost.host/meutraa/ryth/internal/config"
	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/input"
	"git.lost.host/meutraa/ryth/internal/library"
	"git.lost.host/meutraa/ryth/internal/parser"
	"git.lost.host/meutraa/ryth/internal/render"
	"git.lost.host/meutraa/ryth/internal/score"
	"git.lost.host/meutraa/ryth/internal/store"
	"git.lost.host/meutraa/ryth/internal/theme"
)

// Program moves between the chart menu, a run and its results
type Program struct {
	Config *config.Config
	Log    *zap.Logger

	Store    *store.Store
	Library  *library.Library
	Keyboard *input.Keyboard
	Renderer render.Renderer
	Theme    theme.Theme

	imported chan struct{}
	closers  []func() error
}

func (p *Program) Init(ctx context.Context) error {
	// Ensure our Default implementations are used as interfaces
	var psr parser.Parser = &parser.DefaultParser{Log: p.Log}
	var ext archive.Extractor = &archive.DefaultExtractor{Parser: psr, Log: p.Log}
	p.Theme = &theme.DefaultTheme{}

	local, session, err := p.storage(ctx)
	if nil != err {
		return err
	}
	p.Store = store.New(local, session, p.Log)
	if err := p.Store.Load(ctx); nil != err {
		return err
	}

	fetcher, err := p.fetcher()
	if nil != err {
		return err
	}
	p.Library = &library.Library{Fetcher: fetcher, Extractor: ext, Store: p.Store, Log: p.Log}
	p.Library.LoadManifest(ctx)

	if p.Config.Archive != "" {
		if _, err := p.Library.ImportFile(p.Config.Archive); nil != err && !errors.Is(err, library.ErrAlreadyLoaded) {
			return fmt.Errorf("unable to import %s: %w", p.Config.Archive, err)
		}
	}
	if len(p.Store.Charts()) == 0 && p.Config.Watch == "" {
		return errors.New("no charts found, pass an archive or point --library at a beatmaps.json")
	}

	p.imported = make(chan struct{}, 1)
	if p.Config.Watch != "" {
		go func() {
			err := p.Library.Watch(ctx, p.Config.Watch, func(charts []*game.Chart) {
				select {
				case p.imported <- struct{}{}:
				default:
				}
			})
			if nil != err {
				p.Log.Error("unable to watch for archives", zap.Error(err))
			}
		}()
	}

	p.Keyboard, err = input.OpenKeyboard(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	p.Keyboard.Log = p.Log
	p.Keyboard.Release = p.Config.Release
	p.closers = append(p.closers, p.Keyboard.Close)

	// Clear the screen and hide the cursor
	r := render.NewDefaultRenderer()
	if err := r.Init(); nil != err {
		return fmt.Errorf("unable to set up terminal: %w", err)
	}
	p.Renderer = r
	p.closers = append(p.closers, r.Deinit)
	return nil
}

// Deinit restores the terminal first, then releases storage
func (p *Program) Deinit() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); nil != err {
			p.Log.Warn("unable to clean up", zap.Error(err))
		}
	}
	p.closers = nil
}

func (p *Program) storage(ctx context.Context) (store.Storage, store.Storage, error) {
	switch p.Config.Storage {
	case config.SQLiteBackend:
		s := &store.SQLiteStorage{Path: p.Config.Database}
		if err := s.Init(); nil != err {
			return nil, nil, err
		}
		p.closers = append(p.closers, s.Deinit)
		return s, store.NewMemoryStorage(), nil
	case config.RedisBackend:
		client, err := store.DialRedis(ctx, p.Config.RedisAddr, p.Config.RedisPassword, p.Config.RedisDB)
		if nil != err {
			return nil, nil, err
		}
		p.closers = append(p.closers, client.Close)
		local := &store.RedisStorage{Client: client, Prefix: "ryth:"}
		session := &store.RedisStorage{Client: client, Prefix: "ryth:session:", TTL: time.Hour}
		return local, session, nil
	}
	return store.NewMemoryStorage(), store.NewMemoryStorage(), nil
}

func (p *Program) fetcher() (library.Fetcher, error) {
	src := p.Config.Library
	switch {
	case src == "minio":
		m := p.Config.Minio
		return library.NewMinioFetcher(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.Prefix, m.SSL)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return library.HTTPFetcher{BaseURL: src, Client: &http.Client{Timeout: 30 * time.Second}}, nil
	}
	return library.DirFetcher{Dir: src}, nil
}

func (p *Program) Run(ctx context.Context) error {
	for {
		chart, err := p.menu(ctx)
		if nil != err || nil == chart {
			return ignoreCancel(err)
		}
		if err := p.play(ctx, chart); nil != err {
			return ignoreCancel(err)
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// menu returns the chart to play, or nil to quit
func (p *Program) menu(ctx context.Context) (*game.Chart, error) {
	_, rows, err := p.Renderer.Size()
	if nil != err {
		return nil, fmt.Errorf("unable to get terminal size: %w", err)
	}

	selected := 0
	for {
		charts := p.Store.Charts()
		for i, c := range charts {
			if c == p.Store.Current() {
				selected = i
			}
		}
		render.Menu(p.Renderer, charts, selected, rows)
		if err := p.Renderer.Flush(); nil != err {
			return nil, err
		}

		r, key, err := p.readKey(ctx)
		if errors.Is(err, errRedraw) {
			continue
		}
		if nil != err {
			return nil, err
		}
		if len(charts) == 0 {
			if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || r == 'q' {
				return nil, nil
			}
			continue
		}

		switch {
		case r == 'j' || key == keyboard.KeyArrowDown:
			selected = min(selected+1, len(charts)-1)
		case r == 'k' || key == keyboard.KeyArrowUp:
			selected = max(selected-1, 0)
		case r == 'l':
			// Best local score of the selected chart
			if err := p.best(ctx, charts[selected]); nil != err {
				return nil, err
			}
		case key == keyboard.KeyEnter:
			p.Store.SetCurrent(charts[selected])
			return charts[selected], nil
		case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || r == 'q':
			return nil, nil
		}
		p.Store.SetCurrent(charts[selected])
	}
}

var errRedraw = errors.New("library changed")

// readKey also returns when a watched archive was imported
func (p *Program) readKey(ctx context.Context) (rune, keyboard.Key, error) {
	kctx, cancel := context.WithCancel(ctx)
	defer cancel()
	redraw := make(chan struct{})
	go func() {
		select {
		case <-p.imported:
			close(redraw)
			cancel()
		case <-kctx.Done():
		}
	}()

	r, key, err := p.Keyboard.ReadKey(kctx)
	if nil != err && nil == ctx.Err() {
		select {
		case <-redraw:
			return 0, 0, errRedraw
		default:
		}
	}
	return r, key, err
}

func (p *Program) play(ctx context.Context, chart *game.Chart) error {
	if len(chart.Notes) == 0 {
		p.Log.Warn("chart has no notes to play", zap.String("chart", chart.Identity().Key()))
		return nil
	}
	keys := chart.Keys()
	keymap := p.Config.Keys(keys)

	engine := score.NewEngine(chart, score.SystemClock{})
	engine.Log = p.Log
	engine.OnFinish = func(s score.Summary) {
		p.finish(ctx, s)
	}
	if player, err := audio.Open(chart.Audio, p.Log); nil != err {
		p.Log.Warn("playing without audio", zap.String("chart", chart.Identity().Key()), zap.Error(err))
	} else {
		engine.Audio = player
		defer player.Close()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		p.Keyboard.Wait()
	}()

	var source input.Source = p.Keyboard
	p.Keyboard.Keymap = keymap
	if p.Config.Device != "" {
		source = &input.Evdev{Device: p.Config.Device, Keymap: keymap, Log: p.Log}
		defer p.Keyboard.Drain()
		defer source.Close()
	}
	events := make(chan input.Event, 64)
	if err := source.Start(runCtx, events); nil != err {
		return fmt.Errorf("unable to read input: %w", err)
	}

	columns, rows, err := p.Renderer.Size()
	if nil != err {
		return fmt.Errorf("unable to get terminal size: %w", err)
	}
	field := &render.Playfield{
		Renderer: p.Renderer,
		Theme:    p.Theme,
		Keys:     keys,
		Window:   int(p.Config.Window.Milliseconds()),
		BarRow:   int(p.Config.BarRow),
		Spacing:  int(p.Config.Spacing),
		Flash:    int(500 * time.Millisecond / p.Config.FramePeriod),
	}
	field.Layout(columns, rows)
	p.Renderer.Clear()

	scheduler := &score.Scheduler{
		Scorer: engine,
		Period: p.Config.FramePeriod,
		Log:    p.Log,
		Frame: func() {
			field.Draw(engine.Snapshot(field.Horizon()))
			if err := p.Renderer.Flush(); nil != err {
				p.Log.Warn("unable to draw frame", zap.Error(err))
			}
		},
	}
	if err := scheduler.Run(runCtx, events); nil != err {
		return err
	}
	cancel()
	p.Keyboard.Wait()

	if engine.State() != score.Finished {
		return nil
	}
	return p.results(ctx)
}

func (p *Program) finish(ctx context.Context, s score.Summary) {
	entry := store.NewScoreEntry(p.Config.Player, s)
	if err := p.Store.AddScore(ctx, s.BeatmapID, entry); nil != err {
		p.Log.Error("unable to save score", zap.Error(err))
	}
	if err := p.Store.PutSummary(ctx, s); nil != err {
		p.Log.Error("unable to hand over results", zap.Error(err))
	}
}

func (p *Program) best(ctx context.Context, chart *game.Chart) error {
	id := chart.Identity()
	board := p.Store.Leaderboard(id.Key())
	if len(board) == 0 {
		return nil
	}
	s := board[0].Summary(id.Key())
	s.Chart = id
	if err := p.Store.PutSummary(ctx, s); nil != err {
		return err
	}
	return p.results(ctx)
}

// results shows the handed over summary until a key is pressed
func (p *Program) results(ctx context.Context) error {
	s, ok, err := p.Store.TakeSummary(ctx)
	if nil != err {
		p.Log.Warn("unable to read results", zap.Error(err))
	}
	if !ok {
		return nil
	}
	render.Results(p.Renderer, p.Theme, s, p.Store.Leaderboard(s.BeatmapID))
	if err := p.Renderer.Flush(); nil != err {
		return err
	}

	// Let the keys still held from the run go by
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	p.Keyboard.Drain()
	_, _, err = p.Keyboard.ReadKey(ctx)
	return err
}
