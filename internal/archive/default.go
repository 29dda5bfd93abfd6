package archive

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/parser"
)

const definitionExt = ".osu"

type DefaultExtractor struct {
	Parser parser.Parser
	Log    *zap.Logger
}

func (e *DefaultExtractor) log() *zap.Logger {
	if nil == e.Log {
		return zap.NewNop()
	}
	return e.Log
}

func (e *DefaultExtractor) parser() parser.Parser {
	if nil == e.Parser {
		return &parser.DefaultParser{Log: e.Log}
	}
	return e.Parser
}

type definition struct {
	name  string
	chart *game.Chart
}

func (e *DefaultExtractor) Extract(data []byte) ([]*game.Chart, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if nil != err {
		return nil, fmt.Errorf("unable to open archive: %w", err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries[f.Name] = f
		if strings.HasSuffix(strings.ToLower(f.Name), definitionExt) {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return nil, ErrEmptyArchive
	}

	// Resolve the media named first, once for the whole archive
	var audio, image *game.Media
	defs := make([]definition, 0, len(names))
	for _, name := range names {
		chart, err := e.parse(entries[name])
		if nil != err {
			e.log().Warn("skipping chart definition", zap.String("entry", name), zap.Error(err))
			continue
		}
		defs = append(defs, definition{name: name, chart: chart})

		meta := &chart.Metadata
		if nil == audio && meta.AudioFilename != "" {
			audio = e.media(entries, meta.AudioFilename)
		}
		if nil == image && meta.BackgroundFilename != "" {
			image = e.media(entries, meta.BackgroundFilename)
		}
	}

	charts := make([]*game.Chart, 0, len(defs))
	for _, def := range defs {
		chart := def.chart
		chart.Audio = audio
		chart.Image = image

		meta := &chart.Metadata
		meta.AudioFilename = ""
		if nil != audio {
			meta.AudioFilename = audio.Filename
		}
		meta.BackgroundFilename = ""
		if nil != image {
			meta.BackgroundFilename = image.Filename
		}
		fillComputed(chart)

		e.log().Debug("extracted chart",
			zap.String("entry", def.name),
			zap.String("title", meta.Title),
			zap.String("difficulty", meta.Difficulty),
			zap.Int("objects", meta.Objects),
			zap.String("rating", meta.Rating),
		)
		charts = append(charts, chart)
	}
	return charts, nil
}

func fillComputed(chart *game.Chart) {
	meta := &chart.Metadata
	meta.Length = game.FormatLength(chart.LastTime())
	meta.Objects = len(chart.Notes)
	meta.Circles = chart.Count(game.Tap)
	meta.Holds = chart.Count(game.Hold)
	meta.Spinners = 0
	meta.Stars = game.StarRating(chart.Notes, chart.Keys())
	meta.Rating = fmt.Sprintf("%.1f", meta.Stars)
}

func (e *DefaultExtractor) parse(f *zip.File) (*game.Chart, error) {
	data, err := readEntry(f)
	if nil != err {
		return nil, err
	}
	return e.parser().Parse(data)
}

// media returns nil when the named entry is absent or unreadable
func (e *DefaultExtractor) media(entries map[string]*zip.File, name string) *game.Media {
	f, ok := entries[name]
	if !ok {
		e.log().Warn("asset missing from archive", zap.String("filename", name))
		return nil
	}
	data, err := readEntry(f)
	if nil != err {
		e.log().Warn("unable to read asset", zap.String("filename", name), zap.Error(err))
		return nil
	}
	return &game.Media{
		Filename: name,
		MimeType: MimeType(name),
		Data:     data,
	}
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if nil != err {
		return nil, fmt.Errorf("unable to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if nil != err {
		return nil, fmt.Errorf("unable to read %s: %w", f.Name, err)
	}
	return data, nil
}
