package parser

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/game"
)

const holdFlag = 128 // Bit 7 of the hit object type

type DefaultParser struct {
	Log *zap.Logger
}

func (p *DefaultParser) log() *zap.Logger {
	if nil == p.Log {
		return zap.NewNop()
	}
	return p.Log
}

func (p *DefaultParser) ParseFile(file string) (*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.Parse(data)
}

func splitKeyValue(line string) (string, string, bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// Parse is best effort: unknown sections and keys are skipped, and
// malformed numbers become NaN or the field default instead of an error.
// The only error is a failure of the underlying scanner.
func (p *DefaultParser) Parse(data []byte) (*game.Chart, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	chart := &game.Chart{}
	meta := &chart.Metadata
	keys := math.NaN()
	mode := math.NaN()
	dropped := 0

	section := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			continue
		}
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		switch section {
		case "General":
			k, v, ok := splitKeyValue(line)
			if !ok {
				continue
			}
			switch k {
			case "AudioFilename":
				meta.AudioFilename = v
			case "Mode":
				mode = parseInt(v)
			case "BackgroundFilename":
				meta.BackgroundFilename = v
			}

		case "Metadata":
			k, v, ok := splitKeyValue(line)
			if !ok {
				continue
			}
			switch k {
			case "Title":
				meta.Title = v
			case "Artist":
				meta.Artist = v
			case "Creator":
				meta.Mapper = v
			case "Version":
				meta.Difficulty = v
			case "BeatmapID":
				meta.BeatmapID = orInt(parseInt(v), 0)
			case "BeatmapSetID":
				meta.BeatmapSetID = orInt(parseInt(v), 0)
			}

		case "Difficulty":
			k, v, ok := splitKeyValue(line)
			if !ok {
				continue
			}
			switch k {
			case "CircleSize":
				keys = parseInt(v)
			case "OverallDifficulty":
				meta.OD = parseFloat(v)
			case "ApproachRate":
				meta.AR = parseFloat(v)
			case "HPDrainRate":
				meta.HP = parseFloat(v)
			}

		case "Events":
			// 0,0,"bg.jpg",0,0 names the background image
			parts := strings.Split(line, ",")
			if len(parts) >= 3 && (parts[0] == "0" || parts[0] == "Background") && meta.BackgroundFilename == "" {
				meta.BackgroundFilename = strings.Trim(strings.TrimSpace(parts[2]), `"`)
			}

		case "TimingPoints":
			parts := strings.Split(line, ",")
			if len(parts) < 2 {
				continue
			}
			tp := game.TimingPoint{
				Time:        parseFloat(parts[0]),
				BeatLength:  parseFloat(parts[1]),
				Meter:       4,
				SampleSet:   1,
				SampleIndex: 0,
				Volume:      100,
				Uninherited: true,
				Effects:     0,
			}
			if len(parts) > 2 && parts[2] != "" {
				tp.Meter = orInt(parseInt(parts[2]), tp.Meter)
			}
			if len(parts) > 3 && parts[3] != "" {
				tp.SampleSet = orInt(parseInt(parts[3]), tp.SampleSet)
			}
			if len(parts) > 4 && parts[4] != "" {
				tp.SampleIndex = orInt(parseInt(parts[4]), tp.SampleIndex)
			}
			if len(parts) > 5 && parts[5] != "" {
				tp.Volume = orInt(parseInt(parts[5]), tp.Volume)
			}
			if len(parts) > 6 && parts[6] != "" {
				tp.Uninherited = parseInt(parts[6]) == 1
			}
			if len(parts) > 7 && parts[7] != "" {
				tp.Effects = orInt(parseInt(parts[7]), tp.Effects)
			}
			chart.TimingPoints = append(chart.TimingPoints, tp)

		case "HitObjects":
			parts := strings.Split(line, ",")
			if len(parts) < 4 {
				continue
			}
			note, ok := parseHitObject(parts, laneCount(keys))
			if !ok {
				dropped++
				continue
			}
			chart.Notes = append(chart.Notes, note)
		}
	}
	if err := sc.Err(); nil != err {
		return nil, err
	}

	meta.Keys = laneCount(keys)
	meta.Mode = truthy(mode, game.DefaultMode)
	if bpm, ok := game.BPM(chart.TimingPoints); ok {
		meta.BPM = bpm
	}

	sort.SliceStable(chart.Notes, func(i, j int) bool {
		return chart.Notes[i].Time < chart.Notes[j].Time
	})

	p.log().Debug("parsed chart",
		zap.String("title", meta.Title),
		zap.String("difficulty", meta.Difficulty),
		zap.Int("beatmapId", meta.BeatmapID),
		zap.Int("beatmapSetId", meta.BeatmapSetID),
		zap.Int("notes", len(chart.Notes)),
		zap.Int("dropped", dropped),
	)

	return chart, nil
}

// laneCount falls back to the default for counts no keyboard could play
func laneCount(keys float64) int {
	if keys > game.MaxKeys {
		return game.DefaultKeys
	}
	k := truthy(keys, game.DefaultKeys)
	if k < 0 {
		return game.DefaultKeys
	}
	return k
}

// parseHitObject reads x,y,time,type,hitSound,[endTime:extras]. Objects
// without a numeric position or time are not playable and are dropped.
func parseHitObject(parts []string, keys int) (game.Note, bool) {
	x := parseInt(parts[0])
	t := parseInt(parts[2])
	if math.IsNaN(x) || math.IsNaN(t) || math.IsInf(x, 0) || math.IsInf(t, 0) {
		return game.Note{}, false
	}
	kind := orInt(parseInt(parts[3]), 0)

	note := game.Note{
		Time:    int(t),
		EndTime: int(t),
		Lane:    game.LaneFromX(int(x), keys),
		Kind:    game.Tap,
	}
	if kind&holdFlag == 0 {
		return note, true
	}

	note.Kind = game.Hold
	note.EndTime = note.Time + 100
	if len(parts) > 5 && parts[5] != "" {
		end := parseInt(strings.SplitN(parts[5], ":", 2)[0])
		note.EndTime = orInt(end, note.EndTime)
	}
	if note.EndTime < note.Time {
		note.EndTime = note.Time
	}
	return note, true
}
