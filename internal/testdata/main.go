package testdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/samber/lo"

	"git.lost.host/meutraa/ryth/internal/game"
)

// GetChart returns a small 4 key chart mixing taps and holds
func GetChart() (*game.Chart, error) {
	var chart game.Chart
	if err := json.Unmarshal([]byte(data), &chart); nil != err {
		return nil, err
	}
	return &chart, nil
}

// Definition is a chart text builder with sensible defaults
type Definition struct {
	Title      string
	Artist     string
	Mapper     string
	Version    string
	Audio      string
	Background string
	Keys       int
	HitObjects []string
}

func (d Definition) String() string {
	var b strings.Builder
	b.WriteString("osu file format v14\n\n[General]\n")
	if d.Audio != "" {
		fmt.Fprintf(&b, "AudioFilename: %s\n", d.Audio)
	}
	b.WriteString("AudioLeadIn: 0\nMode: 3\n\n[Metadata]\n")
	fmt.Fprintf(&b, "Title:%s\nArtist:%s\nCreator:%s\nVersion:%s\n", d.Title, d.Artist, d.Mapper, d.Version)
	b.WriteString("BeatmapID:1\nBeatmapSetID:2\n\n[Difficulty]\n")
	keys := d.Keys
	if keys == 0 {
		keys = 4
	}
	fmt.Fprintf(&b, "HPDrainRate:8\nCircleSize:%d\nOverallDifficulty:8\nApproachRate:5\n\n", keys)
	if d.Background != "" {
		fmt.Fprintf(&b, "[Events]\n//Background and Video events\n0,0,\"%s\",0,0\n\n", d.Background)
	}
	b.WriteString("[TimingPoints]\n0,500,4,1,0,100,1,0\n\n[HitObjects]\n")
	for _, h := range d.HitObjects {
		b.WriteString(h)
		b.WriteString("\n")
	}
	return b.String()
}

func (d Definition) Bytes() []byte {
	return []byte(d.String())
}

// Archive zips the given entries in name order
func Archive(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	names := lo.Keys(files)
	sort.Strings(names)
	for _, name := range names {
		f, err := w.Create(name)
		if nil != err {
			return nil, err
		}
		if _, err := f.Write(files[name]); nil != err {
			return nil, err
		}
	}
	if err := w.Close(); nil != err {
		return nil, err
	}
	return buf.Bytes(), nil
}

const data = `{
	"Metadata": {
		"Title": "Sample",
		"Artist": "Nobody",
		"Mapper": "meutraa",
		"Difficulty": "Normal",
		"Keys": 4,
		"Mode": 3,
		"BPM": 120
	},
	"Notes": [
		{"Time": 1000, "EndTime": 1000, "Lane": 0, "Kind": 0},
		{"Time": 1500, "EndTime": 1500, "Lane": 1, "Kind": 0},
		{"Time": 2000, "EndTime": 3000, "Lane": 2, "Kind": 1},
		{"Time": 2500, "EndTime": 2500, "Lane": 3, "Kind": 0},
		{"Time": 3500, "EndTime": 4000, "Lane": 0, "Kind": 1},
		{"Time": 4500, "EndTime": 4500, "Lane": 1, "Kind": 0}
	]
}`
