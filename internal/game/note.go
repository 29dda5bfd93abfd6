package game

type Kind uint8

const (
	Tap Kind = iota
	Hold
)

func (k Kind) String() string {
	if k == Hold {
		return "hold"
	}
	return "tap"
}

type Note struct {
	Time    int  // The time the note should be hit, in ms
	EndTime int  // The time a hold should be released, equal to Time for taps
	Lane    int  // The chart column
	Kind    Kind // Tap or Hold
}

func (n *Note) IsHold() bool {
	return n.Kind == Hold
}

// Duration of a hold in ms, 0 for taps
func (n *Note) Duration() int {
	return n.EndTime - n.Time
}

// LaneFromX maps the 0..512 playfield coordinate onto a lane. Positions
// off the playfield land in the nearest edge lane.
func LaneFromX(x int, keys int) int {
	if x < 0 || keys <= 0 {
		return 0
	}
	if x >= 512 {
		return keys - 1
	}
	lane := int(float64(x) * float64(keys) / 512)
	return min(max(lane, 0), keys-1)
}
