package game

import "github.com/samber/lo"

// Media is a decoded archive entry. One instance is shared by every chart
// extracted from the same archive.
type Media struct {
	Filename string
	MimeType string
	Data     []byte
}

type Chart struct {
	Metadata     Metadata
	Notes        []Note // Time ordered
	TimingPoints []TimingPoint

	Audio *Media
	Image *Media
}

func (c *Chart) Identity() Identity {
	return c.Metadata.Identity()
}

func (c *Chart) Keys() int {
	if c.Metadata.Keys <= 0 || c.Metadata.Keys > MaxKeys {
		return DefaultKeys
	}
	return c.Metadata.Keys
}

// LastTime is the latest tap time or hold end time, in ms.
func (c *Chart) LastTime() int {
	last := 0
	for _, n := range c.Notes {
		if n.EndTime > last {
			last = n.EndTime
		}
	}
	return last
}

func (c *Chart) Count(kind Kind) int {
	return lo.CountBy(c.Notes, func(n Note) bool {
		return n.Kind == kind
	})
}
