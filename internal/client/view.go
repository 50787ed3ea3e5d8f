package client

import (
	"context"
	"slices"

	"media-gallery/internal/domain/gallery"
)

// Chip is one entry of the tag filter bar
type Chip struct {
	Name   string
	Label  string
	Active bool
}

// TagChips returns the "All" chip followed by one chip per tag. "All" is
// active when no tag is selected.
func TagChips(tags []gallery.Tag, active []string) []Chip {
	chips := make([]Chip, 0, len(tags)+1)
	chips = append(chips, Chip{Name: gallery.AllTags, Label: "All", Active: len(active) == 0})
	for _, tag := range tags {
		chips = append(chips, Chip{
			Name:   tag.Name,
			Label:  tag.Name,
			Active: slices.Contains(active, tag.Name),
		})
	}
	return chips
}

// DefaultLookahead is how close, in pixels, the sentinel must get to the
// viewport before the next page is requested
const DefaultLookahead = 200

// Sentinel triggers infinite scrolling
type Sentinel struct {
	gallery   *Gallery
	lookahead int
}

// NewSentinel creates a trigger for g with DefaultLookahead
func NewSentinel(g *Gallery) *Sentinel {
	return &Sentinel{gallery: g, lookahead: DefaultLookahead}
}

// Observe reports the distance between the sentinel and the bottom of the
// viewport (zero or negative when visible). It loads the next page when the
// sentinel is within the lookahead and the gallery can load more, and
// reports whether a load was started.
func (s *Sentinel) Observe(ctx context.Context, distance int) (bool, error) {
	if distance > s.lookahead {
		return false, nil
	}

	state := s.gallery.Snapshot()
	if !state.HasMore || state.Loading {
		return false, nil
	}
	return true, s.gallery.LoadMore(ctx)
}

// NavbarThreshold is the scroll offset below which the navbar always shows
const NavbarThreshold = 50

// Navbar tracks whether the top bar is shown while scrolling
type Navbar struct {
	hidden bool
	lastY  int
}

// Update records a new scroll offset and reports whether the navbar is visible.
// Scrolling down past the threshold hides it; scrolling up or returning near
// the top shows it.
func (n *Navbar) Update(scrollY int) bool {
	switch {
	case scrollY < n.lastY || scrollY < NavbarThreshold:
		n.hidden = false
	case scrollY > n.lastY && scrollY > NavbarThreshold:
		n.hidden = true
	}
	n.lastY = scrollY
	return !n.hidden
}

// Visible reports the current navbar visibility
func (n *Navbar) Visible() bool {
	return !n.hidden
}
