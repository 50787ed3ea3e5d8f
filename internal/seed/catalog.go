package seed

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"media-gallery/internal/domain/gallery"
)

// TagPool is the genre catalogue inserted by every seed run
var TagPool = []string{
	"rock", "pop", "hip-hop", "jazz", "blues",
	"classical", "electronic", "edm", "house", "techno",
	"trap", "rnb", "country", "reggae", "punk",
	"metal", "indie", "lofi", "k-pop", "latin",
}

// Size is a placeholder resolution
type Size struct {
	Width  int
	Height int
}

// Sizes cycle through the seeded images by index
var Sizes = []Size{
	{400, 300},
	{600, 400},
	{300, 400},
	{500, 500},
	{800, 600},
	{400, 600},
	{700, 400},
	{350, 350},
	{600, 300},
	{450, 600},
}

// Palette is a background/text colour pair as 6 digit hex without '#'
type Palette struct {
	Background string
	Foreground string
}

// Colors cycle through the seeded images by index
var Colors = []Palette{
	{"FEF5ED", "99A799"},
	{"D3E4CD", "3b4a40"},
	{"ADC2A9", "FEF5ED"},
	{"99A799", "FEF5ED"},
	{"3b4a40", "D3E4CD"},
	{"f0e6d3", "7a8f7e"},
	{"e8d5c0", "6b7c72"},
	{"c5d8bf", "3b4a40"},
	{"8aaa8b", "FEF5ED"},
	{"6b7c72", "D3E4CD"},
	{"dce8d8", "4a5e4f"},
	{"b5c9b1", "FEF5ED"},
	{"f5ebe0", "99A799"},
	{"4a5e4f", "ADC2A9"},
	{"e3d5ca", "6b7c72"},
}

// DefaultImageCount is the number of images a seed run creates
const DefaultImageCount = 60

const placeholderHost = "https://placehold.co"

// Placeholder describes one generated gallery image before it is stored
type Placeholder struct {
	Size
	Palette
	// Genre is the main tag; its upper-cased form is the label
	Genre string
	// Tags starts with Genre followed by the distinct extras
	Tags []string
}

// Label is the text rendered on the placeholder
func (p Placeholder) Label() string {
	return strings.ToUpper(p.Genre)
}

// URL returns the placehold.co address that renders this placeholder
func (p Placeholder) URL() string {
	return fmt.Sprintf("%s/%dx%d/%s/%s?text=%s",
		placeholderHost, p.Width, p.Height, p.Background, p.Foreground, url.QueryEscape(p.Label()))
}

// Image converts the placeholder to a gallery image served from imageURL
func (p Placeholder) Image(imageURL string, createdAt time.Time) *gallery.Image {
	tags := make([]gallery.Tag, len(p.Tags))
	for i, name := range p.Tags {
		tags[i] = gallery.Tag{Name: name}
	}
	return &gallery.Image{
		URL:       imageURL,
		Width:     p.Width,
		Height:    p.Height,
		CreatedAt: createdAt,
		Tags:      tags,
	}
}

// Generate builds count placeholders. Image i takes Sizes[i%len] and
// Colors[i%len], a random main genre and one to three distinct extra genres.
func Generate(rng *rand.Rand, count int) []Placeholder {
	placeholders := make([]Placeholder, count)
	for i := range placeholders {
		genre := TagPool[rng.Intn(len(TagPool))]

		tags := []string{genre}
		extras := rng.Intn(3) + 1
		for _, idx := range rng.Perm(len(TagPool)) {
			if len(tags) == extras+1 {
				break
			}
			if TagPool[idx] == genre {
				continue
			}
			tags = append(tags, TagPool[idx])
		}

		placeholders[i] = Placeholder{
			Size:    Sizes[i%len(Sizes)],
			Palette: Colors[i%len(Colors)],
			Genre:   genre,
			Tags:    tags,
		}
	}
	return placeholders
}

// CreatedAt spaces creation times one second apart so that the last
// generated image is the newest and sits at now
func CreatedAt(now time.Time, index, count int) time.Time {
	return now.Add(-time.Duration(count-1-index) * time.Second)
}
