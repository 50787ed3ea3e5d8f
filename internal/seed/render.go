package seed

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelWidthRatio is the share of the image width the label may cover
const labelWidthRatio = 0.6

// ParseHexColor parses a 6 digit RGB hex string, with or without '#'
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Render draws the placeholder: a solid background with the label centred
// in the foreground colour
func Render(p Placeholder) (image.Image, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("invalid placeholder size %dx%d", p.Width, p.Height)
	}

	bg, err := ParseHexColor(p.Background)
	if err != nil {
		return nil, err
	}
	fg, err := ParseHexColor(p.Foreground)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	label := p.Label()
	if label == "" {
		return dst, nil
	}

	// The bitmap face is tiny, so draw the label once at native size and
	// scale it up by an integer factor to keep the glyph edges crisp.
	face := basicfont.Face7x13
	textW := font.MeasureString(face, label).Ceil()
	textH := face.Height
	text := image.NewRGBA(image.Rect(0, 0, textW, textH))
	d := &font.Drawer{
		Dst:  text,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(label)

	scale := max(1, int(float64(p.Width)*labelWidthRatio)/textW)
	scale = min(scale, max(1, p.Height/textH))

	w, h := textW*scale, textH*scale
	x0 := (p.Width - w) / 2
	y0 := (p.Height - h) / 2
	draw.NearestNeighbor.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), text, text.Bounds(), draw.Over, nil)

	return dst, nil
}

// RenderPNG renders the placeholder and encodes it as PNG
func RenderPNG(p Placeholder) ([]byte, error) {
	img, err := Render(p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
