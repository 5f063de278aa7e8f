package chartsvc

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type (
	// Canvas is a raster surface charts and placeholders are drawn on.
	Canvas struct {
		ID     string
		Width  int
		Height int

		mu          sync.Mutex
		img         *image.RGBA
		placeholder string
	}

	// Board holds the canvases of a page, by id.
	Board struct {
		mu       sync.Mutex
		width    int
		height   int
		canvases map[string]*Canvas
	}
)

func NewCanvas(id string, width, height int) *Canvas {
	c := &Canvas{ID: id, Width: width, Height: height}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.fill(color.White)
	return c
}

func (c *Canvas) fill(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// Clear wipes the canvas.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fill(color.White)
	c.placeholder = ""
}

// FillText wipes the canvas and writes text at its center.
func (c *Canvas) FillText(text string, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fill(color.White)
	drawText(c.img, text, c.Width/2, c.Height/2, col, true)
	c.placeholder = text
}

// Placeholder is the text written by FillText, blank once a chart was drawn.
func (c *Canvas) Placeholder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placeholder
}

// Draw replaces the canvas content with img, clipped to the canvas bounds.
func (c *Canvas) Draw(img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fill(color.White)
	draw.Draw(c.img, c.img.Bounds(), img, img.Bounds().Min, draw.Over)
	c.placeholder = ""
}

// Paint runs fn against the canvas surface.
func (c *Canvas) Paint(fn func(dst draw.Image)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.img)
}

// Image returns a copy of the surface.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

func (c *Canvas) WritePNG(w io.Writer) error {
	return errors.Wrapf(png.Encode(w, c.Image()), "encoding canvas %s", c.ID)
}

func NewBoard(width, height int, ids ...string) *Board {
	b := &Board{width: width, height: height, canvases: make(map[string]*Canvas)}
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// Add creates the canvas id unless it exists.
func (b *Board) Add(id string) *Canvas {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.canvases[id]; ok {
		return c
	}
	c := NewCanvas(id, b.width, b.height)
	b.canvases[id] = c
	return c
}

// Canvas returns the canvas id, nil when the page has none.
func (b *Board) Canvas(id string) *Canvas {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canvases[id]
}

func (b *Board) IDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.canvases))
	for id := range b.canvases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// drawText writes text with its baseline at y; centered texts are centered on (x, y).
func drawText(dst draw.Image, text string, x, y int, col color.Color, center bool) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	if center {
		x -= d.MeasureString(text).Ceil() / 2
		m := face.Metrics()
		y += (m.Ascent.Ceil() - m.Descent.Ceil()) / 2
	}
	d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d.DrawString(text)
}

func textWidth(text string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(text).Ceil()
}
