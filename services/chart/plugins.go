package chartsvc

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var ErrUnknownPlugin = errors.New("unknown chart plugin")

type (
	// Layout tells plugins where the chart put its elements.
	Layout struct {
		Plot image.Rectangle
		// Anchors has one point per value: the top of a bar, or a legend row.
		Anchors []image.Point
	}

	// Plugin draws on top of a rendered chart.
	Plugin interface {
		Name() string
		AfterDraw(inst *Instance, dst draw.Image, layout Layout)
	}

	// PluginRegistry maps the symbolic names used by chart configs to plugins.
	PluginRegistry struct {
		mu      sync.RWMutex
		plugins map[string]Plugin
	}

	dataLabels struct{}
)

func NewPluginRegistry(plugins ...Plugin) *PluginRegistry {
	r := &PluginRegistry{plugins: make(map[string]Plugin)}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// DefaultPlugins registers the value labels plugin under "ChartDataLabels".
func DefaultPlugins() *PluginRegistry {
	return NewPluginRegistry(DataLabels())
}

func (r *PluginRegistry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Name()] = p
}

func (r *PluginRegistry) Lookup(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownPlugin, name)
	}
	return p, nil
}

func (r *PluginRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for n := range r.plugins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DataLabels writes each raw value next to its element.
func DataLabels() Plugin {
	return dataLabels{}
}

func (dataLabels) Name() string { return DataLabelsPlugin }

func (dataLabels) AfterDraw(inst *Instance, dst draw.Image, layout Layout) {
	col := parseHex(inst.Options.DataLabels.Color)
	for i, pt := range layout.Anchors {
		if i >= len(inst.Values) {
			return
		}
		text := FormatValue(inst.Values[i])
		switch inst.Type {
		case Bar:
			// on top of the bar
			drawText(dst, text, pt.X, pt.Y-6, col, true)
		default:
			// after the legend entry; the legend background is light so white labels would vanish
			drawText(dst, text, pt.X, pt.Y, color.Black, false)
		}
	}
}

// parseHex reads `#rgb` and `#rrggbb` colors; anything else is black.
func parseHex(s string) color.Color {
	hex := func(b byte) uint8 {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		}
		return 0
	}
	switch {
	case len(s) == 4 && s[0] == '#':
		return color.RGBA{R: hex(s[1]) * 17, G: hex(s[2]) * 17, B: hex(s[3]) * 17, A: 255}
	case len(s) == 7 && s[0] == '#':
		return color.RGBA{
			R: hex(s[1])<<4 | hex(s[2]),
			G: hex(s[3])<<4 | hex(s[4]),
			B: hex(s[5])<<4 | hex(s[6]),
			A: 255,
		}
	}
	return color.Black
}
