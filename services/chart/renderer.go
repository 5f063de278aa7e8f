package chartsvc

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/school"
)

const (
	NoScoresText      = "You don't have any scores to show!"
	NoScoresShortText = "No scores to show!"
)

var (
	// AnalyticsPlaceholder is drawn on empty analytics canvases.
	AnalyticsPlaceholder = Placeholder{Text: NoScoresText, Color: color.RGBA{R: 0xbe, G: 0x18, B: 0x5d, A: 0xff}}
	// DashboardPlaceholder is drawn on the dashboard's empty category chart.
	DashboardPlaceholder = Placeholder{Text: NoScoresShortText, Color: color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}}
)

type (
	Placeholder struct {
		Text  string
		Color color.Color
	}

	Scale struct {
		BeginAtZero bool
		Title       string
	}

	Options struct {
		Responsive     bool
		LegendDisplay  bool
		LegendPosition string
		Title          string
		TitleFontSize  int
		DataLabels     struct {
			Color    string
			FontSize int
			Bold     bool
		}
		// R is the radial scale of polar charts, X and Y the cartesian ones of bar charts.
		R, X, Y *Scale
	}

	// Instance is one live chart bound to a canvas.
	Instance struct {
		ID               string
		Type             string
		Title            string
		Label            string
		Labels           []string
		Values           []float64
		BackgroundColors []Color
		BorderColors     []Color
		BorderWidth      int
		Options          Options
		Plugins          []Plugin

		mu        sync.Mutex
		destroyed bool
	}

	// Renderer turns score payloads into charts, keeping at most one live chart per canvas.
	Renderer struct {
		mu          sync.Mutex
		board       *Board
		plugins     *PluginRegistry
		logger      core.Logger
		placeholder Placeholder
		charts      map[string]*Instance
	}
)

// ChartOptions returns the type specific options of a chart.
func ChartOptions(typ, title string) Options {
	opts := Options{Responsive: true, Title: title, TitleFontSize: 18}
	switch typ {
	case PolarArea:
		opts.LegendDisplay = true
		opts.LegendPosition = "right"
		opts.DataLabels.Color = "#fff"
		opts.DataLabels.FontSize = 14
		opts.DataLabels.Bold = true
		opts.R = &Scale{BeginAtZero: true}
	case Bar:
		opts.DataLabels.Color = "#000"
		opts.DataLabels.FontSize = 14
		opts.DataLabels.Bold = true
		opts.Y = &Scale{BeginAtZero: true, Title: "Score"}
		opts.X = &Scale{Title: "Criteria"}
	default:
		opts.Title = ""
		opts.TitleFontSize = 0
	}
	return opts
}

// Destroy releases the chart; a destroyed chart is never drawn again.
func (inst *Instance) Destroy() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.destroyed = true
}

func (inst *Instance) Destroyed() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.destroyed
}

func NewRenderer(board *Board, plugins *PluginRegistry, logger core.Logger, ph Placeholder) *Renderer {
	if plugins == nil {
		plugins = DefaultPlugins()
	}
	return &Renderer{
		board:       board,
		plugins:     plugins,
		logger:      logger,
		placeholder: ph,
		charts:      make(map[string]*Instance),
	}
}

func (r *Renderer) Board() *Board {
	return r.board
}

// Render draws cfg from payload. An empty series leaves a placeholder and no chart (nil, nil).
func (r *Renderer) Render(cfg Config, payload school.ScorePayload) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroy(cfg.ID)

	series := Resolve(payload, cfg.DataPath)
	if len(series) == 0 {
		r.clear(cfg.ID)
		return nil, nil
	}

	canvas := r.board.Canvas(cfg.ID)
	if canvas == nil {
		r.logger.Debug("no canvas for chart " + cfg.ID)
		return nil, nil
	}

	inst := r.newInstance(cfg, series)
	if err := r.draw(inst, canvas); err != nil {
		// the instance stays registered, the canvas shows whatever could be drawn
		r.logger.Error("drawing chart "+cfg.ID, err)
	}
	r.charts[cfg.ID] = inst
	return inst, nil
}

// RenderAll renders every config in order.
func (r *Renderer) RenderAll(cfgs []Config, payload school.ScorePayload) {
	for _, cfg := range cfgs {
		if _, err := r.Render(cfg, payload); err != nil {
			r.logger.Error("rendering chart "+cfg.ID, err)
		}
	}
}

// Clear destroys the chart id, if any, and leaves the placeholder on its canvas.
func (r *Renderer) Clear(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroy(id)
	r.clear(id)
}

// ClearAll puts the placeholder on every canvas that holds a chart and forgets them all.
func (r *Renderer) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.charts {
		r.destroy(id)
		r.clear(id)
	}
	r.charts = make(map[string]*Instance)
}

func (r *Renderer) Instance(id string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.charts[id]
}

// Len counts the live charts.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.charts)
}

func (r *Renderer) destroy(id string) {
	if inst, ok := r.charts[id]; ok {
		inst.Destroy()
		delete(r.charts, id)
	}
}

func (r *Renderer) clear(id string) {
	if canvas := r.board.Canvas(id); canvas != nil {
		canvas.FillText(r.placeholder.Text, r.placeholder.Color)
	}
}

func (r *Renderer) newInstance(cfg Config, series school.Series) *Instance {
	labels := series.Labels()
	values := series.Values()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			r.logger.Warn("non numeric score rendered as 0", map[string]interface{}{"chart": cfg.ID, "label": labels[i]})
			values[i] = 0
		}
	}

	inst := &Instance{
		ID:               cfg.ID,
		Type:             cfg.Type,
		Title:            cfg.Title,
		Label:            cfg.Label,
		Labels:           labels,
		Values:           values,
		BackgroundColors: Colors(len(labels), cfg.BackgroundOpacity, cfg.Palette),
		BorderColors:     Colors(len(labels), cfg.BorderOpacity, cfg.Palette),
		BorderWidth:      1,
		Options:          ChartOptions(cfg.Type, cfg.Title),
	}
	for _, name := range cfg.Plugins {
		p, err := r.plugins.Lookup(name)
		if err != nil {
			r.logger.Error("skipping chart plugin", err)
			continue
		}
		inst.Plugins = append(inst.Plugins, p)
	}
	return inst
}

func (r *Renderer) draw(inst *Instance, canvas *Canvas) error {
	var (
		img    image.Image
		layout Layout
		err    error
	)
	switch inst.Type {
	case Bar:
		img, layout, err = drawBar(inst, canvas.Width, canvas.Height)
	default:
		img, layout, err = drawPolar(inst, canvas.Width, canvas.Height)
	}
	if err != nil {
		canvas.Clear()
		return err
	}

	canvas.Draw(img)
	canvas.Paint(func(dst draw.Image) {
		if inst.Options.LegendDisplay && inst.Options.LegendPosition == "right" {
			drawLegend(inst, dst, layout)
		}
		for _, p := range inst.Plugins {
			p.AfterDraw(inst, dst, layout)
		}
	})
	return nil
}

func chartColor(c Color) drawing.Color {
	n := c.NRGBA()
	return drawing.Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

func drawBar(inst *Instance, width, height int) (image.Image, Layout, error) {
	maxVal := 0.0
	for _, v := range inst.Values {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}
	maxVal *= 1.1 // headroom for the value labels

	bars := make([]chart.Value, 0, len(inst.Values))
	for i, v := range inst.Values {
		bars = append(bars, chart.Value{
			Label: inst.Labels[i],
			Value: v,
			Style: chart.Style{
				FillColor:   chartColor(inst.BackgroundColors[i]),
				StrokeColor: chartColor(inst.BorderColors[i]),
				StrokeWidth: float64(inst.BorderWidth),
			},
		})
	}

	pad := chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}
	n := len(bars)
	barWidth := (width - pad.Left - pad.Right - 60) / (2 * n)
	if barWidth < 4 {
		barWidth = 4
	}
	bc := chart.BarChart{
		Title:      inst.Options.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: pad},
		YAxis: chart.YAxis{
			Name:  inst.Options.Y.Title,
			Range: &chart.ContinuousRange{Min: 0, Max: maxVal},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, Layout{}, errors.Wrap(err, "rendering bar chart")
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, Layout{}, errors.Wrap(err, "decoding bar chart")
	}

	// value anchors: bars are spread evenly over the plot
	plot := image.Rect(pad.Left+60, pad.Top, width-pad.Right, height-pad.Bottom-20)
	layout := Layout{Plot: plot}
	slot := float64(plot.Dx()) / float64(n)
	for i, v := range inst.Values {
		x := plot.Min.X + int(slot*(float64(i)+0.5))
		y := plot.Max.Y - int(v/maxVal*float64(plot.Dy()))
		layout.Anchors = append(layout.Anchors, image.Pt(x, y))
	}
	return img, layout, nil
}

// polarRings is the number of rings the radial scale aims for.
const polarRings = 4

var (
	ringColor  = drawing.Color{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	ticksColor = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
)

// radial maps values onto [0, 1] of the polar radius.
type radial struct {
	min, max, step float64
}

// radialScale fits a nice stepped scale over values. Without BeginAtZero it starts at the smallest value.
func radialScale(s *Scale, values []float64) radial {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if s == nil || s.BeginAtZero || math.IsInf(lo, 0) {
		lo, hi = 0, math.Max(hi, 0)
	}
	if hi <= lo {
		hi = lo + 1
	}

	raw := (hi - lo) / polarRings
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := 10 * mag
	for _, m := range []float64{1, 2, 5} {
		if raw <= m*mag {
			step = m * mag
			break
		}
	}
	return radial{min: lo, max: lo + math.Ceil((hi-lo)/step)*step, step: step}
}

func (s radial) fraction(v float64) float64 {
	return math.Max(0, math.Min(1, (v-s.min)/(s.max-s.min)))
}

func (s radial) ticks() []float64 {
	n := int(math.Round((s.max - s.min) / s.step))
	ticks := make([]float64, 0, n)
	for k := 1; k <= n; k++ {
		ticks = append(ticks, s.min+float64(k)*s.step)
	}
	return ticks
}

// drawPolar gives every value an equal sector whose radius carries the value.
func drawPolar(inst *Instance, width, height int) (image.Image, Layout, error) {
	plotW := width
	if inst.Options.LegendPosition == "right" {
		plotW = width * 7 / 10
	}
	top := 0
	if inst.Options.Title != "" {
		top = 24
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, Layout{}, errors.Wrap(err, "rendering polar area chart")
	}

	plot := image.Rect(0, top, plotW, height)
	cx, cy := float64(plot.Min.X+plot.Dx()/2), float64(plot.Min.Y+plot.Dy()/2)
	radius := math.Max(1, float64(min(plot.Dx(), plot.Dy()))/2-8)
	scale := radialScale(inst.Options.R, inst.Values)

	step := 2 * math.Pi / float64(len(inst.Values))
	for i, v := range inst.Values {
		r := scale.fraction(v) * radius
		if r == 0 {
			continue
		}
		start := -math.Pi/2 + float64(i)*step
		gc.SetFillColor(chartColor(inst.BackgroundColors[i]))
		gc.SetStrokeColor(chartColor(inst.BorderColors[i]))
		gc.SetLineWidth(float64(inst.BorderWidth))
		gc.MoveTo(cx, cy)
		gc.ArcTo(cx, cy, r, r, start, step)
		gc.Close()
		gc.FillStroke()
	}

	// the radial scale goes on top so the rings show through the sectors
	gc.SetStrokeColor(ringColor)
	gc.SetLineWidth(1)
	ticks := scale.ticks()
	for _, tick := range ticks {
		r := scale.fraction(tick) * radius
		gc.MoveTo(cx+r, cy)
		gc.ArcTo(cx, cy, r, r, 0, 2*math.Pi)
		gc.Close()
		gc.Stroke()
	}
	for _, tick := range ticks {
		r := scale.fraction(tick) * radius
		drawText(img, strconv.FormatFloat(tick, 'g', 6, 64), int(cx)+3, int(cy-r)+11, ticksColor, false)
	}
	if inst.Options.Title != "" {
		drawText(img, inst.Options.Title, plotW/2, top/2, color.Black, true)
	}

	layout := Layout{Plot: plot}
	y := height/2 - len(inst.Values)*9
	for _, label := range inst.Labels {
		x := plotW + 26 + textWidth(label+": ")
		layout.Anchors = append(layout.Anchors, image.Pt(x, y))
		y += 18
	}
	return img, layout, nil
}

// drawLegend lists a color swatch and the label of each value at the legend anchors.
func drawLegend(inst *Instance, dst draw.Image, layout Layout) {
	for i, pt := range layout.Anchors {
		label := inst.Labels[i] + ": "
		x := pt.X - textWidth(label)
		swatch := image.Rect(x-16, pt.Y-10, x-4, pt.Y+2)
		draw.Draw(dst, swatch, image.NewUniform(inst.BackgroundColors[i].NRGBA()), image.Point{}, draw.Over)
		drawText(dst, label, x, pt.Y, color.Black, false)
	}
}

// FormatValue prints a score the way it came in: integers without decimals.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
