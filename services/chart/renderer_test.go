package chartsvc

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoomanxj/eztutor/core/school"
	"github.com/Hoomanxj/eztutor/tests"
)

func payload(t *testing.T, raw string) school.ScorePayload {
	var p school.ScorePayload
	require.NoError(t, jsoniter.UnmarshalFromString(raw, &p))
	return p
}

func setup(t *testing.T, ph Placeholder, plugins ...Plugin) *Renderer {
	board := NewBoard(400, 200, IDs(AnalyticsConfigs()...)...)
	reg := DefaultPlugins()
	for _, p := range plugins {
		reg.Register(p)
	}
	return NewRenderer(board, reg, testutil.NewLogger(t), ph)
}

type spyPlugin struct {
	calls   int
	anchors int
}

func (p *spyPlugin) Name() string { return "spy" }

func (p *spyPlugin) AfterDraw(inst *Instance, dst draw.Image, layout Layout) {
	p.calls++
	p.anchors = len(layout.Anchors)
}

func TestColors(t *testing.T) {
	colors := Colors(12, 0.6, TenColors)
	require.Len(t, colors, 12)
	assert.Equal(t, "rgba(54, 162, 235, 0.6)", colors[0].String())
	assert.Equal(t, "rgba(255, 206, 86, 0.6)", colors[1].String())
	assert.Equal(t, colors[0], colors[10], "palette cycles")
	assert.Equal(t, colors[1], colors[11])

	assert.Equal(t, "rgba(255, 99, 132, 1)", Colors(4, 1, FourColors)[3].String())
	assert.Nil(t, Colors(3, 1, nil))
	assert.Equal(t, color.NRGBA{R: 54, G: 162, B: 235, A: 153}, colors[0].NRGBA())
}

func TestResolve(t *testing.T) {
	p := payload(t, `{"cat_scores":{"Grammar":80},"tag_scores":{"speaking":{"Fluency":5}}}`)

	assert.Equal(t, school.Series{{Label: "Grammar", Value: 80}}, Resolve(p, school.CategoryScoresKey))
	assert.Equal(t, school.Series{{Label: "Fluency", Value: 5}}, Resolve(p, "speaking"))
	assert.Empty(t, Resolve(p, "writing"))
	assert.Empty(t, Resolve(school.ScorePayload{}, school.CategoryScoresKey))
}

func TestChartOptions(t *testing.T) {
	polar := ChartOptions(PolarArea, "Category Scores")
	assert.True(t, polar.LegendDisplay)
	assert.Equal(t, "right", polar.LegendPosition)
	require.NotNil(t, polar.R)
	assert.True(t, polar.R.BeginAtZero)
	assert.Nil(t, polar.Y)

	bar := ChartOptions(Bar, "Speaking Scores")
	assert.False(t, bar.LegendDisplay)
	require.NotNil(t, bar.Y)
	assert.True(t, bar.Y.BeginAtZero)
	assert.Equal(t, "Score", bar.Y.Title)
	assert.Equal(t, "Criteria", bar.X.Title)
	assert.Equal(t, "#000", bar.DataLabels.Color)

	other := ChartOptions("line", "x")
	assert.True(t, other.Responsive)
	assert.Empty(t, other.Title)
}

func TestRenderer_Render(t *testing.T) {
	r := setup(t, AnalyticsPlaceholder)
	p := payload(t, `{"cat_scores":{"Grammar":80,"Vocab":60}}`)

	inst, err := r.Render(AnalyticsConfigs()[0], p)
	require.NoError(t, err)
	require.NotNil(t, inst)

	assert.Equal(t, []string{"Grammar", "Vocab"}, inst.Labels)
	assert.Equal(t, []float64{80, 60}, inst.Values)
	assert.Equal(t, []Color{{TenColors[0], 0.6}, {TenColors[1], 0.6}}, inst.BackgroundColors)
	assert.Equal(t, []Color{{TenColors[0], 1}, {TenColors[1], 1}}, inst.BorderColors)
	assert.Equal(t, "Average Score", inst.Label)
	require.Len(t, inst.Plugins, 1)
	assert.Equal(t, DataLabelsPlugin, inst.Plugins[0].Name())

	assert.Same(t, inst, r.Instance(CategoryChart))
	assert.Equal(t, 1, r.Len())
	assert.Empty(t, r.Board().Canvas(CategoryChart).Placeholder())
}

func TestRenderer_placeholder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cfg  Config
	}{
		{name: "no scores at all", raw: `[]`, cfg: AnalyticsConfigs()[0]},
		{name: "empty category map", raw: `{"cat_scores":{}}`, cfg: AnalyticsConfigs()[0]},
		{name: "missing skill", raw: `{"cat_scores":{"a":1},"tag_scores":{"writing":{"b":2}}}`, cfg: AnalyticsConfigs()[1]},
		{name: "empty skill", raw: `{"tag_scores":{"speaking":{}}}`, cfg: AnalyticsConfigs()[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setup(t, AnalyticsPlaceholder)
			inst, err := r.Render(tt.cfg, payload(t, tt.raw))
			require.NoError(t, err)

			assert.Nil(t, inst)
			assert.Nil(t, r.Instance(tt.cfg.ID))
			assert.Zero(t, r.Len())
			assert.Equal(t, NoScoresText, r.Board().Canvas(tt.cfg.ID).Placeholder())
		})
	}
}

func TestRenderer_destroyBeforeCreate(t *testing.T) {
	r := setup(t, AnalyticsPlaceholder)
	p := payload(t, `{"cat_scores":{"Grammar":80,"Vocab":60}}`)
	cfg := AnalyticsConfigs()[0]

	var previous []*Instance
	for i := 0; i < 5; i++ {
		inst, err := r.Render(cfg, p)
		require.NoError(t, err)
		for _, prev := range previous {
			assert.True(t, prev.Destroyed())
		}
		assert.False(t, inst.Destroyed())
		assert.Equal(t, 1, r.Len())
		previous = append(previous, inst)
	}

	// an empty payload destroys the live chart too
	inst, err := r.Render(cfg, school.ScorePayload{})
	require.NoError(t, err)
	assert.Nil(t, inst)
	assert.True(t, previous[len(previous)-1].Destroyed())
	assert.Zero(t, r.Len())
}

func TestRenderer_RenderAll(t *testing.T) {
	spy := &spyPlugin{}
	r := setup(t, AnalyticsPlaceholder, spy)
	cfgs := AnalyticsConfigs()
	cfgs[1].Plugins = append(cfgs[1].Plugins, "spy", "Missing")

	r.RenderAll(cfgs, payload(t, `{"cat_scores":{"Speaking":5,"Writing":"6"},"tag_scores":{"speaking":{"Fluency":5,"Grammar":4,"Vocab":"x"}}}`))

	assert.Equal(t, 2, r.Len())
	assert.NotNil(t, r.Instance(CategoryChart))
	speaking := r.Instance(SpeakingChart)
	require.NotNil(t, speaking)
	assert.Equal(t, []float64{5, 4, 0}, speaking.Values, "garbage coerced to 0")
	assert.Len(t, speaking.Plugins, 2, "unknown plugin skipped")
	assert.Equal(t, 1, spy.calls)
	assert.Equal(t, 3, spy.anchors)

	for _, id := range []string{ListeningChart, WritingChart, ReadingChart} {
		assert.Equal(t, NoScoresText, r.Board().Canvas(id).Placeholder(), id)
	}

	r.ClearAll()
	assert.Zero(t, r.Len())
	assert.Equal(t, NoScoresText, r.Board().Canvas(CategoryChart).Placeholder())
	assert.Equal(t, NoScoresText, r.Board().Canvas(SpeakingChart).Placeholder())
}

func TestRadialScale(t *testing.T) {
	tests := []struct {
		name   string
		scale  *Scale
		values []float64
		want   radial
		ticks  []float64
	}{
		{name: "from zero", scale: &Scale{BeginAtZero: true}, values: []float64{80, 60}, want: radial{0, 80, 20}, ticks: []float64{20, 40, 60, 80}},
		{name: "all zero", scale: &Scale{BeginAtZero: true}, values: []float64{0, 0, 0}, want: radial{0, 1, 0.5}, ticks: []float64{0.5, 1}},
		{name: "from the smallest value", scale: &Scale{}, values: []float64{5, 9}, want: radial{5, 9, 1}, ticks: []float64{6, 7, 8, 9}},
		{name: "no scale", values: []float64{-3, 2}, want: radial{0, 2, 0.5}, ticks: []float64{0.5, 1, 1.5, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := radialScale(tt.scale, tt.values)
			assert.InDelta(t, tt.want.min, got.min, 1e-9)
			assert.InDelta(t, tt.want.max, got.max, 1e-9)
			assert.InDelta(t, tt.want.step, got.step, 1e-9)
			assert.InDeltaSlice(t, tt.ticks, got.ticks(), 1e-9)
		})
	}

	s := radialScale(&Scale{BeginAtZero: true}, []float64{50})
	assert.Equal(t, 0.0, s.fraction(-4), "clamped")
	assert.Equal(t, 1.0, s.fraction(50))
}

func TestRenderer_polarArea(t *testing.T) {
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	tests := []struct {
		name        string
		raw         string
		left, right bool // whether the left and right halves of the plot are filled
	}{
		{name: "all zero", raw: `{"cat_scores":{"Grammar":0,"Vocab":0}}`},
		{name: "one zero", raw: `{"cat_scores":{"Grammar":0,"Vocab":50}}`, left: true},
		{name: "equal angles for unequal values", raw: `{"cat_scores":{"Grammar":50,"Vocab":5}}`, right: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setup(t, AnalyticsPlaceholder)
			inst, err := r.Render(AnalyticsConfigs()[0], payload(t, tt.raw))
			require.NoError(t, err)
			require.NotNil(t, inst)
			assert.Same(t, inst, r.Instance(CategoryChart))
			canvas := r.Board().Canvas(CategoryChart)
			assert.Empty(t, canvas.Placeholder())

			_, layout, err := drawPolar(inst, canvas.Width, canvas.Height)
			require.NoError(t, err)
			plot := layout.Plot
			img := canvas.Image()

			drawn := 0
			for y := plot.Min.Y; y < plot.Max.Y; y++ {
				for x := plot.Min.X; x < plot.Max.X; x++ {
					if img.RGBAAt(x, y) != white {
						drawn++
					}
				}
			}
			assert.NotZero(t, drawn, "radial scale drawn")

			// halfway out, between the rings, on either side of the center
			cx, cy := plot.Min.X+plot.Dx()/2, plot.Min.Y+plot.Dy()/2
			off := plot.Dy() / 4
			assert.Equal(t, tt.left, img.RGBAAt(cx-off, cy) != white, "left half")
			assert.Equal(t, tt.right, img.RGBAAt(cx+off, cy) != white, "right half")
		})
	}
}

func TestRenderer_noCanvas(t *testing.T) {
	r := NewRenderer(NewBoard(100, 100), nil, testutil.NewLogger(t), DashboardPlaceholder)

	inst, err := r.Render(DashboardConfig(), payload(t, `{"cat_scores":{"a":1}}`))
	require.NoError(t, err)
	assert.Nil(t, inst)
	assert.Zero(t, r.Len())
	r.Clear(CategoryChart) // no canvas, no panic
}

func TestRenderer_Clear(t *testing.T) {
	r := NewRenderer(NewBoard(300, 150, CategoryChart), nil, testutil.NewLogger(t), DashboardPlaceholder)
	inst, err := r.Render(DashboardConfig(), payload(t, `{"cat_scores":{"a":1,"b":2}}`))
	require.NoError(t, err)
	require.NotNil(t, inst)

	r.Clear(CategoryChart)
	assert.True(t, inst.Destroyed())
	assert.Nil(t, r.Instance(CategoryChart))
	assert.Equal(t, NoScoresShortText, r.Board().Canvas(CategoryChart).Placeholder())
}

func TestCanvas(t *testing.T) {
	c := NewCanvas("x", 120, 40)
	c.FillText("hi", color.Black)
	assert.Equal(t, "hi", c.Placeholder())

	img := c.Image()
	dark := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 128 {
			dark++
		}
	}
	assert.NotZero(t, dark, "text drawn")

	c.Draw(image.NewUniform(color.White))
	assert.Empty(t, c.Placeholder())

	var buf bytes.Buffer
	require.NoError(t, c.WritePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 40), decoded.Bounds())

	c.Clear()
	assert.Empty(t, c.Placeholder())
}

func TestBoard(t *testing.T) {
	b := NewBoard(10, 10, "b", "a")
	assert.Equal(t, []string{"a", "b"}, b.IDs())
	assert.Same(t, b.Canvas("a"), b.Add("a"))
	assert.Nil(t, b.Canvas("zz"))
}

func TestPluginRegistry(t *testing.T) {
	r := NewPluginRegistry()
	_, err := r.Lookup(DataLabelsPlugin)
	assert.ErrorIs(t, err, ErrUnknownPlugin)

	r.Register(DataLabels())
	p, err := r.Lookup(DataLabelsPlugin)
	require.NoError(t, err)
	assert.Equal(t, DataLabelsPlugin, p.Name())
	assert.Equal(t, []string{DataLabelsPlugin}, r.Names())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "80", FormatValue(80))
	assert.Equal(t, "5.5", FormatValue(5.5))
}
