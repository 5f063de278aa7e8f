package chartsvc

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/Hoomanxj/eztutor/core/school"
)

// chart types
const (
	Bar       = "bar"
	PolarArea = "polarArea"
)

// canvas ids
const (
	CategoryChart  = "categoryScoreChart"
	SpeakingChart  = "speakingScoreChart"
	ListeningChart = "listeningScoreChart"
	WritingChart   = "writingScoreChart"
	ReadingChart   = "readingScoreChart"
)

const DataLabelsPlugin = "ChartDataLabels"

type (
	RGB struct {
		R, G, B uint8
	}

	Palette []RGB

	// Color is a palette entry with an opacity applied.
	Color struct {
		RGB
		Alpha float64
	}

	// Config declares one chart of a page.
	Config struct {
		ID                string
		Type              string
		Title             string
		DataPath          string
		Label             string
		Palette           Palette
		BackgroundOpacity float64
		BorderOpacity     float64
		Plugins           []string
	}
)

var (
	// TenColors is the analytics palette.
	TenColors = Palette{
		{54, 162, 235},  // blue
		{255, 206, 86},  // yellow
		{75, 192, 192},  // teal
		{255, 99, 132},  // red
		{153, 102, 255}, // purple
		{255, 159, 64},  // orange
		{201, 203, 207}, // grey
		{255, 99, 71},   // tomato
		{60, 179, 113},  // medium sea green
		{255, 165, 0},   // orange
	}

	// FourColors is the dashboard palette.
	FourColors = TenColors[:4]
)

func (c RGB) String() string {
	return fmt.Sprintf("%d, %d, %d", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%s, %s)", c.RGB, strconv.FormatFloat(c.Alpha, 'f', -1, 64))
}

// NRGBA converts c for raster drawing.
func (c Color) NRGBA() color.NRGBA {
	a := c.Alpha
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a*255 + 0.5)}
}

// Colors picks count colors by cycling palette (index mod length).
func Colors(count int, opacity float64, palette Palette) []Color {
	if len(palette) == 0 {
		return nil
	}
	colors := make([]Color, 0, count)
	for i := 0; i < count; i++ {
		colors = append(colors, Color{RGB: palette[i%len(palette)], Alpha: opacity})
	}
	return colors
}

// Resolve returns the series a data path points at: the flat category map or a named skill.
func Resolve(payload school.ScorePayload, dataPath string) school.Series {
	if dataPath == school.CategoryScoresKey {
		return payload.CatScores
	}
	s, _ := payload.TagScores.Get(dataPath)
	return s
}

func AnalyticsConfigs() []Config {
	cfg := func(id, typ, title, path, label string) Config {
		return Config{
			ID:                id,
			Type:              typ,
			Title:             title,
			DataPath:          path,
			Label:             label,
			Palette:           TenColors,
			BackgroundOpacity: 0.6,
			BorderOpacity:     1,
			Plugins:           []string{DataLabelsPlugin},
		}
	}
	return []Config{
		cfg(CategoryChart, PolarArea, "Category Scores", school.CategoryScoresKey, "Average Score"),
		cfg(SpeakingChart, Bar, "Speaking Scores", "speaking", "Speaking Scores"),
		cfg(ListeningChart, Bar, "Listening Scores", "listening", "Listening Scores"),
		cfg(WritingChart, Bar, "Writing Scores", "writing", "Writing Scores"),
		cfg(ReadingChart, Bar, "Reading Scores", "reading", "Reading Scores"),
	}
}

func DashboardConfig() Config {
	return Config{
		ID:                CategoryChart,
		Type:              PolarArea,
		Title:             "Category Scores",
		DataPath:          school.CategoryScoresKey,
		Label:             "Category Scores",
		Palette:           FourColors,
		BackgroundOpacity: 0.6,
		BorderOpacity:     1,
		Plugins:           []string{DataLabelsPlugin},
	}
}

// IDs lists the canvas ids of cfgs.
func IDs(cfgs ...Config) []string {
	ids := make([]string, 0, len(cfgs))
	for _, c := range cfgs {
		ids = append(ids, c.ID)
	}
	return ids
}
