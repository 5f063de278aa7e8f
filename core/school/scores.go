package school

import (
	"io"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	CategoryScoresKey = "cat_scores"
	TagScoresKey      = "tag_scores"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Point is one labelled score, labels keep the payload's key order.
	Point struct {
		Label string
		Value float64
	}

	Series []Point

	// Skill is one named entry of the nested tag_scores map.
	Skill struct {
		Name   string
		Scores Series
	}

	Skills []Skill

	// ScorePayload is the `scores` object returned by get_student_scores.
	ScorePayload struct {
		CatScores Series
		TagScores Skills
		keys      int
	}
)

func (s Series) Labels() []string {
	labels := make([]string, 0, len(s))
	for _, p := range s {
		labels = append(labels, p.Label)
	}
	return labels
}

func (s Series) Values() []float64 {
	vals := make([]float64, 0, len(s))
	for _, p := range s {
		vals = append(vals, p.Value)
	}
	return vals
}

// Get returns the scores of skill `name`.
func (sk Skills) Get(name string) (Series, bool) {
	for _, s := range sk {
		if s.Name == name {
			return s.Scores, true
		}
	}
	return nil, false
}

// Empty reports whether the payload carried no key at all.
func (p ScorePayload) Empty() bool {
	return p.keys == 0
}

func (s *Series) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(json, data)
	series, err := readSeries(iter)
	if err != nil {
		return err
	}
	*s = series
	return nil
}

func (sk *Skills) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(json, data)
	skills, err := readSkills(iter)
	if err != nil {
		return err
	}
	*sk = skills
	return nil
}

// UnmarshalJSON accepts the score object as well as the `[]` the server sends when nothing was scored yet.
func (p *ScorePayload) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(json, data)
	out := ScorePayload{}

	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		var err error
		iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			out.keys++
			switch key {
			case CategoryScoresKey:
				out.CatScores, err = readSeries(it)
			case TagScoresKey:
				out.TagScores, err = readSkills(it)
			default:
				it.Skip()
			}
			return err == nil
		})
		if err != nil {
			return errors.Wrap(err, "reading scores")
		}
	default:
		iter.Skip()
	}
	if err := iterErr(iter); err != nil {
		return errors.Wrap(err, "reading scores")
	}
	*p = out
	return nil
}

func readSeries(iter *jsoniter.Iterator) (Series, error) {
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		iter.Skip()
		return nil, iterErr(iter)
	}
	series := Series{}
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		series = append(series, Point{Label: key, Value: readNumber(it)})
		return it.Error == nil
	})
	return series, iterErr(iter)
}

func readSkills(iter *jsoniter.Iterator) (Skills, error) {
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		iter.Skip()
		return nil, iterErr(iter)
	}
	var err error
	skills := Skills{}
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		var s Series
		if s, err = readSeries(it); err != nil {
			return false
		}
		skills = append(skills, Skill{Name: key, Scores: s})
		return true
	})
	if err != nil {
		return nil, err
	}
	return skills, iterErr(iter)
}

// readNumber coerces the next value the way a browser's Number() would.
func readNumber(iter *jsoniter.Iterator) float64 {
	switch iter.WhatIsNext() {
	case jsoniter.NumberValue:
		return iter.ReadFloat64()
	case jsoniter.StringValue:
		return ParseNumber(iter.ReadString())
	case jsoniter.BoolValue:
		if iter.ReadBool() {
			return 1
		}
		return 0
	case jsoniter.NilValue:
		iter.ReadNil()
		return 0
	default:
		iter.Skip()
		return math.NaN()
	}
}

// ParseNumber converts a numeric looking string; blanks give 0 and garbage gives NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func iterErr(iter *jsoniter.Iterator) error {
	if iter.Error != nil && iter.Error != io.EOF {
		return iter.Error
	}
	return nil
}

// DecodeOptional decodes raw into v unless it is null or an (empty) array.
// It reports whether v was filled.
func DecodeOptional(raw []byte, v interface{}) (bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrap(err, "decoding optional object")
	}
	return true, nil
}
