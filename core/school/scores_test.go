package school

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePayload_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantCat   Series
		wantTags  Skills
		wantEmpty bool
		wantErr   bool
	}{
		{
			name:      "empty array",
			data:      `[]`,
			wantEmpty: true,
		},
		{
			name:      "empty object",
			data:      `{}`,
			wantEmpty: true,
		},
		{
			name:    "keeps key order",
			data:    `{"cat_scores":{"Vocab":60,"Grammar":80,"Listening":70}}`,
			wantCat: Series{{"Vocab", 60}, {"Grammar", 80}, {"Listening", 70}},
		},
		{
			name: "coerces values",
			data: `{"cat_scores":{"a":"75","b":" 12.5 ","c":"","d":null,"e":true,"f":false}}`,
			wantCat: Series{
				{"a", 75}, {"b", 12.5}, {"c", 0}, {"d", 0}, {"e", 1}, {"f", 0},
			},
		},
		{
			name: "nested skills",
			data: `{"tag_scores":{"writing":{"cohesion":4,"grammar":"3"},"speaking":{"fluency":5}},"cat_scores":{}}`,
			wantCat: Series{},
			wantTags: Skills{
				{Name: "writing", Scores: Series{{"cohesion", 4}, {"grammar", 3}}},
				{Name: "speaking", Scores: Series{{"fluency", 5}}},
			},
		},
		{
			name:    "unknown keys ignored",
			data:    `{"other":[1,2],"cat_scores":{"x":1}}`,
			wantCat: Series{{"x", 1}},
		},
		{
			name:    "broken json",
			data:    `{"cat_scores":{"x":`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ScorePayload
			err := json.Unmarshal([]byte(tt.data), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			assert.Equal(t, tt.wantEmpty, p.Empty())
			assert.Equal(t, tt.wantCat, p.CatScores)
			assert.Equal(t, tt.wantTags, p.TagScores)
		})
	}
}

func TestScorePayload_inEnvelope(t *testing.T) {
	var body struct {
		Success bool         `json:"success"`
		Scores  ScorePayload `json:"scores"`
	}
	err := json.Unmarshal([]byte(`{"success":true,"scores":{"cat_scores":{"Grammar":80,"Vocab":60}}}`), &body)
	require.NoError(t, err)
	assert.True(t, body.Success)
	assert.Equal(t, []string{"Grammar", "Vocab"}, body.Scores.CatScores.Labels())
	assert.Equal(t, []float64{80, 60}, body.Scores.CatScores.Values())
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 0.0, ParseNumber(""))
	assert.Equal(t, 0.0, ParseNumber("   "))
	assert.Equal(t, 42.0, ParseNumber("42"))
	assert.Equal(t, -1.5, ParseNumber("-1.5"))
	assert.True(t, math.IsNaN(ParseNumber("lol")))
}

func TestSkills_Get(t *testing.T) {
	skills := Skills{{Name: "reading", Scores: Series{{"a", 1}}}}

	got, ok := skills.Get("reading")
	assert.True(t, ok)
	assert.Equal(t, Series{{"a", 1}}, got)

	_, ok = skills.Get("writing")
	assert.False(t, ok)
}

func TestDecodeOptional(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOk bool
	}{
		{name: "null", raw: `null`},
		{name: "empty array", raw: `[]`},
		{name: "blank", raw: ``},
		{name: "object", raw: `{"id":3,"status":"pending"}`, wantOk: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Session
			ok, err := DecodeOptional([]byte(tt.raw), &s)
			require.NoError(t, err)
			if ok != tt.wantOk {
				t.Errorf("DecodeOptional() = %v, want %v", ok, tt.wantOk)
			}
			if ok {
				assert.Equal(t, 3, s.ID)
			}
		})
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{SessionPending, "bg-yellow-600"},
		{"Held", "bg-green-600"},
		{SessionCancelled, "bg-red-600"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := (Session{Status: tt.status}).StatusClass(); got != tt.want {
				t.Errorf("StatusClass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindClass(t *testing.T) {
	assert.Equal(t, "bg-yellow-600", KindClass(EventClass))
	assert.Equal(t, "bg-green-600", ScheduleEvent{Kind: "CUSTOM"}.KindClass())
	assert.Equal(t, "bg-gray-600", KindClass(""))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Math", ClassSchedule{CourseName: "Math"}.DisplayName())
	assert.Equal(t, "Session 1", ClassSchedule{Name: "Session 1", CourseName: "Math"}.DisplayName())
	assert.Equal(t, "Read", CustomTask{Task: "Read"}.DisplayName())
}
