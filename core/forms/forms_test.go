package forms

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const assignmentMarkup = `
<div class="modal">
  <form id="assignment-form" action="/assignment/create_assignment" method="post">
    <input type="hidden" name="form_type" value="create">
    <label for="title">Title</label>
    <input id="title" name="title" required>
    <label for="score">Score</label>
    <input id="score" type="number" name="score" min="0" max="100" value="10">
    <select name="category" required>
      <option value="">--</option>
      <option value="writing" selected>Writing</option>
      <option value="reading">Reading</option>
    </select>
    <select name="tags" multiple>
      <option>grammar</option>
      <option value="vocab">Vocabulary</option>
    </select>
    <input type="checkbox" name="weekdays[]" value="mon" checked>
    <input type="checkbox" name="weekdays[]" value="tue">
    <input type="checkbox" name="notify">
    <input type="radio" name="level" value="a1">
    <input type="radio" name="level" value="b1">
    <textarea name="description">Read chapter 2</textarea>
    <input type="file" name="attachment">
    <input type="text" name="locked" value="x" disabled>
    <button type="submit">Save</button>
    <input type="submit" name="go" value="Go">
  </form>
  <form id="other"><input name="other"></form>
</div>`

func TestParse(t *testing.T) {
	f, err := Parse(assignmentMarkup)
	require.NoError(t, err)

	assert.Equal(t, "assignment-form", f.ID)
	assert.Equal(t, "/assignment/create_assignment", f.Action)
	assert.Equal(t, "POST", f.Method)
	assert.Nil(t, f.Field("other"), "only the first form is read")
	assert.Nil(t, f.Field("go"), "submit inputs are skipped")

	title := f.Field("title")
	require.NotNil(t, title)
	assert.Equal(t, "Title", title.Label)
	assert.True(t, title.Required)
	assert.Equal(t, "text", title.Type)

	score := f.Field("score")
	require.NotNil(t, score)
	assert.Equal(t, "0", score.Min)
	assert.Equal(t, "100", score.Max)

	tags := f.Field("tags")
	require.NotNil(t, tags)
	assert.True(t, tags.Multiple)
	assert.Equal(t, []Option{{Value: "grammar", Label: "grammar"}, {Value: "vocab", Label: "Vocabulary"}}, tags.Options)

	assert.Equal(t, "on", f.Field("notify").Value)
	assert.Equal(t, "create", f.Get("form_type"))
	assert.Equal(t, "Read chapter 2", f.Get("description"))
	assert.Equal(t, "writing", f.Get("category"))
	assert.Equal(t, []string{"mon"}, f.Values("weekdays[]"))
	assert.Empty(t, f.Values("locked"), "disabled controls are not submitted")
	assert.Empty(t, f.Values("tags"))
	assert.Empty(t, f.Values("level"))
}

func TestParseByID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		field   string
		wantErr error
	}{
		{name: "second form", id: "other", field: "other"},
		{name: "first form", id: "assignment-form", field: "title"},
		{name: "missing form", id: "nope", wantErr: ErrNoForm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseByID(assignmentMarkup, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f.Field(tt.field))
		})
	}
}

func TestParse_fragmentWithoutForm(t *testing.T) {
	f, err := Parse(`<label for="e">Email</label><input id="e" type="email" name="email">`)
	require.NoError(t, err)
	require.Len(t, f.Fields, 1)
	assert.Equal(t, "Email", f.Fields[0].Label)
	assert.Equal(t, "email", f.Fields[0].Type)
}

func TestForm_Set(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		values  []string
		want    []string
		wantErr bool
	}{
		{name: "text", field: "title", values: []string{"Essay"}, want: []string{"Essay"}},
		{name: "text cleared", field: "title", want: []string{""}},
		{name: "single select", field: "category", values: []string{"reading"}, want: []string{"reading"}},
		{name: "single select keeps one", field: "category", values: []string{"writing", "reading"}, want: []string{"writing"}},
		{name: "multi select", field: "tags", values: []string{"vocab", "grammar"}, want: []string{"grammar", "vocab"}},
		{name: "checkbox group", field: "weekdays[]", values: []string{"tue"}, want: []string{"tue"}},
		{name: "radio", field: "level", values: []string{"b1"}, want: []string{"b1"}},
		{name: "unknown field", field: "nope", values: []string{"x"}, wantErr: true},
		{name: "file field", field: "attachment", values: []string{"x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(assignmentMarkup)
			require.NoError(t, err)

			err = f.Set(tt.field, tt.values...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				assert.Equal(t, tt.want, f.Values(tt.field))
			}
		})
	}
}

func TestForm_CheckAndCount(t *testing.T) {
	f, err := Parse(assignmentMarkup)
	require.NoError(t, err)

	assert.Equal(t, 1, f.CountChecked("weekdays[]"))
	require.NoError(t, f.Check("weekdays[]", "tue", true))
	assert.Equal(t, 2, f.CountChecked("weekdays[]"))
	require.NoError(t, f.Check("weekdays[]", "mon", false))
	assert.Equal(t, []string{"tue"}, f.Values("weekdays[]"))
	assert.ErrorIs(t, f.Check("weekdays[]", "sun", true), ErrNoField)
}

func TestForm_Encode(t *testing.T) {
	f, err := Parse(assignmentMarkup)
	require.NoError(t, err)
	require.NoError(t, f.Set("title", "Essay"))
	require.NoError(t, f.Attach("attachment", "essay.txt", []byte("hello")))
	f.Append("course_id", "3")

	body, contentType, err := f.Encode()
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	r := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	got := map[string][]string{}
	var order []string
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, _ := io.ReadAll(part)
		if part.FileName() != "" {
			assert.Equal(t, "essay.txt", part.FileName())
		}
		order = append(order, part.FormName())
		got[part.FormName()] = append(got[part.FormName()], string(data))
	}

	assert.Equal(t, []string{"form_type", "title", "score", "category", "weekdays[]", "description", "attachment", "course_id"}, order)
	assert.Equal(t, []string{"Essay"}, got["title"])
	assert.Equal(t, []string{"hello"}, got["attachment"])
	assert.Equal(t, []string{"3"}, got["course_id"])
}

func TestForm_Element(t *testing.T) {
	f, err := Parse(assignmentMarkup)
	require.NoError(t, err)
	require.NoError(t, f.Attach("attachment", "a.pdf", nil))

	assert.Equal(t, Element{Name: "score", Value: "10", Min: "0", Max: "100"}, f.Element("score"))
	assert.Equal(t, 1, f.Element("attachment").Files)
	assert.Equal(t, Element{Name: "missing"}, f.Element("missing"))
}

func TestForm_Clone(t *testing.T) {
	f, err := Parse(assignmentMarkup)
	require.NoError(t, err)
	require.NoError(t, f.Set("title", "Essay"))

	c := f.Clone()
	require.NoError(t, c.Set("title", "Other"))
	require.NoError(t, c.Set("category", "reading"))
	c.Append("course_id", "1")

	assert.Equal(t, "Essay", f.Get("title"))
	assert.Equal(t, "writing", f.Get("category"))
	assert.Empty(t, f.Values("course_id"))
	assert.Equal(t, "Other", c.Get("title"))
	assert.Equal(t, "1", c.Get("course_id"))

	var nilForm *Form
	assert.Nil(t, nilForm.Clone())
}
