// Package forms turns server rendered form markup into values that can be filled in and posted.
package forms

import (
	"bytes"
	"mime/multipart"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrNoForm  = errors.New("no form found in markup")
	ErrNoField = errors.New("no such field")
)

// input types that never contribute a value
var buttonTypes = map[string]bool{"submit": true, "button": true, "reset": true, "image": true}

type (
	Option struct {
		Value    string
		Label    string
		Selected bool
	}

	File struct {
		Filename string
		Content  []byte
	}

	// Field is one form control: an input, a select or a textarea.
	Field struct {
		Tag      string
		Name     string
		Type     string
		ID       string
		Label    string
		Value    string
		Min      string
		Max      string
		Required bool
		Multiple bool
		Disabled bool
		Checked  bool
		Options  []Option
		Files    []File
	}

	// Entry is one name/value pair of the submitted data set.
	Entry struct {
		Name  string
		Value string
		File  *File
	}

	Form struct {
		ID     string
		Action string
		Method string
		Fields []*Field
		extra  []Entry
	}
)

func New() *Form {
	return &Form{}
}

// Parse reads the first <form> in markup. Markup without a form element is read as a whole.
func Parse(markup string) (*Form, error) {
	return parse(markup, "")
}

// ParseByID reads the form whose id attribute is id.
func ParseByID(markup, id string) (*Form, error) {
	return parse(markup, id)
}

func parse(markup, id string) (*Form, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.Wrap(err, "parsing form markup")
	}

	root := findForm(doc, id)
	if root == nil {
		if id != "" {
			return nil, errors.Wrapf(ErrNoForm, "form #%s", id)
		}
		root = doc
	}

	form := &Form{
		ID:     attr(root, "id"),
		Action: attr(root, "action"),
		Method: strings.ToUpper(attr(root, "method")),
	}
	labels := make(map[string]string)
	walk(root, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Form:
			// nested forms are invalid html; anything but root is skipped
			return n == root
		case atom.Label:
			if f := attr(n, "for"); f != "" {
				labels[f] = strings.TrimSpace(text(n))
			}
		case atom.Input:
			typ := strings.ToLower(attr(n, "type"))
			if typ == "" {
				typ = "text"
			}
			if buttonTypes[typ] {
				return false
			}
			fld := newField(n, typ)
			fld.Value = attr(n, "value")
			if (typ == "checkbox" || typ == "radio") && !hasAttr(n, "value") {
				fld.Value = "on"
			}
			fld.Checked = hasAttr(n, "checked")
			form.Fields = append(form.Fields, fld)
		case atom.Select:
			fld := newField(n, "select")
			fld.Multiple = hasAttr(n, "multiple")
			walk(n, func(o *html.Node) bool {
				if o.DataAtom != atom.Option {
					return true
				}
				label := strings.TrimSpace(text(o))
				val := label
				if hasAttr(o, "value") {
					val = attr(o, "value")
				}
				fld.Options = append(fld.Options, Option{Value: val, Label: label, Selected: hasAttr(o, "selected")})
				return false
			})
			form.Fields = append(form.Fields, fld)
			return false
		case atom.Textarea:
			fld := newField(n, "textarea")
			fld.Value = text(n)
			form.Fields = append(form.Fields, fld)
			return false
		}
		return true
	})

	for _, fld := range form.Fields {
		if lbl, ok := labels[fld.ID]; ok && fld.ID != "" {
			fld.Label = lbl
		}
	}
	return form, nil
}

func newField(n *html.Node, typ string) *Field {
	return &Field{
		Tag:      n.Data,
		Name:     attr(n, "name"),
		Type:     typ,
		ID:       attr(n, "id"),
		Min:      attr(n, "min"),
		Max:      attr(n, "max"),
		Required: hasAttr(n, "required"),
		Disabled: hasAttr(n, "disabled"),
	}
}

func findForm(n *html.Node, id string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.DataAtom == atom.Form && (id == "" || attr(c, "id") == id) {
			found = c
			return false
		}
		return true
	})
	return found
}

// walk visits n and its descendants depth first; fn returning false skips the children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			collect(cc)
		}
	}
	collect(n)
	return sb.String()
}

// Field returns the first control named name.
func (f *Form) Field(name string) *Field {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

func (f *Form) named(name string) []*Field {
	var out []*Field
	for _, fld := range f.Fields {
		if fld.Name == name {
			out = append(out, fld)
		}
	}
	return out
}

// Set assigns values to the controls named name. Checkboxes and radios get
// checked when their value is listed, select options get selected.
func (f *Form) Set(name string, values ...string) error {
	flds := f.named(name)
	if len(flds) == 0 {
		return errors.Wrapf(ErrNoField, "setting %q", name)
	}

	i := 0
	for _, fld := range flds {
		switch fld.Type {
		case "checkbox", "radio":
			fld.Checked = contains(values, fld.Value)
		case "select":
			picked := false
			for j := range fld.Options {
				sel := contains(values, fld.Options[j].Value) && (fld.Multiple || !picked)
				fld.Options[j].Selected = sel
				picked = picked || sel
			}
		case "file":
			return errors.Errorf("field %q is a file input, use Attach", name)
		default:
			if i < len(values) {
				fld.Value = values[i]
			} else {
				fld.Value = ""
			}
			i++
		}
	}
	// a radio group keeps a single checked button
	if flds[0].Type == "radio" {
		seen := false
		for _, fld := range flds {
			if fld.Checked && seen {
				fld.Checked = false
			}
			seen = seen || fld.Checked
		}
	}
	return nil
}

// Check toggles the checkbox named name carrying value.
func (f *Form) Check(name, value string, checked bool) error {
	for _, fld := range f.named(name) {
		if (fld.Type == "checkbox" || fld.Type == "radio") && fld.Value == value {
			fld.Checked = checked
			return nil
		}
	}
	return errors.Wrapf(ErrNoField, "checking %q=%q", name, value)
}

// Attach adds a file to the file input named name.
func (f *Form) Attach(name, filename string, content []byte) error {
	for _, fld := range f.named(name) {
		if fld.Type == "file" {
			if !fld.Multiple {
				fld.Files = fld.Files[:0]
			}
			fld.Files = append(fld.Files, File{Filename: filename, Content: content})
			return nil
		}
	}
	return errors.Wrapf(ErrNoField, "attaching to %q", name)
}

// Clone returns a deep copy of f.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	out := &Form{ID: f.ID, Action: f.Action, Method: f.Method}
	for _, fld := range f.Fields {
		c := *fld
		c.Options = append([]Option(nil), fld.Options...)
		c.Files = append([]File(nil), fld.Files...)
		out.Fields = append(out.Fields, &c)
	}
	out.extra = append([]Entry(nil), f.extra...)
	return out
}

// Append adds a value that has no control in the markup.
func (f *Form) Append(name, value string) {
	f.extra = append(f.extra, Entry{Name: name, Value: value})
}

// Entries builds the data set a browser would submit, in document order.
func (f *Form) Entries() []Entry {
	var entries []Entry
	for _, fld := range f.Fields {
		if fld.Name == "" || fld.Disabled {
			continue
		}
		switch fld.Type {
		case "checkbox", "radio":
			if fld.Checked {
				entries = append(entries, Entry{Name: fld.Name, Value: fld.Value})
			}
		case "select":
			for _, v := range fld.selected() {
				entries = append(entries, Entry{Name: fld.Name, Value: v})
			}
		case "file":
			if len(fld.Files) == 0 {
				entries = append(entries, Entry{Name: fld.Name, File: &File{}})
			}
			for i := range fld.Files {
				entries = append(entries, Entry{Name: fld.Name, File: &fld.Files[i]})
			}
		default:
			entries = append(entries, Entry{Name: fld.Name, Value: fld.Value})
		}
	}
	return append(entries, f.extra...)
}

func (fld *Field) selected() []string {
	var vals []string
	for _, o := range fld.Options {
		if o.Selected {
			vals = append(vals, o.Value)
			if !fld.Multiple {
				return vals
			}
		}
	}
	if len(vals) == 0 && !fld.Multiple && len(fld.Options) > 0 {
		return []string{fld.Options[0].Value}
	}
	return vals
}

// Values returns every non-file value submitted under name.
func (f *Form) Values(name string) []string {
	var vals []string
	for _, e := range f.Entries() {
		if e.Name == name && e.File == nil {
			vals = append(vals, e.Value)
		}
	}
	return vals
}

func (f *Form) Get(name string) string {
	if vals := f.Values(name); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// CountChecked counts the checked boxes named name.
func (f *Form) CountChecked(name string) int {
	count := 0
	for _, fld := range f.named(name) {
		if fld.Checked {
			count++
		}
	}
	return count
}

// Element returns the validator's view of the control named name.
func (f *Form) Element(name string) Element {
	el := Element{Name: name, Value: f.Get(name)}
	if fld := f.Field(name); fld != nil {
		el.Min, el.Max = fld.Min, fld.Max
		el.Files = len(fld.Files)
	}
	return el
}

// Encode writes the data set as multipart/form-data.
func (f *Form) Encode() ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, e := range f.Entries() {
		if e.File != nil {
			part, err := w.CreateFormFile(e.Name, e.File.Filename)
			if err != nil {
				return nil, "", errors.Wrap(err, "creating file part")
			}
			if _, err = part.Write(e.File.Content); err != nil {
				return nil, "", errors.Wrap(err, "writing file part")
			}
			continue
		}
		if err := w.WriteField(e.Name, e.Value); err != nil {
			return nil, "", errors.Wrap(err, "writing field")
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart writer")
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

func contains(vals []string, v string) bool {
	for _, s := range vals {
		if s == v {
			return true
		}
	}
	return false
}
