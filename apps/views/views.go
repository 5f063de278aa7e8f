// Package views holds the page view-models of the portal: each one owns the state of
// a page, fetches it from the server and derives the dependent fetches.
package views

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
)

// mockable
var afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }

var ErrUnknownFormType = errors.New("unknown form type")

// state slices carrying request tokens
const (
	sliceCourses     = "courses"
	sliceStudents    = "students"
	sliceScores      = "scores"
	sliceAssignments = "assignments"
	sliceSessions    = "sessions"
	sliceForm        = "form"
	sliceInvite      = "invite"
	sliceSchedule    = "schedule"
	sliceUpcoming    = "upcoming"
	sliceClasses     = "class_schedule"
	sliceTasks       = "custom_schedule"
	sliceAll         = "all_schedule"
)

type (
	// Navigator moves the user to another page.
	Navigator interface {
		Navigate(url string)
	}

	Deps struct {
		Client    *apisvc.Client
		Notifier  apisvc.Notifier
		Charts    *chartsvc.Renderer
		Navigator Navigator
		Logger    core.Logger
		Conf      *core.Config
	}

	// tokens numbers the requests of each state slice; only the latest answer is applied.
	tokens map[string]uint64

	// state is the lock and request tokens shared by every page.
	state struct {
		mu  sync.RWMutex
		tok tokens
	}

	// once guards Init.
	once struct {
		done atomic.Bool
	}

	// formState is the markup of a modal and the form parsed from it.
	formState struct {
		html string
		form *forms.Form
	}
)

func (t tokens) next(slice string) uint64 {
	t[slice]++
	return t[slice]
}

func (t tokens) latest(slice string, tok uint64) bool {
	return t[slice] == tok
}

// begin runs clear and issues the next token of slice, atomically.
func (s *state) begin(slice string, clear func()) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clear != nil {
		clear()
	}
	if s.tok == nil {
		s.tok = tokens{}
	}
	return s.tok.next(slice)
}

// apply runs fn when tok is still the latest token of slice and reports whether it did.
func (s *state) apply(slice string, tok uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tok.latest(slice, tok) {
		return false
	}
	fn()
	return true
}

// first reports whether this is the first call.
func (o *once) first() bool {
	return o.done.CompareAndSwap(false, true)
}

func (d Deps) stale(slice string, tok uint64) {
	d.Logger.Debug("dropping stale response", map[string]interface{}{"slice": slice, "token": tok})
}

// redirect navigates to url after the configured delay.
func (d Deps) redirect(url string) {
	if d.Navigator == nil {
		return
	}
	afterFunc(d.Conf.RedirectDelay, func() { d.Navigator.Navigate(url) })
}

func fetch[T any](ctx context.Context, d Deps, call apisvc.Call) apisvc.Result[T] {
	return apisvc.Fetch[T](ctx, d.Client, d.Notifier, call)
}

func parseForm(d Deps, markup, id string) (formState, error) {
	st := formState{html: markup}
	if markup == "" {
		return st, nil
	}
	var err error
	if id != "" {
		st.form, err = forms.ParseByID(markup, id)
		if errors.Cause(err) == forms.ErrNoForm {
			st.form, err = forms.Parse(markup)
		}
	} else {
		st.form, err = forms.Parse(markup)
	}
	if err != nil {
		d.Logger.Error("parsing form markup", err)
		return formState{html: markup}, errors.Wrap(err, "parsing form markup")
	}
	return st, nil
}

// nullID formats a selection as a query value, blank when nothing is selected.
func nullID(id null.Int) string {
	if !id.Valid {
		return ""
	}
	return apisvc.ID(id.Int)
}

func findCourse(courses []school.Course, id int) *school.Course {
	for i := range courses {
		if courses[i].ID == id {
			c := courses[i]
			return &c
		}
	}
	return nil
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
