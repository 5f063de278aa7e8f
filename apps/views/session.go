package views

import (
	"context"
	"net/http"

	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
)

// SessionPage lists the sessions of a course and edits the info of one of them.
type SessionPage struct {
	Deps
	state
	role     string
	initOnce once

	courses        []school.Course
	courseID       null.Int
	selectedCourse *school.Course
	sessions       []school.Session
	sessionID      null.Int
	show           bool
	form           formState
}

func NewSessionPage(d Deps, role string) *SessionPage {
	return &SessionPage{Deps: d, role: role}
}

func (p *SessionPage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.FetchCourses(ctx)
}

// FetchCourses loads the courses and opens the selected one, the first by default.
func (p *SessionPage) FetchCourses(ctx context.Context) error {
	tok := p.begin(sliceCourses, nil)
	res := fetch[[]school.Course](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.PrefixSession + apisvc.GetCourses,
		Key:       "courses",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching courses",
	})

	var open null.Int
	if !p.apply(sliceCourses, tok, func() {
		if !res.OK() {
			return
		}
		p.courses = res.Data
		switch {
		case p.courseID.Valid:
			open = p.courseID
		case len(p.courses) > 0:
			open = null.IntFrom(p.courses[0].ID)
		}
	}) {
		p.stale(sliceCourses, tok)
		return nil
	}
	if open.Valid {
		return p.FetchCourseData(ctx, open.Int)
	}
	return res.Err
}

// FetchCourseData selects a course and loads its sessions.
func (p *SessionPage) FetchCourseData(ctx context.Context, courseID int) error {
	p.mu.Lock()
	p.courseID = null.IntFrom(courseID)
	p.selectedCourse = findCourse(p.courses, courseID)
	found := p.selectedCourse != nil
	p.mu.Unlock()

	if !found {
		return nil
	}
	return p.FetchSessions(ctx, courseID)
}

func (p *SessionPage) FetchSessions(ctx context.Context, courseID int) error {
	tok := p.begin(sliceSessions, func() { p.sessions = nil })
	res := fetch[[]school.Session](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.SessionList,
		Query:     apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)},
		Key:       "sessions",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching sessions",
	})
	if !p.apply(sliceSessions, tok, func() {
		if res.OK() {
			p.sessions = res.Data
		}
	}) {
		p.stale(sliceSessions, tok)
		return nil
	}
	return res.Err
}

// FetchSessionData loads the info form of a session and shows it.
func (p *SessionPage) FetchSessionData(ctx context.Context, sessionID int) error {
	tok := p.begin(sliceForm, func() { p.sessionID = null.IntFrom(sessionID) })
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.SessionInfo,
		Query:     apisvc.Query{apisvc.ParamSessionID: apisvc.ID(sessionID)},
		Key:       "html",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching session info",
	})
	if !res.OK() {
		return res.Err
	}
	st, err := parseForm(p.Deps, res.Data, "")
	if !p.apply(sliceForm, tok, func() {
		p.form = st
		p.show = true
	}) {
		p.stale(sliceForm, tok)
		return nil
	}
	return err
}

// ShowForm shows or hides the session info form.
func (p *SessionPage) ShowForm(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.show = on
}

// UpdateSession posts the info of the selected session; the form is hidden afterwards
// whatever the outcome.
func (p *SessionPage) UpdateSession(ctx context.Context, form *forms.Form) error {
	defer p.ShowForm(false)

	p.mu.RLock()
	sessionID, courseID := p.sessionID, p.courseID
	p.mu.RUnlock()

	res := fetch[struct{}](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          apisvc.SessionUpdate,
		Query:         apisvc.Query{apisvc.ParamSessionID: nullID(sessionID)},
		Form:          form,
		OnFailure:     apisvc.Policy{Default: "Session info was not updated"},
		Transport:     "Error updating session info",
		SuccessNotice: "Successfully updated session info",
	})
	if !res.OK() || !courseID.Valid {
		return res.Err
	}
	return p.FetchSessions(ctx, courseID.Int)
}

// StatusClass is the badge class of a session status.
func (p *SessionPage) StatusClass(status string) string {
	return school.StatusClass(status)
}

func (p *SessionPage) Role() string {
	return p.role
}

func (p *SessionPage) Courses() []school.Course {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.courses)
}

func (p *SessionPage) SelectedCourse() (null.Int, *school.Course) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.selectedCourse == nil {
		return p.courseID, nil
	}
	c := *p.selectedCourse
	return p.courseID, &c
}

func (p *SessionPage) Sessions() []school.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.sessions)
}

func (p *SessionPage) SelectedSession() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sessionID
}

func (p *SessionPage) Showing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.show
}

// Form returns a copy of the session info form.
func (p *SessionPage) Form() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.form.form.Clone()
}

func (p *SessionPage) FormHTML() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.form.html
}
