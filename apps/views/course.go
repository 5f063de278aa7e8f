package views

import (
	"context"
	"net/http"

	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
)

// CoursePage lists the courses by status and drives the create and invite modals.
type CoursePage struct {
	Deps
	state
	role     string
	initOnce once

	allCourses     []school.Course
	courses        []school.Course
	courseStatus   string
	viewOn         bool
	createForm     formState
	inviteForm     formState
	invitationOpen bool
	loadingCreate  bool
	loadingInvite  bool
	courseID       null.Int
}

func NewCoursePage(d Deps, role string) *CoursePage {
	return &CoursePage{Deps: d, role: role, courseStatus: school.CourseOngoing}
}

func (p *CoursePage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.FetchCourses(ctx)
}

// FetchCourses reloads every course and shows the ongoing ones.
func (p *CoursePage) FetchCourses(ctx context.Context) error {
	tok := p.begin(sliceCourses, nil)
	res := fetch[[]school.Course](ctx, p.Deps, apisvc.Call{
		Path: apisvc.PrefixCourse + apisvc.GetCourses,
		Key:  "courses",
	})
	if !p.apply(sliceCourses, tok, func() {
		if res.OK() {
			p.allCourses = res.Data
			p.viewCourses(school.CourseOngoing)
		}
	}) {
		p.stale(sliceCourses, tok)
		return nil
	}
	return res.Err
}

// ViewCourses switches the list to the courses with status.
func (p *CoursePage) ViewCourses(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewCourses(status)
}

func (p *CoursePage) viewCourses(status string) {
	p.createForm = formState{}
	p.viewOn = true
	p.courseStatus = status
	p.courses = []school.Course{}
	for _, c := range p.allCourses {
		if c.Status == status {
			p.courses = append(p.courses, c)
		}
	}
}

// FetchCourseForm hides the list and loads the course creation form.
func (p *CoursePage) FetchCourseForm(ctx context.Context) error {
	tok := p.begin(sliceForm, func() { p.viewOn = false })
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path: apisvc.CourseForm,
		Key:  "html",
	})
	if !res.OK() {
		return res.Err
	}
	st, err := parseForm(p.Deps, res.Data, "")
	if !p.apply(sliceForm, tok, func() { p.createForm = st }) {
		p.stale(sliceForm, tok)
		return nil
	}
	return err
}

// SubmitForm creates a course from form and reloads the list.
func (p *CoursePage) SubmitForm(ctx context.Context, form *forms.Form) error {
	p.setLoading(&p.loadingCreate, true)
	res := fetch[struct{}](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          apisvc.CourseSubmitForm,
		Form:          form,
		OnFailure:     apisvc.Policy{Default: apisvc.MsgSomethingWrongDt},
		SuccessNotice: "Course was successfully created",
	})
	// the reload below has its own state
	p.setLoading(&p.loadingCreate, false)
	if !res.OK() {
		return res.Err
	}
	return p.FetchCourses(ctx)
}

// InviteForm opens the invitation modal of a course and loads its form.
func (p *CoursePage) InviteForm(ctx context.Context, courseID int) error {
	tok := p.begin(sliceInvite, func() {
		p.courseID = null.IntFrom(courseID)
		p.invitationOpen = true
	})
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path:  apisvc.CourseInviteForm,
		Query: apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)},
		Key:   "html",
	})
	if !res.OK() {
		return res.Err
	}
	st, err := parseForm(p.Deps, res.Data, "")
	if !p.apply(sliceInvite, tok, func() { p.inviteForm = st }) {
		p.stale(sliceInvite, tok)
		return nil
	}
	return err
}

// SendInvite posts the invitation of the selected course; without one nothing is sent.
func (p *CoursePage) SendInvite(ctx context.Context, form *forms.Form) error {
	courseID := p.SelectedCourse()
	if !courseID.Valid {
		return nil
	}
	p.setLoading(&p.loadingInvite, true)
	defer p.setLoading(&p.loadingInvite, false)

	res := fetch[struct{}](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          apisvc.CourseSendInvitation,
		Query:         apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID.Int)},
		Form:          form,
		SuccessNotice: "Invitation sent successfully",
	})
	if res.Outcome != apisvc.TransportFailed {
		p.mu.Lock()
		p.invitationOpen = false
		p.mu.Unlock()
	}
	return res.Err
}

// CloseInvite closes the invitation modal and forgets its form and course.
func (p *CoursePage) CloseInvite() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invitationOpen = false
	p.inviteForm = formState{}
	p.courseID = null.Int{}
}

func (p *CoursePage) setLoading(flag *bool, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*flag = on
}

func (p *CoursePage) Role() string {
	return p.role
}

func (p *CoursePage) AllCourses() []school.Course {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.allCourses)
}

// Courses returns the courses of the current status tab.
func (p *CoursePage) Courses() []school.Course {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.courses)
}

func (p *CoursePage) CourseStatus() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.courseStatus
}

// ViewOn reports whether the list (rather than the creation form) is shown.
func (p *CoursePage) ViewOn() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.viewOn
}

// CourseForm returns a copy of the creation form, nil when none is loaded.
func (p *CoursePage) CourseForm() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.createForm.form.Clone()
}

func (p *CoursePage) CourseFormHTML() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.createForm.html
}

// InvitationForm returns a copy of the invitation form, nil when none is loaded.
func (p *CoursePage) InvitationForm() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inviteForm.form.Clone()
}

func (p *CoursePage) InvitationOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.invitationOpen
}

// Loading reports the create and invite loading flags.
func (p *CoursePage) Loading() (create, invite bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadingCreate, p.loadingInvite
}

func (p *CoursePage) SelectedCourse() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.courseID
}
