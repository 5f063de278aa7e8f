package views

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/notifier"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
)

// assignment form types, read from the hidden `form_type` input
const (
	FormCreate = "create"
	FormSubmit = "submit"
	FormScore  = "score"
)

type (
	// ModalArgs are the context parameters of an assignment form; unset ones are not sent.
	ModalArgs struct {
		CourseID     null.Int
		FormType     null.String
		Category     null.String
		AssignmentID null.Int
		StudentID    null.Int
	}

	// AssignmentPage lists the assignments of a course (per student for teachers)
	// and drives the create, submit and score modal.
	AssignmentPage struct {
		Deps
		state
		role     string
		initOnce once

		courses             []school.Course
		courseID            null.Int
		selectedCourse      *school.Course
		students            []school.Student
		studentID           null.Int
		assignments         []school.Assignment
		selectedAssignments []school.Assignment
		activeTab           string
		modalOpen           bool
		formType            null.String
		category            null.String
		assignmentID        null.Int
		modal               formState
		loading             bool
	}
)

func NewAssignmentPage(d Deps, role string) *AssignmentPage {
	return &AssignmentPage{Deps: d, role: role, activeTab: school.AssignmentPending}
}

func (p *AssignmentPage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.FetchCourses(ctx)
}

// FetchCourses loads the courses; the first one is opened unless a course is already selected.
func (p *AssignmentPage) FetchCourses(ctx context.Context) error {
	tok := p.begin(sliceCourses, func() { p.courses = nil })
	res := fetch[[]school.Course](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.PrefixAssignment + apisvc.GetCourses,
		Key:       "courses",
		OnFailure: apisvc.Policy{Silent: true},
	})

	var first null.Int
	if !p.apply(sliceCourses, tok, func() {
		if !res.OK() {
			return
		}
		p.courses = res.Data
		if !p.courseID.Valid && len(p.courses) > 0 {
			first = null.IntFrom(p.courses[0].ID)
			p.courseID = first
		}
	}) {
		p.stale(sliceCourses, tok)
		return nil
	}
	if first.Valid {
		return p.FetchCourseData(ctx, first.Int)
	}
	return res.Err
}

// FetchCourseData selects a course: teachers get its students, students their assignments.
func (p *AssignmentPage) FetchCourseData(ctx context.Context, courseID int) error {
	p.mu.Lock()
	p.students = nil
	p.assignments = nil
	p.selectedAssignments = nil
	p.courseID = null.IntFrom(courseID)
	p.selectedCourse = findCourse(p.courses, courseID)
	found := p.selectedCourse != nil
	p.mu.Unlock()

	if !found {
		return nil
	}
	switch p.role {
	case school.RoleTeacher:
		return p.FetchStudents(ctx, courseID)
	case school.RoleStudent:
		return p.FetchAssignments(ctx, courseID, null.Int{})
	}
	return nil
}

// FetchStudents loads the students of a course and the assignments of the first one.
func (p *AssignmentPage) FetchStudents(ctx context.Context, courseID int) error {
	const none = "No students found for this course"

	tok := p.begin(sliceStudents, func() {
		p.students = nil
		p.assignments = nil
		p.selectedAssignments = nil
		p.studentID = null.Int{}
	})
	res := fetch[[]school.Student](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.PrefixAssignment + apisvc.GetStudents,
		Query:     apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)},
		Key:       "students",
		OnFailure: apisvc.Policy{Severity: notifier.Info, Default: none},
	})

	var first null.Int
	if !p.apply(sliceStudents, tok, func() {
		if res.OK() && len(res.Data) > 0 {
			p.students = res.Data
			first = null.IntFrom(p.students[0].ID)
			p.studentID = first
		}
	}) {
		p.stale(sliceStudents, tok)
		return nil
	}

	if first.Valid {
		return p.FetchAssignments(ctx, courseID, first)
	}
	if res.OK() {
		p.Notifier.Add(core.FirstNonEmpty(res.Message, none), notifier.Info)
	}
	return res.Err
}

// FetchAssignments loads the assignments of a course (of one student for teachers)
// and shows the pending ones.
func (p *AssignmentPage) FetchAssignments(ctx context.Context, courseID int, studentID null.Int) error {
	tok := p.begin(sliceAssignments, func() {
		p.assignments = nil
		p.selectedAssignments = nil
	})

	q := apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)}
	if p.role == school.RoleTeacher {
		q[apisvc.ParamStudentID] = nullID(studentID)
	}
	res := fetch[[]school.Assignment](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.AssignmentList,
		Query:     q,
		Key:       "assignments",
		OnFailure: apisvc.Policy{Severity: notifier.Info, Default: "No assignments found for this course"},
		Transport: "Network error while fetching assignments",
	})

	var empty bool
	if !p.apply(sliceAssignments, tok, func() {
		if !res.OK() {
			return
		}
		p.assignments = res.Data
		p.showAssignments(school.AssignmentPending)
		empty = len(p.assignments) == 0
	}) {
		p.stale(sliceAssignments, tok)
		return nil
	}
	if empty {
		p.Notifier.Add("No assignments found for the selected course", notifier.Info)
	}
	return res.Err
}

// ShowAssignments switches the tab to status.
func (p *AssignmentPage) ShowAssignments(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showAssignments(status)
}

func (p *AssignmentPage) showAssignments(status string) {
	p.activeTab = status
	p.selectedAssignments = []school.Assignment{}
	for _, a := range p.assignments {
		if a.Status == status {
			p.selectedAssignments = append(p.selectedAssignments, a)
		}
	}
}

// OpenModal records args and loads the matching form; the modal opens once it arrived.
func (p *AssignmentPage) OpenModal(ctx context.Context, args ModalArgs) error {
	tok := p.begin(sliceForm, func() {
		p.courseID = args.CourseID
		p.formType = args.FormType
		p.category = args.Category
		p.assignmentID = args.AssignmentID
		p.studentID = args.StudentID
	})

	q := apisvc.Query{
		apisvc.ParamCourseID:     nullID(args.CourseID),
		apisvc.ParamFormType:     args.FormType.String,
		apisvc.ParamCategory:     args.Category.String,
		apisvc.ParamAssignmentID: nullID(args.AssignmentID),
		apisvc.ParamStudentID:    nullID(args.StudentID),
	}
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path:  apisvc.AssignmentForm,
		Query: q,
		Key:   "html",
	})

	var err error
	if !p.apply(sliceForm, tok, func() {
		if !res.OK() {
			p.closeModal()
			return
		}
		var st formState
		if st, err = parseForm(p.Deps, res.Data, ""); err != nil {
			p.closeModal()
			return
		}
		p.modal = st
		p.modalOpen = true
	}) {
		p.stale(sliceForm, tok)
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	return err
}

func (p *AssignmentPage) CloseModal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeModal()
}

func (p *AssignmentPage) closeModal() {
	p.modalOpen = false
	p.modal = formState{}
}

// SubmitForm posts form to the route its hidden form_type names, with the ids of
// the modal's context appended, then closes the modal.
func (p *AssignmentPage) SubmitForm(ctx context.Context, form *forms.Form) error {
	p.setLoading(true)
	defer p.setLoading(false)

	p.mu.RLock()
	courseID, assignmentID, studentID := p.courseID, p.assignmentID, p.studentID
	p.mu.RUnlock()

	body := form.Clone()
	if body == nil {
		body = forms.New()
	}
	var path string
	switch formType := body.Get(apisvc.ParamFormType); formType {
	case FormCreate:
		path = apisvc.AssignmentCreate
		body.Append(apisvc.ParamCourseID, nullID(courseID))
	case FormSubmit:
		path = apisvc.AssignmentSubmit
		body.Append(apisvc.ParamAssignmentID, nullID(assignmentID))
	case FormScore:
		path = apisvc.AssignmentScore
		body.Append(apisvc.ParamAssignmentID, nullID(assignmentID))
		body.Append(apisvc.ParamStudentID, nullID(studentID))
	default:
		return errors.Wrapf(ErrUnknownFormType, "%q", formType)
	}

	res := fetch[struct{}](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          path,
		Form:          body,
		SuccessNotice: "Form was successfully submitted",
	})
	p.CloseModal()
	p.setLoading(false)
	if !res.OK() {
		return res.Err
	}
	return p.FetchCourses(ctx)
}

func (p *AssignmentPage) setLoading(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = on
}

func (p *AssignmentPage) Role() string {
	return p.role
}

func (p *AssignmentPage) Courses() []school.Course {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.courses)
}

func (p *AssignmentPage) SelectedCourse() (null.Int, *school.Course) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.selectedCourse == nil {
		return p.courseID, nil
	}
	c := *p.selectedCourse
	return p.courseID, &c
}

func (p *AssignmentPage) Students() []school.Student {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.students)
}

func (p *AssignmentPage) SelectedStudent() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.studentID
}

func (p *AssignmentPage) Assignments() []school.Assignment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.assignments)
}

// SelectedAssignments returns the assignments of the active tab.
func (p *AssignmentPage) SelectedAssignments() []school.Assignment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.selectedAssignments)
}

func (p *AssignmentPage) ActiveTab() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeTab
}

func (p *AssignmentPage) ModalOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modalOpen
}

// ModalArgs returns the context the modal was opened with.
func (p *AssignmentPage) ModalArgs() ModalArgs {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ModalArgs{
		CourseID:     p.courseID,
		FormType:     p.formType,
		Category:     p.category,
		AssignmentID: p.assignmentID,
		StudentID:    p.studentID,
	}
}

// Form returns a copy of the modal's form, nil when the modal is closed.
func (p *AssignmentPage) Form() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modal.form.Clone()
}

func (p *AssignmentPage) FormHTML() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modal.html
}

func (p *AssignmentPage) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}
