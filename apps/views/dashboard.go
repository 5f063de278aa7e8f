package views

import (
	"context"
	"encoding/json"

	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
)

type (
	// Dashboard is the home page: today's schedule, the upcoming session and the category chart.
	Dashboard struct {
		Deps
		state
		role     string
		initOnce once

		courses         []school.Course
		schedule        []school.ScheduleEvent
		upcomingSession *school.Session
		upcomingCourse  *school.Course
		courseID        null.Int
		students        []school.Student
		studentID       null.Int
		catScores       school.Series
	}

	upcomingPayload struct {
		Session json.RawMessage `json:"session"`
		Course  json.RawMessage `json:"course"`
	}
)

func NewDashboard(d Deps, role string) *Dashboard {
	return &Dashboard{Deps: d, role: role}
}

// Init fetches the courses, the schedule and the upcoming session, once.
func (p *Dashboard) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	var g errgroup.Group
	g.Go(func() error { return p.FetchCourses(ctx) })
	g.Go(func() error { return p.FetchSchedule(ctx) })
	g.Go(func() error { return p.FetchUpcomingSession(ctx) })
	return g.Wait()
}

func (p *Dashboard) FetchSchedule(ctx context.Context) error {
	tok := p.begin(sliceSchedule, nil)
	res := fetch[[]school.ScheduleEvent](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.DashboardSchedule,
		Key:       "schedule",
		OnFailure: apisvc.Policy{Silent: true},
	})
	if !p.apply(sliceSchedule, tok, func() {
		if res.OK() {
			p.schedule = res.Data
		}
	}) {
		p.stale(sliceSchedule, tok)
		return nil
	}
	return res.Err
}

func (p *Dashboard) FetchUpcomingSession(ctx context.Context) error {
	tok := p.begin(sliceUpcoming, nil)
	res := fetch[upcomingPayload](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.DashboardUpcomingSession,
		OnFailure: apisvc.Policy{Default: "Error fetching upcoming session data"},
	})
	if !res.OK() {
		return res.Err
	}

	// the server sends `[]` for both when nothing is planned
	var (
		session school.Session
		course  school.Course
	)
	hasSession, err := school.DecodeOptional(res.Data.Session, &session)
	if err != nil {
		p.Logger.Error("decoding upcoming session", err)
		return err
	}
	hasCourse, err := school.DecodeOptional(res.Data.Course, &course)
	if err != nil {
		p.Logger.Error("decoding upcoming course", err)
		return err
	}

	if !p.apply(sliceUpcoming, tok, func() {
		p.upcomingSession, p.upcomingCourse = nil, nil
		if hasSession {
			p.upcomingSession = &session
		}
		if hasCourse {
			p.upcomingCourse = &course
		}
	}) {
		p.stale(sliceUpcoming, tok)
	}
	return nil
}

// FetchCourses loads the courses and selects the first one: students get its
// scores, teachers its students.
func (p *Dashboard) FetchCourses(ctx context.Context) error {
	tok := p.begin(sliceCourses, nil)
	res := fetch[[]school.Course](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.PrefixDashboard + apisvc.GetCourses,
		Key:       "courses",
		OnFailure: apisvc.Policy{Silent: true},
	})

	var first null.Int
	if !p.apply(sliceCourses, tok, func() {
		if !res.OK() {
			return
		}
		p.courses = res.Data
		if len(p.courses) > 0 {
			first = null.IntFrom(p.courses[0].ID)
			p.courseID = first
		}
	}) {
		p.stale(sliceCourses, tok)
		return nil
	}
	if !first.Valid {
		return res.Err
	}

	switch p.role {
	case school.RoleStudent:
		return p.FetchCourseScores(ctx, first.Int, null.Int{})
	case school.RoleTeacher:
		return p.FetchStudents(ctx, first.Int)
	}
	return nil
}

// FetchStudents loads the students of a course and shows the scores of the first one.
func (p *Dashboard) FetchStudents(ctx context.Context, courseID int) error {
	tok := p.begin(sliceStudents, func() {
		p.students = nil
		p.studentID = null.Int{}
	})
	res := fetch[[]school.Student](ctx, p.Deps, apisvc.Call{
		Path:  apisvc.PrefixDashboard + apisvc.GetStudents,
		Query: apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)},
		Key:   "students",
	})

	var first null.Int
	if !p.apply(sliceStudents, tok, func() {
		if !res.OK() {
			return
		}
		p.students = res.Data
		if len(p.students) > 0 {
			first = null.IntFrom(p.students[0].ID)
			p.studentID = first
		}
	}) {
		p.stale(sliceStudents, tok)
		return nil
	}

	switch {
	case first.Valid:
		return p.FetchCourseScores(ctx, courseID, first)
	case res.Outcome != apisvc.TransportFailed:
		p.ClearChart()
	}
	return res.Err
}

// FetchCourseScores draws the category chart of a course, for one student when
// a teacher picked one.
func (p *Dashboard) FetchCourseScores(ctx context.Context, courseID int, studentID null.Int) error {
	tok := p.begin(sliceScores, func() {
		if !p.courseID.Valid || p.courseID.Int != courseID {
			p.ClearChart()
		}
		p.courseID = null.IntFrom(courseID)
		p.studentID = studentID
		p.catScores = nil
	})

	q := apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)}
	if p.role == school.RoleTeacher && studentID.Valid {
		q[apisvc.ParamStudentID] = apisvc.ID(studentID.Int)
	}
	res := fetch[school.ScorePayload](ctx, p.Deps, apisvc.Call{
		Path:         apisvc.PrefixDashboard + apisvc.GetStudentScores,
		Query:        q,
		Key:          "scores",
		StrictStatus: true,
		OnFailure:    apisvc.Policy{Silent: true},
	})

	var err error
	if !p.apply(sliceScores, tok, func() {
		switch {
		case res.OK():
			p.catScores = res.Data.CatScores
			if len(p.catScores) == 0 {
				p.ClearChart()
				return
			}
			if p.Charts != nil {
				_, err = p.Charts.Render(chartsvc.DashboardConfig(), res.Data)
			}
		case res.Outcome == apisvc.Failed:
			p.ClearChart()
		}
	}) {
		p.stale(sliceScores, tok)
		return nil
	}
	if err != nil {
		return err
	}
	return res.Err
}

// ClearChart replaces a drawn category chart with the "no scores" text.
func (p *Dashboard) ClearChart() {
	if p.Charts != nil && p.Charts.Instance(chartsvc.CategoryChart) != nil {
		p.Charts.Clear(chartsvc.CategoryChart)
	}
}

// TaskClass is the badge class of a schedule event kind.
func (p *Dashboard) TaskClass(kind string) string {
	return school.KindClass(kind)
}

func (p *Dashboard) Role() string {
	return p.role
}

func (p *Dashboard) Courses() []school.Course {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.courses)
}

func (p *Dashboard) Schedule() []school.ScheduleEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.schedule)
}

// UpcomingSession returns the next session and its course, nil when none is planned.
func (p *Dashboard) UpcomingSession() (*school.Session, *school.Course) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var (
		s *school.Session
		c *school.Course
	)
	if p.upcomingSession != nil {
		cp := *p.upcomingSession
		s = &cp
	}
	if p.upcomingCourse != nil {
		cp := *p.upcomingCourse
		c = &cp
	}
	return s, c
}

func (p *Dashboard) SelectedCourse() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.courseID
}

func (p *Dashboard) Students() []school.Student {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.students)
}

func (p *Dashboard) SelectedStudent() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.studentID
}

func (p *Dashboard) CatScores() school.Series {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.catScores)
}
