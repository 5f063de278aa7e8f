package views

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
)

// AnalyticsPage draws the category and skill charts of a course.
type AnalyticsPage struct {
	Deps
	state
	role     string
	initOnce once

	courses   []school.Course
	courseID  null.Int
	students  []school.Student
	studentID null.Int
	scores    school.ScorePayload
	configs   []chartsvc.Config
}

func NewAnalyticsPage(d Deps, role string) *AnalyticsPage {
	return &AnalyticsPage{Deps: d, role: role, configs: chartsvc.AnalyticsConfigs()}
}

func (p *AnalyticsPage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.FetchCourses(ctx)
}

// FetchCourses loads the courses and selects the first one: students get its
// scores, teachers its students.
func (p *AnalyticsPage) FetchCourses(ctx context.Context) error {
	tok := p.begin(sliceCourses, func() {
		p.courses = nil
		p.courseID = null.Int{}
	})
	res := fetch[[]school.Course](ctx, p.Deps, apisvc.Call{
		Path: apisvc.PrefixAnalytics + apisvc.GetCourses,
		Key:  "courses",
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
		if res.Outcome != apisvc.TransportFailed {
			p.ClearAllCharts()
		}
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

// FetchStudents loads the students of a course and the scores of the first one.
func (p *AnalyticsPage) FetchStudents(ctx context.Context, courseID int) error {
	tok := p.begin(sliceStudents, func() {
		p.courseID = null.IntFrom(courseID)
		p.students = nil
		p.studentID = null.Int{}
		p.scores = school.ScorePayload{}
	})
	res := fetch[[]school.Student](ctx, p.Deps, apisvc.Call{
		Path:  apisvc.PrefixAnalytics + apisvc.GetStudents,
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

	if first.Valid {
		return p.FetchCourseScores(ctx, courseID, first)
	}
	p.ClearAllCharts()
	return res.Err
}

// FetchCourseScores draws every chart from the scores of a course, for one
// student when a teacher picked one. Course 0 means no course and clears the charts.
func (p *AnalyticsPage) FetchCourseScores(ctx context.Context, courseID int, studentID null.Int) error {
	if courseID == 0 {
		p.ClearAllCharts()
		return nil
	}
	tok := p.begin(sliceScores, func() {
		p.courseID = null.IntFrom(courseID)
		p.studentID = studentID
		p.scores = school.ScorePayload{}
	})

	q := apisvc.Query{apisvc.ParamCourseID: apisvc.ID(courseID)}
	if p.role == school.RoleTeacher && studentID.Valid {
		q[apisvc.ParamStudentID] = apisvc.ID(studentID.Int)
	}
	res := fetch[school.ScorePayload](ctx, p.Deps, apisvc.Call{
		Path:         apisvc.PrefixAnalytics + apisvc.GetStudentScores,
		Query:        q,
		Key:          "scores",
		StrictStatus: true,
	})

	if !p.apply(sliceScores, tok, func() {
		if res.OK() {
			p.scores = res.Data
		}
	}) {
		p.stale(sliceScores, tok)
		return nil
	}

	if res.OK() && !res.Data.Empty() {
		p.RenderAllCharts()
		return nil
	}
	p.ClearAllCharts()
	return res.Err
}

// RenderAllCharts draws every chart config from the current scores.
func (p *AnalyticsPage) RenderAllCharts() {
	if p.Deps.Charts == nil {
		return
	}
	p.mu.RLock()
	scores, configs := p.scores, p.configs
	p.mu.RUnlock()
	p.Deps.Charts.RenderAll(configs, scores)
}

// ClearAllCharts destroys every chart and leaves the placeholder text on their canvases.
func (p *AnalyticsPage) ClearAllCharts() {
	if p.Deps.Charts != nil {
		p.Deps.Charts.ClearAll()
	}
}

// Charts returns the renderer holding the live charts.
func (p *AnalyticsPage) Charts() *chartsvc.Renderer {
	return p.Deps.Charts
}

func (p *AnalyticsPage) Role() string {
	return p.role
}

func (p *AnalyticsPage) Courses() []school.Course {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.courses)
}

func (p *AnalyticsPage) SelectedCourse() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.courseID
}

func (p *AnalyticsPage) Students() []school.Student {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.students)
}

func (p *AnalyticsPage) SelectedStudent() null.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.studentID
}

// Scores returns the last score payload received.
func (p *AnalyticsPage) Scores() school.ScorePayload {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scores
}

func (p *AnalyticsPage) ChartConfigs() []chartsvc.Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.configs)
}
