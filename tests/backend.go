package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Hoomanxj/eztutor/core/school"
)

const SessionCookie = "session"

type (
	// Fixtures is the data the fake backend serves.
	Fixtures struct {
		Courses     []school.Course
		Students    map[int][]school.Student
		Assignments map[string][]school.Assignment // by ScoreKey
		Sessions    map[int][]school.Session
		// Scores holds raw `scores` payloads so key order is kept, by ScoreKey.
		Scores map[string]string

		Schedule        []school.ScheduleEvent
		UpcomingSession *school.Session
		UpcomingCourse  *school.Course

		ClassSchedule []school.ClassSchedule
		CustomTasks   []school.CustomTask
		AllSchedule   []school.ScheduleEvent

		// Forms holds the markup returned by the form endpoints, by path.
		Forms map[string]string
	}

	// Request is what the backend recorded of an incoming request.
	Request struct {
		Method string
		Path   string
		Query  url.Values
		Form   url.Values
		Files  map[string]string // field name -> file name
		Cookie string
	}

	// Backend is an in-process stand-in for the portal server. Every route answers
	// from Fixtures unless overridden with Handle.
	Backend struct {
		URL string

		app      *echo.Echo
		srv      *httptest.Server
		mu       sync.Mutex
		fx       Fixtures
		handlers map[string]echo.HandlerFunc
		hooks    map[string][]func(Request)
		requests []Request
	}
)

// ScoreKey indexes per course/student fixtures; students use studentID 0.
func ScoreKey(courseID, studentID int) string {
	return fmt.Sprintf("%d/%d", courseID, studentID)
}

func NewBackend(t *testing.T, fx ...Fixtures) *Backend {
	b := &Backend{
		app:      echo.New(),
		handlers: make(map[string]echo.HandlerFunc),
		hooks:    make(map[string][]func(Request)),
	}
	if len(fx) > 0 {
		b.fx = fx[0]
	} else {
		b.fx = DefaultFixtures()
	}
	b.setup()
	b.srv = httptest.NewServer(b.app)
	b.URL = b.srv.URL
	t.Cleanup(b.srv.Close)
	return b
}

func (b *Backend) setup() {
	b.app.HideBanner = true
	b.app.HTTPErrorHandler = envelopeErrorHandler
	b.app.Any("/*", b.dispatch)

	for _, prefix := range []string{"/dashboard", "/course", "/assignment", "/session", "/analytics"} {
		b.handlers[prefix+"/get_courses"] = b.getCourses
	}
	for _, prefix := range []string{"/dashboard", "/assignment", "/analytics"} {
		b.handlers[prefix+"/get_students"] = b.getStudents
	}
	for _, prefix := range []string{"/dashboard", "/analytics"} {
		b.handlers[prefix+"/get_student_scores"] = b.getScores
	}

	b.handlers["/dashboard/get_schedule"] = func(c echo.Context) error {
		return ok(c, echo.Map{"schedule": nonNil(b.fixtures().Schedule)})
	}
	b.handlers["/dashboard/get_upcoming_session"] = func(c echo.Context) error {
		fx := b.fixtures()
		if fx.UpcomingSession == nil {
			return ok(c, echo.Map{"message": "No session or course was found", "session": []int{}, "course": []int{}})
		}
		return ok(c, echo.Map{"session": fx.UpcomingSession, "course": fx.UpcomingCourse})
	}

	b.handlers["/calendar/get_class_schedule"] = func(c echo.Context) error {
		return ok(c, echo.Map{"class_schedule": nonNil(b.fixtures().ClassSchedule)})
	}
	b.handlers["/calendar/get_custom_schedule"] = func(c echo.Context) error {
		return ok(c, echo.Map{"custom_schedule": nonNil(b.fixtures().CustomTasks)})
	}
	b.handlers["/calendar/get_all_schedule"] = func(c echo.Context) error {
		return ok(c, echo.Map{"all_schedule": nonNil(b.fixtures().AllSchedule)})
	}
	b.handlers["/calendar/add_task"] = func(c echo.Context) error {
		if c.FormValue("date") == "" {
			return fail(c, http.StatusNotFound, "Date for the custom task could not be determined")
		}
		return ok(c, echo.Map{"message": "Custom task successfully created"})
	}

	b.handlers["/course/submit_form"] = func(c echo.Context) error {
		return ok(c, echo.Map{"message": "Course was successfully created"})
	}
	b.handlers["/course/send_invitation"] = func(c echo.Context) error {
		if c.QueryParam("course_id") == "" {
			return fail(c, http.StatusNotFound, "Course ID could not be found")
		}
		return ok(c, echo.Map{"message": "Invitation was sent"})
	}

	b.handlers["/assignment/get_assignments"] = b.getAssignments
	for _, path := range []string{"/assignment/create_assignment", "/assignment/submit_assignment", "/assignment/score_assignment"} {
		b.handlers[path] = func(c echo.Context) error {
			return ok(c, echo.Map{"message": "Form was submitted"})
		}
	}

	b.handlers["/session/get_sessions"] = func(c echo.Context) error {
		id, _ := strconv.Atoi(c.QueryParam("course_id"))
		return ok(c, echo.Map{"sessions": nonNil(b.fixtures().Sessions[id])})
	}
	b.handlers["/session/update_session_info"] = func(c echo.Context) error {
		return ok(c, echo.Map{"message": "Session info was updated"})
	}

	b.handlers["/auth/log_user_in"] = func(c echo.Context) error {
		if c.FormValue("email") == "" || c.FormValue("password") == "" {
			return fail(c, http.StatusBadRequest, "Invalid email or password")
		}
		c.SetCookie(&http.Cookie{Name: SessionCookie, Value: "s3cr3t", Path: "/"})
		return ok(c, echo.Map{"message": "Welcome back!", "redirect_url": "/dashboard/dashboard_home"})
	}
	b.handlers["/auth/register_user"] = func(c echo.Context) error {
		if c.QueryParam("user_type") == "" {
			return fail(c, http.StatusNotFound, "User type could not be determined")
		}
		return ok(c, echo.Map{"message": "Successfully registered"})
	}

	for _, path := range []string{
		"/calendar/get_task_form",
		"/course/course_form",
		"/course/get_invite_form",
		"/assignment/get_form",
		"/session/get_session_info",
		"/auth/get_login_form",
		"/auth/get_register_form",
	} {
		path := path
		b.handlers[path] = func(c echo.Context) error {
			html, found := b.fixtures().Forms[path]
			if !found {
				return fail(c, http.StatusNotFound, "Form could not be found")
			}
			return ok(c, echo.Map{"html": html})
		}
	}
}

func (b *Backend) fixtures() Fixtures {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fx
}

// SetFixtures swaps the served data.
func (b *Backend) SetFixtures(fx Fixtures) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fx = fx
}

// Handle overrides the route at path.
func (b *Backend) Handle(path string, h echo.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

// Reply makes path answer status with body.
func (b *Backend) Reply(path string, status int, body interface{}) {
	b.Handle(path, func(c echo.Context) error {
		if s, ok := body.(string); ok {
			return c.Blob(status, echo.MIMEApplicationJSONCharsetUTF8, []byte(s))
		}
		return c.JSON(status, body)
	})
}

// OnRequest runs hook before the route at path answers.
func (b *Backend) OnRequest(path string, hook func(Request)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[path] = append(b.hooks[path], hook)
}

// Hold blocks every answer of path until the returned func is called.
func (b *Backend) Hold(path string) (release func()) {
	ch := make(chan struct{})
	var once sync.Once
	b.OnRequest(path, func(Request) { <-ch })
	return func() { once.Do(func() { close(ch) }) }
}

// Requests lists the recorded requests of path, all of them when path is blank.
func (b *Backend) Requests(path string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Request
	for _, r := range b.requests {
		if path == "" || r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) dispatch(c echo.Context) error {
	req := record(c)

	b.mu.Lock()
	b.requests = append(b.requests, req)
	h := b.handlers[req.Path]
	hooks := append([]func(Request){}, b.hooks[req.Path]...)
	b.mu.Unlock()

	for _, hook := range hooks {
		hook(req)
	}
	if h == nil {
		return echo.ErrNotFound
	}
	return h(c)
}

func record(c echo.Context) Request {
	r := c.Request()
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Files:  map[string]string{},
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		req.Cookie = cookie.Value
	}
	if r.Method == http.MethodPost {
		if form, err := c.MultipartForm(); err == nil {
			req.Form = url.Values(form.Value)
			for name, fhs := range form.File {
				if len(fhs) > 0 {
					req.Files[name] = fhs[0].Filename
				}
			}
		}
	}
	return req
}

func (b *Backend) getCourses(c echo.Context) error {
	courses := b.fixtures().Courses
	if len(courses) == 0 {
		return ok(c, echo.Map{"message": "No courses were found", "courses": []school.Course{}})
	}
	return ok(c, echo.Map{"courses": courses})
}

func (b *Backend) getStudents(c echo.Context) error {
	id, _ := strconv.Atoi(c.QueryParam("course_id"))
	if id == 0 {
		return fail(c, http.StatusNotFound, "Course ID could not be found")
	}
	students := b.fixtures().Students[id]
	if len(students) == 0 {
		return fail(c, http.StatusNotFound, "No students in this course")
	}
	return ok(c, echo.Map{"students": students})
}

func (b *Backend) getScores(c echo.Context) error {
	courseID, _ := strconv.Atoi(c.QueryParam("course_id"))
	if courseID == 0 {
		return fail(c, http.StatusNotFound, "Course ID could not be found")
	}
	studentID, _ := strconv.Atoi(c.QueryParam("student_id"))
	raw, found := b.fixtures().Scores[ScoreKey(courseID, studentID)]
	if !found {
		raw = "[]"
	}
	return ok(c, echo.Map{"scores": json.RawMessage(raw)})
}

func (b *Backend) getAssignments(c echo.Context) error {
	courseID, _ := strconv.Atoi(c.QueryParam("course_id"))
	if courseID == 0 {
		return fail(c, http.StatusNotFound, "Course ID was not found to fetch assignments")
	}
	studentID, _ := strconv.Atoi(c.QueryParam("student_id"))
	return ok(c, echo.Map{"assignments": nonNil(b.fixtures().Assignments[ScoreKey(courseID, studentID)])})
}

func ok(c echo.Context, payload echo.Map) error {
	payload["success"] = true
	return c.JSON(http.StatusOK, payload)
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"success": false, "message": msg})
}

// envelopeErrorHandler answers every unhandled error with the `{success, message}` envelope.
func envelopeErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if herr, ok := err.(*echo.HTTPError); ok {
		code = herr.Code
		msg = fmt.Sprint(herr.Message)
	}
	if !c.Response().Committed {
		_ = fail(c, code, msg)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
