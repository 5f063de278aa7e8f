package views

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core/notifier"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
	"github.com/Hoomanxj/eztutor/tests"
)

type fakeNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *fakeNavigator) Navigate(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func (n *fakeNavigator) URLs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

type testEnv struct {
	backend *testutil.Backend
	notes   *notifier.Notifier
	nav     *fakeNavigator
	deps    Deps
}

func newEnv(t *testing.T, ph chartsvc.Placeholder, fx ...testutil.Fixtures) *testEnv {
	b := testutil.NewBackend(t, fx...)
	conf := testutil.Config(t, b.URL)
	logger := testutil.NewLogger(t)

	client, err := apisvc.NewClient(conf, logger)
	require.NoError(t, err)

	notes := notifier.New(notifier.Options{Delay: time.Hour})
	t.Cleanup(notes.Close)

	board := chartsvc.NewBoard(240, 120, chartsvc.IDs(chartsvc.AnalyticsConfigs()...)...)
	nav := &fakeNavigator{}
	return &testEnv{
		backend: b,
		notes:   notes,
		nav:     nav,
		deps: Deps{
			Client:    client,
			Notifier:  notes,
			Charts:    chartsvc.NewRenderer(board, nil, logger, ph),
			Navigator: nav,
			Logger:    logger,
			Conf:      conf,
		},
	}
}

// messages returns the text and severity of every queued message.
func (e *testEnv) messages() []string {
	var out []string
	for _, m := range e.notes.Messages() {
		out = append(out, m.Severity+": "+m.Text)
	}
	return out
}

// syncRedirects runs redirects immediately and records their delays.
func syncRedirects(t *testing.T) *[]time.Duration {
	var delays []time.Duration
	orig := afterFunc
	afterFunc = func(d time.Duration, f func()) {
		delays = append(delays, d)
		f()
	}
	t.Cleanup(func() { afterFunc = orig })
	return &delays
}

func TestState_tokens(t *testing.T) {
	var s state
	cleared := 0
	first := s.begin(sliceCourses, func() { cleared++ })
	second := s.begin(sliceCourses, func() { cleared++ })
	other := s.begin(sliceStudents, nil)

	assert.Equal(t, 2, cleared)
	assert.False(t, s.apply(sliceCourses, first, func() { t.Error("stale token applied") }))

	applied := false
	assert.True(t, s.apply(sliceCourses, second, func() { applied = true }))
	assert.True(t, applied)
	assert.True(t, s.apply(sliceStudents, other, func() {}), "slices are independent")
}

func TestOnce(t *testing.T) {
	var o once
	assert.True(t, o.first())
	assert.False(t, o.first())
	assert.False(t, o.first())
}

func TestNullID(t *testing.T) {
	tests := []struct {
		name string
		id   null.Int
		want string
	}{
		{"unset", null.Int{}, ""},
		{"zero", null.IntFrom(0), "0"},
		{"set", null.IntFrom(42), "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nullID(tt.id); got != tt.want {
				t.Errorf("nullID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindCourse(t *testing.T) {
	courses := []school.Course{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	c := findCourse(courses, 2)
	require.NotNil(t, c)
	assert.Equal(t, "b", c.Name)

	c.Name = "changed"
	assert.Equal(t, "b", courses[1].Name, "a copy is returned")
	assert.Nil(t, findCourse(courses, 3))
}

func TestParseForm(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)

	st, err := parseForm(e.deps, testutil.RegisterFormMarkup, "student-form")
	require.NoError(t, err)
	assert.Equal(t, "student-form", st.form.ID)
	assert.Nil(t, st.form.Field("website"))

	st, err = parseForm(e.deps, testutil.LoginFormMarkup, "missing-form")
	require.NoError(t, err, "falls back to the first form")
	assert.NotNil(t, st.form.Field("email"))

	st, err = parseForm(e.deps, "", "")
	require.NoError(t, err)
	assert.Nil(t, st.form)
}

func TestDeps_redirect(t *testing.T) {
	delays := syncRedirects(t)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)

	e.deps.redirect("/somewhere")
	assert.Equal(t, []string{"/somewhere"}, e.nav.URLs())
	assert.Equal(t, []time.Duration{time.Millisecond}, *delays)

	e.deps.Navigator = nil
	e.deps.redirect("/nowhere")
	assert.Len(t, *delays, 1, "no navigator, no timer")
}

// A response that lost the race against a newer request of the same slice is dropped.
func TestStaleResponseDropped(t *testing.T) {
	fx := testutil.DefaultFixtures()
	fx.Sessions[2] = []school.Session{{ID: 9, Number: 1, Status: school.SessionPending}}
	e := newEnv(t, chartsvc.AnalyticsPlaceholder, fx)

	arrived := make(chan struct{})
	release := make(chan struct{})
	e.backend.OnRequest(apisvc.SessionList, func(r testutil.Request) {
		if r.Query.Get(apisvc.ParamCourseID) == "1" {
			close(arrived)
			<-release
		}
	})

	p := NewSessionPage(e.deps, school.RoleTeacher)
	errc := make(chan error, 1)
	go func() { errc <- p.FetchSessions(context.Background(), 1) }()
	<-arrived

	require.NoError(t, p.FetchSessions(context.Background(), 2))
	close(release)
	require.NoError(t, <-errc)

	sessions := p.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 9, sessions[0].ID, "the older answer must not overwrite the newer one")
}

// Dependent state is cleared before the request leaves, not when the answer arrives.
func TestClearedBeforeRequest(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewAssignmentPage(e.deps, school.RoleTeacher)
	require.NoError(t, p.Init(context.Background()))
	require.NotEmpty(t, p.SelectedAssignments())

	type seen struct {
		students    int
		assignments int
		student     null.Int
	}
	obs := make(chan seen, 1)
	e.backend.OnRequest(apisvc.PrefixAssignment+apisvc.GetStudents, func(testutil.Request) {
		obs <- seen{len(p.Students()), len(p.SelectedAssignments()), p.SelectedStudent()}
	})

	require.NoError(t, p.FetchStudents(context.Background(), 1))
	got := <-obs
	assert.Zero(t, got.students)
	assert.Zero(t, got.assignments)
	assert.False(t, got.student.Valid)
}
