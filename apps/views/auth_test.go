package views

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
	"github.com/Hoomanxj/eztutor/tests"
)

func TestLoginPage_LogUserIn(t *testing.T) {
	delays := syncRedirects(t)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewLoginPage(e.deps)
	ctx := context.Background()

	require.NoError(t, p.Init(ctx))
	require.NoError(t, p.Init(ctx))
	assert.Len(t, e.backend.Requests(apisvc.AuthLoginForm), 1)

	form := p.Form()
	require.NotNil(t, form)
	require.NoError(t, form.Set("email", "teacher@school.io"))
	require.NoError(t, form.Set("password", "hunter2"))

	require.NoError(t, p.LogUserIn(ctx, form))
	assert.Equal(t, []string{"success: Welcome back!"}, e.messages())
	assert.Equal(t, []string{"/dashboard/dashboard_home"}, e.nav.URLs())
	assert.Equal(t, []time.Duration{e.deps.Conf.RedirectDelay}, *delays)

	// the session cookie rides along from now on
	require.NoError(t, NewCoursePage(e.deps, school.RoleTeacher).FetchCourses(ctx))
	reqs := e.backend.Requests(apisvc.PrefixCourse + apisvc.GetCourses)
	require.Len(t, reqs, 1)
	assert.Equal(t, "s3cr3t", reqs[0].Cookie)
}

func TestLoginPage_LogUserIn_rejected(t *testing.T) {
	delays := syncRedirects(t)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewLoginPage(e.deps)
	require.NoError(t, p.Init(context.Background()))

	require.Error(t, p.LogUserIn(context.Background(), p.Form()))
	assert.Equal(t, []string{"error: Invalid email or password"}, e.messages())
	assert.Empty(t, e.nav.URLs())
	assert.Empty(t, *delays)
}

func TestLoginPage_LogUserIn_defaultRedirect(t *testing.T) {
	syncRedirects(t)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	e.backend.Reply(apisvc.AuthLogIn, http.StatusOK, `{"success":true}`)
	e.deps.Conf.DefaultRedirect = "/home"
	p := NewLoginPage(e.deps)

	require.NoError(t, p.LogUserIn(context.Background(), nil))
	assert.Equal(t, []string{"success: You were successfully logged in; redirecting..."}, e.messages())
	assert.Equal(t, []string{"/home"}, e.nav.URLs())
}

func TestLoginPage_FetchForm_silent(t *testing.T) {
	fx := testutil.DefaultFixtures()
	delete(fx.Forms, apisvc.AuthLoginForm)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder, fx)
	p := NewLoginPage(e.deps)

	require.Error(t, p.Init(context.Background()))
	assert.Nil(t, p.Form())
	assert.Empty(t, e.messages())
}

func TestRegisterPage_FetchForm(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewRegisterPage(e.deps)
	ctx := context.Background()

	require.NoError(t, p.Init(ctx))
	assert.Equal(t, school.RoleTeacher, p.UserType())
	teacher, student := p.Showing()
	assert.True(t, teacher)
	assert.False(t, student)
	assert.NotNil(t, p.Form().Field("website"))

	require.NoError(t, p.FetchForm(ctx, school.RoleTeacher))
	assert.Len(t, e.backend.Requests(apisvc.AuthRegisterForm), 1, "the current type is not refetched")

	require.NoError(t, p.FetchForm(ctx, school.RoleStudent))
	reqs := e.backend.Requests(apisvc.AuthRegisterForm)
	require.Len(t, reqs, 2)
	assert.Equal(t, school.RoleStudent, reqs[1].Query.Get(apisvc.ParamUserType))
	teacher, student = p.Showing()
	assert.False(t, teacher)
	assert.True(t, student)
	assert.Equal(t, "student-form", p.Form().ID)
	assert.Nil(t, p.Form().Field("website"))

	p.ShowForm(school.RoleTeacher)
	teacher, student = p.Showing()
	assert.True(t, teacher)
	assert.False(t, student)
}

func TestRegisterPage_RegisterUser(t *testing.T) {
	syncRedirects(t)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewRegisterPage(e.deps)
	ctx := context.Background()
	require.NoError(t, p.Init(ctx))

	form := p.Form()
	require.NoError(t, form.Set("name", "Mina"))
	require.NoError(t, form.Set("email", "mina@school.io"))
	require.NoError(t, form.Set("password", "pw"))

	require.NoError(t, p.RegisterUser(ctx, school.RoleTeacher, form))
	reqs := e.backend.Requests(apisvc.AuthRegister)
	require.Len(t, reqs, 1)
	assert.Equal(t, school.RoleTeacher, reqs[0].Query.Get(apisvc.ParamUserType))
	assert.Equal(t, "Mina", reqs[0].Form.Get("name"))

	assert.Equal(t, []string{"success: Successfully registered"}, e.messages())
	assert.Equal(t, []string{"/dashboard.dashboard_home"}, e.nav.URLs())
}

func TestRegisterPage_RegisterUser_rejected(t *testing.T) {
	syncRedirects(t)
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	e.backend.Reply(apisvc.AuthRegister, http.StatusOK, `{"success":false}`)
	p := NewRegisterPage(e.deps)

	require.Error(t, p.RegisterUser(context.Background(), school.RoleStudent, nil))
	assert.Equal(t, []string{"error: Error in registration"}, e.messages())
	assert.Empty(t, e.nav.URLs())
}
