package views

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
)

func TestSessionPage_Init(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewSessionPage(e.deps, school.RoleTeacher)
	ctx := context.Background()

	require.NoError(t, p.Init(ctx))
	require.NoError(t, p.Init(ctx))
	assert.Len(t, e.backend.Requests(apisvc.PrefixSession+apisvc.GetCourses), 1)

	id, course := p.SelectedCourse()
	assert.Equal(t, null.IntFrom(1), id)
	require.NotNil(t, course)
	sessions := p.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, school.SessionHeld, sessions[0].Status)

	reqs := e.backend.Requests(apisvc.SessionList)
	require.Len(t, reqs, 1)
	assert.Equal(t, "1", reqs[0].Query.Get(apisvc.ParamCourseID))
}

func TestSessionPage_FetchCourses_keepsSelection(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewSessionPage(e.deps, school.RoleTeacher)
	ctx := context.Background()
	require.NoError(t, p.Init(ctx))

	require.NoError(t, p.FetchCourseData(ctx, 2))
	assert.Empty(t, p.Sessions())
	require.NoError(t, p.FetchCourses(ctx))

	reqs := e.backend.Requests(apisvc.SessionList)
	require.Len(t, reqs, 3)
	assert.Equal(t, "2", reqs[2].Query.Get(apisvc.ParamCourseID))
}

func TestSessionPage_UpdateSession(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewSessionPage(e.deps, school.RoleTeacher)
	ctx := context.Background()
	require.NoError(t, p.Init(ctx))

	require.NoError(t, p.FetchSessionData(ctx, 7))
	assert.True(t, p.Showing())
	assert.Equal(t, null.IntFrom(7), p.SelectedSession())
	assert.Contains(t, p.FormHTML(), "description")

	form := p.Form()
	require.NotNil(t, form)
	require.NoError(t, form.Set("status", school.SessionCancelled))
	require.NoError(t, form.Set("description", "Teacher ill"))

	require.NoError(t, p.UpdateSession(ctx, form))
	reqs := e.backend.Requests(apisvc.SessionUpdate)
	require.Len(t, reqs, 1)
	assert.Equal(t, "7", reqs[0].Query.Get(apisvc.ParamSessionID))
	assert.Equal(t, school.SessionCancelled, reqs[0].Form.Get("status"))
	assert.Equal(t, "Teacher ill", reqs[0].Form.Get("description"))

	assert.False(t, p.Showing())
	assert.Equal(t, []string{"success: Session info was updated"}, e.messages())
	assert.Len(t, e.backend.Requests(apisvc.SessionList), 2, "the sessions are reloaded")
}

func TestSessionPage_UpdateSession_failure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unsuccessful", http.StatusOK, `{"success":false}`, "error: Session info was not updated"},
		{"server down", http.StatusInternalServerError, `<html>`, "error: Server error: 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, chartsvc.AnalyticsPlaceholder)
			e.backend.Reply(apisvc.SessionUpdate, tt.status, tt.body)
			p := NewSessionPage(e.deps, school.RoleTeacher)
			ctx := context.Background()
			require.NoError(t, p.Init(ctx))
			require.NoError(t, p.FetchSessionData(ctx, 7))

			require.Error(t, p.UpdateSession(ctx, p.Form()))
			assert.False(t, p.Showing(), "the form closes whatever the outcome")
			assert.Equal(t, []string{tt.want}, e.messages())
			assert.Len(t, e.backend.Requests(apisvc.SessionList), 1)
		})
	}
}

func TestSessionPage_FetchSessionData_silent(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	e.backend.Reply(apisvc.SessionInfo, http.StatusOK, `{"success":false,"message":"Session not found"}`)
	p := NewSessionPage(e.deps, school.RoleTeacher)

	require.Error(t, p.FetchSessionData(context.Background(), 99))
	assert.False(t, p.Showing())
	assert.Empty(t, e.messages())
}

func TestSessionPage_StatusClass(t *testing.T) {
	e := newEnv(t, chartsvc.AnalyticsPlaceholder)
	p := NewSessionPage(e.deps, school.RoleTeacher)
	for _, status := range []string{school.SessionPending, school.SessionHeld, school.SessionCancelled, "unknown"} {
		if got, want := p.StatusClass(status), school.StatusClass(status); got != want {
			t.Errorf("StatusClass(%q) = %q, want %q", status, got, want)
		}
	}
}
