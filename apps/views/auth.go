package views

import (
	"context"
	"net/http"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
)

// where a registered user lands when the server names no page
const registerRedirect = "/dashboard.dashboard_home"

type (
	LoginPage struct {
		Deps
		state
		initOnce once

		form formState
	}

	// RegisterPage switches between the teacher and the student registration forms.
	RegisterPage struct {
		Deps
		state
		initOnce once

		userType    string
		teacherForm bool
		studentForm bool
		form        formState
	}
)

func NewLoginPage(d Deps) *LoginPage {
	return &LoginPage{Deps: d}
}

func (p *LoginPage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.FetchForm(ctx)
}

func (p *LoginPage) FetchForm(ctx context.Context) error {
	tok := p.begin(sliceForm, nil)
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.AuthLoginForm,
		Key:       "html",
		OnFailure: apisvc.Policy{Silent: true},
	})
	if !res.OK() {
		return res.Err
	}
	st, err := parseForm(p.Deps, res.Data, "")
	if !p.apply(sliceForm, tok, func() { p.form = st }) {
		p.stale(sliceForm, tok)
		return nil
	}
	return err
}

// LogUserIn posts the credentials and, once accepted, navigates to the page the
// server names after the redirect delay.
func (p *LoginPage) LogUserIn(ctx context.Context, form *forms.Form) error {
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          apisvc.AuthLogIn,
		Form:          form,
		Key:           "redirect_url",
		OnFailure:     apisvc.Policy{Default: "Login was unsuccessful"},
		SuccessNotice: "You were successfully logged in; redirecting...",
	})
	if !res.OK() {
		return res.Err
	}
	p.redirect(core.FirstNonEmpty(res.Data, p.Conf.DefaultRedirect))
	return nil
}

// Form returns a copy of the login form.
func (p *LoginPage) Form() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.form.form.Clone()
}

func (p *LoginPage) FormHTML() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.form.html
}

func NewRegisterPage(d Deps) *RegisterPage {
	return &RegisterPage{Deps: d}
}

func (p *RegisterPage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.FetchForm(ctx, school.RoleTeacher)
}

// FetchForm loads the registration form of userType; asking again for the
// current type does nothing.
func (p *RegisterPage) FetchForm(ctx context.Context, userType string) error {
	if p.UserType() == userType {
		return nil
	}
	tok := p.begin(sliceForm, func() {
		p.userType = userType
		p.showForm(userType)
	})
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.AuthRegisterForm,
		Query:     apisvc.Query{apisvc.ParamUserType: userType},
		Key:       "html",
		OnFailure: apisvc.Policy{Default: "User type could not be determined"},
	})
	if !res.OK() {
		return res.Err
	}
	st, err := parseForm(p.Deps, res.Data, userType+"-form")
	if !p.apply(sliceForm, tok, func() { p.form = st }) {
		p.stale(sliceForm, tok)
		return nil
	}
	return err
}

// ShowForm shows the form of userType and hides the other one.
func (p *RegisterPage) ShowForm(userType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showForm(userType)
}

func (p *RegisterPage) showForm(userType string) {
	p.teacherForm = userType == school.RoleTeacher
	p.studentForm = userType == school.RoleStudent
}

// RegisterUser posts form as a userType registration and redirects once accepted.
func (p *RegisterPage) RegisterUser(ctx context.Context, userType string, form *forms.Form) error {
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          apisvc.AuthRegister,
		Query:         apisvc.Query{apisvc.ParamUserType: userType},
		Form:          form,
		Key:           "redirect_url",
		OnFailure:     apisvc.Policy{Default: "Error in registration"},
		SuccessNotice: "Successfully registered",
	})
	if !res.OK() {
		return res.Err
	}
	p.redirect(core.FirstNonEmpty(res.Data, registerRedirect))
	return nil
}

func (p *RegisterPage) UserType() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userType
}

// Showing reports which of the teacher and student forms is visible.
func (p *RegisterPage) Showing() (teacher, student bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.teacherForm, p.studentForm
}

// Form returns a copy of the registration form.
func (p *RegisterPage) Form() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.form.form.Clone()
}

func (p *RegisterPage) FormHTML() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.form.html
}
