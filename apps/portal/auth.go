package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Hoomanxj/eztutor/apps/views"
	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/school"
)

func (cli *commandLine) login(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	email := fs.String("email", "", "The user's email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	return cli.logIn(ctx, *email, true)
}

// logIn fills the login form with email and the prompted password and posts it.
// With wait set, it blocks until the page the server redirects to is known.
func (cli *commandLine) logIn(ctx context.Context, email string, wait bool) error {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(stdinFd())
	fmt.Fprintln(cli.out)
	if err != nil {
		return errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return errHelp
	}

	page := views.NewLoginPage(cli.deps(nil))
	if err := page.Init(ctx); err != nil {
		return err
	}
	form := page.Form()
	if form == nil {
		return errors.New("login form unavailable")
	}
	if err := form.Set("email", email); err != nil {
		return err
	}
	if err := form.Set("password", string(pwd)); err != nil {
		return err
	}
	if err := cli.validateForm("login", form); err != nil {
		return err
	}
	if err := page.LogUserIn(ctx, form); err != nil {
		return err
	}
	cli.logger.Info("portal: signed in", core.Person{Email: email})
	if wait {
		cli.awaitRedirect()
	}
	return nil
}

func (cli *commandLine) register(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	userType := fs.String("type", school.RoleTeacher, "The account type: teacher or student.")
	var values keyValues
	fs.Var(&values, "set", "A form value as name=VALUE; repeat for every field.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !school.IsRole(*userType) || len(values) == 0 {
		fs.Usage()
		return errHelp
	}

	page := views.NewRegisterPage(cli.deps(nil))
	if err := page.FetchForm(ctx, *userType); err != nil {
		return err
	}
	form := page.Form()
	if form == nil {
		return errors.Errorf("%s registration form unavailable", *userType)
	}
	for _, kv := range values {
		if err := form.Set(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if err := cli.validateForm("registration", form); err != nil {
		return err
	}
	if err := page.RegisterUser(ctx, *userType, form); err != nil {
		return err
	}
	cli.awaitRedirect()
	return nil
}
