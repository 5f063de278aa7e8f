package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/color"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/Hoomanxj/eztutor/apps/views"
	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/notifier"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type (
	commandLine struct {
		conf       *core.Config
		logger     core.Logger
		client     *apisvc.Client
		notes      *notifier.Notifier
		nav        *navigator
		out        io.Writer
		outMu      sync.Mutex
		colors     *color.Color
		validate   *validator.Validate
		translator ut.Translator
	}

	// navigator hands the redirects of the login and register pages to the waiting command.
	navigator struct {
		urls chan string
	}

	// sessionFlags are shared by every command talking to a signed-in page.
	sessionFlags struct {
		role  string
		email string
	}

	// keyValues collects repeated `-set key=value` flags.
	keyValues [][2]string
)

func newCommandLine(conf *core.Config, logger core.Logger, out io.Writer) (*commandLine, error) {
	client, err := apisvc.NewClient(conf, logger)
	if err != nil {
		return nil, err
	}
	validate, translator := core.NewValidator()
	cli := &commandLine{
		conf:       conf,
		logger:     logger,
		client:     client,
		nav:        &navigator{urls: make(chan string, 1)},
		out:        out,
		colors:     color.New(),
		validate:   validate,
		translator: translator,
	}
	cli.colors.SetOutput(out)
	cli.notes = notifier.New(notifier.Options{
		Delay:   conf.NotifierDelay,
		Removal: notifier.ParseRemoval(conf.NotifierRemoval),
		OnAdd:   cli.printMessage,
	})
	return cli, nil
}

func (cli *commandLine) close() {
	cli.notes.Close()
}

func (n *navigator) Navigate(url string) {
	select {
	case n.urls <- url:
	default:
	}
}

func (kv *keyValues) String() string {
	pairs := make([]string, 0, len(*kv))
	for _, p := range *kv {
		pairs = append(pairs, p[0]+"="+p[1])
	}
	return strings.Join(pairs, ",")
}

func (kv *keyValues) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return errors.Errorf("%q: want key=value", s)
	}
	*kv = append(*kv, [2]string{strings.TrimSpace(k), v})
	return nil
}

func (cli *commandLine) printMessage(m notifier.Message) {
	var tag string
	switch m.Severity {
	case notifier.Success:
		tag = cli.colors.Green("✓")
	case notifier.Error:
		tag = cli.colors.Red("✗")
	default:
		tag = cli.colors.Cyan("i")
	}
	// pages notify from concurrent fetches
	cli.outMu.Lock()
	defer cli.outMu.Unlock()
	cli.colors.Printf("%s %s\n", tag, m.Text)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL - sign in; the password will be prompted next")
	fmt.Fprintln(cli.out, "  register -type teacher|student -set name=VALUE ... - create an account")
	fmt.Fprintln(cli.out, "  courses [-status ongoing|concluded] - list courses")
	fmt.Fprintln(cli.out, "  assignments [-course ID] [-student ID] [-status pending|submitted|scored] - list assignments")
	fmt.Fprintln(cli.out, "  sessions [-course ID] - list the sessions of a course")
	fmt.Fprintln(cli.out, "  calendar [-month YYYY-MM] [-day YYYY-MM-DD] - show a month of classes and tasks")
	fmt.Fprintln(cli.out, "  analytics [-course ID] [-student ID] [-out DIR] [-xlsx FILE] - chart and export scores")
	fmt.Fprintln(cli.out, "  dashboard [-out FILE] - today's schedule, next session and category scores")
	fmt.Fprintln(cli.out, "Every command but register accepts -role teacher|student and -email EMAIL (sign in first).")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	cmd, rest := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, cmd, rest)
	case "register":
		return cli.register(ctx, cmd, rest)
	case "courses":
		return cli.courses(ctx, cmd, rest)
	case "assignments":
		return cli.assignments(ctx, cmd, rest)
	case "sessions":
		return cli.sessions(ctx, cmd, rest)
	case "calendar":
		return cli.calendar(ctx, cmd, rest)
	case "analytics":
		return cli.analytics(ctx, cmd, rest)
	case "dashboard":
		return cli.dashboard(ctx, cmd, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses args into fs; asking for help or passing bad flags yields errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return errHelp
	}
	return nil
}

func (cli *commandLine) sessionFlags(fs *flag.FlagSet) *sessionFlags {
	sf := &sessionFlags{}
	fs.StringVar(&sf.role, "role", school.RoleTeacher, "The role of the signed-in user: teacher or student.")
	fs.StringVar(&sf.email, "email", "", "Sign in with this email first; the password will be prompted.")
	return sf
}

// begin validates the session flags and signs in when an email was given.
func (cli *commandLine) begin(ctx context.Context, fs *flag.FlagSet, sf *sessionFlags) error {
	if !school.IsRole(sf.role) {
		fs.Usage()
		return errHelp
	}
	if sf.email == "" {
		return nil
	}
	return cli.logIn(ctx, sf.email, false)
}

func (cli *commandLine) deps(charts *chartsvc.Renderer) views.Deps {
	return views.Deps{
		Client:    cli.client,
		Notifier:  cli.notes,
		Charts:    charts,
		Navigator: cli.nav,
		Logger:    cli.logger,
		Conf:      cli.conf,
	}
}

// validateForm reports the invalid controls of f as a *core.ValidationError.
func (cli *commandLine) validateForm(name string, f *forms.Form) error {
	v := forms.NewFieldValidator(cli.validate, cli.translator, f)
	if errs := v.ValidateForm(f); len(errs) > 0 {
		for _, e := range errs {
			cli.notes.Add(e.Field+": "+e.Error, notifier.Error)
		}
		return core.NewValidationError(errors.Errorf("invalid %s form", name), errs...)
	}
	return nil
}

// awaitRedirect prints the page a successful sign-in leads to.
func (cli *commandLine) awaitRedirect() {
	select {
	case url := <-cli.nav.urls:
		fmt.Fprintf(cli.out, "redirect: %s\n", url)
	case <-time.After(cli.conf.RedirectDelay + time.Second):
		cli.logger.Warn("no redirect received")
	}
}

func stdinFd() int {
	return int(os.Stdin.Fd())
}
