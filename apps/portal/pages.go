package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Hoomanxj/eztutor/apps/views"
	"github.com/Hoomanxj/eztutor/core/calendar"
	"github.com/Hoomanxj/eztutor/core/school"
	chartsvc "github.com/Hoomanxj/eztutor/services/chart"
	exportsvc "github.com/Hoomanxj/eztutor/services/export"
)

const monthLayout = "2006-01"

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

func (cli *commandLine) heading(format string, args ...interface{}) {
	fmt.Fprintln(cli.out, cli.colors.Bold(fmt.Sprintf(format, args...)))
}

func (cli *commandLine) courses(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	sf := cli.sessionFlags(fs)
	status := fs.String("status", school.CourseOngoing, "Show the ongoing or the concluded courses.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *status != school.CourseOngoing && *status != school.CourseConcluded {
		fs.Usage()
		return errHelp
	}
	if err := cli.begin(ctx, fs, sf); err != nil {
		return err
	}

	page := views.NewCoursePage(cli.deps(nil), sf.role)
	if err := page.Init(ctx); err != nil {
		return err
	}
	page.ViewCourses(*status)

	courses := page.Courses()
	cli.heading("%s courses (%d)", *status, len(courses))
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTART\tWEEKDAYS")
	for _, c := range courses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.StartHour, strings.Join(c.Weekdays, ","))
	}
	return tw.Flush()
}

func (cli *commandLine) assignments(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	sf := cli.sessionFlags(fs)
	courseID := fs.Int("course", 0, "The course to open; the first one by default.")
	studentID := fs.Int("student", 0, "The student whose assignments to list (teachers only).")
	status := fs.String("status", school.AssignmentPending, "The tab to show: pending, submitted or scored.")
	if err := parse(fs, args); err != nil {
		return err
	}
	switch *status {
	case school.AssignmentPending, school.AssignmentSubmitted, school.AssignmentScored:
	default:
		fs.Usage()
		return errHelp
	}
	if err := cli.begin(ctx, fs, sf); err != nil {
		return err
	}

	page := views.NewAssignmentPage(cli.deps(nil), sf.role)
	if err := page.Init(ctx); err != nil && *courseID == 0 {
		return err
	}
	if *courseID > 0 {
		if err := page.FetchCourseData(ctx, *courseID); err != nil && *studentID == 0 {
			return err
		}
	}
	id, course := page.SelectedCourse()
	if course == nil {
		return errors.Errorf("course %s not found", nullString(id))
	}
	if *studentID > 0 && sf.role == school.RoleTeacher {
		if err := page.FetchAssignments(ctx, course.ID, null.IntFrom(*studentID)); err != nil {
			return err
		}
	}
	page.ShowAssignments(*status)

	list := page.SelectedAssignments()
	cli.heading("%s: %s assignments (%d)", course.Name, *status, len(list))
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tCATEGORY\tSTART\tEND\tSCORE")
	for _, a := range list {
		score := "-"
		if a.Status == school.AssignmentScored {
			score = chartsvc.FormatValue(a.Score)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.Category, a.StartDate, a.EndDate, score)
	}
	return tw.Flush()
}

func (cli *commandLine) sessions(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	sf := cli.sessionFlags(fs)
	courseID := fs.Int("course", 0, "The course whose sessions to list; the first one by default.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := cli.begin(ctx, fs, sf); err != nil {
		return err
	}

	page := views.NewSessionPage(cli.deps(nil), sf.role)
	if err := page.Init(ctx); err != nil {
		return err
	}
	if *courseID > 0 {
		if err := page.FetchCourseData(ctx, *courseID); err != nil {
			return err
		}
	}
	id, course := page.SelectedCourse()
	if course == nil {
		return errors.Errorf("course %s not found", nullString(id))
	}

	list := page.Sessions()
	cli.heading("%s: sessions (%d)", course.Name, len(list))
	tw := cli.table()
	fmt.Fprintln(tw, "#\tDATE\tDAY\tSTART\tSTATUS")
	for _, s := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Number, s.Date, s.Day, s.StartHour, s.Status)
	}
	return tw.Flush()
}

func (cli *commandLine) calendar(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	sf := cli.sessionFlags(fs)
	month := fs.String("month", "", "The month to show as YYYY-MM; the current one by default.")
	day := fs.String("day", "", "List the events of this day (YYYY-MM-DD).")
	if err := parse(fs, args); err != nil {
		return err
	}
	var target time.Time
	if *month != "" {
		t, err := time.Parse(monthLayout, *month)
		if err != nil {
			fs.Usage()
			return errHelp
		}
		target = t
	}
	if *day != "" {
		if _, err := time.Parse(calendar.DateLayout, *day); err != nil {
			fs.Usage()
			return errHelp
		}
	}
	if err := cli.begin(ctx, fs, sf); err != nil {
		return err
	}

	page := views.NewCalendarPage(cli.deps(nil))
	if err := page.Init(ctx); err != nil {
		return err
	}
	if !target.IsZero() {
		v := page.View()
		diff := (target.Year()-v.Year())*12 + int(target.Month()) - int(v.Month())
		for ; diff > 0; diff-- {
			page.NextMonth()
		}
		for ; diff < 0; diff++ {
			page.PrevMonth()
		}
	}

	v := page.View()
	cli.heading("%s %d", v.MonthName(), v.Year())
	for _, d := range v.DaysOfWeek() {
		fmt.Fprintf(cli.out, "%-5s", d)
	}
	fmt.Fprintln(cli.out)

	var marked []string
	for i, c := range page.CurrentMonthDays() {
		if i > 0 && i%7 == 0 {
			fmt.Fprintln(cli.out)
		}
		if c.Blank() {
			fmt.Fprintf(cli.out, "%-5s", "")
			continue
		}
		mark := ""
		if page.HasClass(c.Date) {
			mark += "*"
		}
		if page.HasTask(c.Date) {
			mark += "+"
		}
		if mark != "" {
			marked = append(marked, c.Date)
		}
		fmt.Fprintf(cli.out, "%-5s", fmt.Sprintf("%2d%s", c.Day, mark))
	}
	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, "* class  + task")

	for _, date := range marked {
		if names := page.ClassSchedule(date); names != "" {
			fmt.Fprintf(cli.out, "%s class: %s\n", date, names)
		}
		if names := page.Task(date); names != "" {
			fmt.Fprintf(cli.out, "%s task: %s\n", date, names)
		}
	}

	if *day != "" {
		page.OpenDayModal(*day)
		_, events := page.DayModal()
		page.CloseDayModal()

		cli.heading("%s (%d)", *day, len(events))
		tw := cli.table()
		for _, e := range events {
			fmt.Fprintf(tw, "%s-%s\t%s\t%s\n", e.StartTime, e.EndTime, e.Kind, e.Name)
		}
		return tw.Flush()
	}
	return nil
}

func (cli *commandLine) analytics(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	sf := cli.sessionFlags(fs)
	courseID := fs.Int("course", 0, "The course to chart; the first one by default.")
	studentID := fs.Int("student", 0, "The student to chart (teachers only); the first one by default.")
	outDir := fs.String("out", "", "Write one PNG per chart to this directory.")
	xlsxPath := fs.String("xlsx", "", "Export the scores to this spreadsheet.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := cli.begin(ctx, fs, sf); err != nil {
		return err
	}

	cfgs := chartsvc.AnalyticsConfigs()
	board := chartsvc.NewBoard(cli.conf.ChartWidth, cli.conf.ChartHeight, chartsvc.IDs(cfgs...)...)
	charts := chartsvc.NewRenderer(board, chartsvc.DefaultPlugins(), cli.logger, chartsvc.AnalyticsPlaceholder)
	page := views.NewAnalyticsPage(cli.deps(charts), sf.role)
	if err := page.Init(ctx); err != nil && *courseID == 0 {
		return err
	}

	switch {
	case *courseID > 0 && sf.role == school.RoleTeacher:
		if err := page.FetchStudents(ctx, *courseID); err != nil && *studentID == 0 {
			return err
		}
	case *courseID > 0:
		if err := page.FetchCourseScores(ctx, *courseID, null.Int{}); err != nil {
			return err
		}
	}
	if *studentID > 0 && sf.role == school.RoleTeacher {
		id := page.SelectedCourse()
		if !id.Valid {
			return errors.New("no course selected")
		}
		if err := page.FetchCourseScores(ctx, id.Int, null.IntFrom(*studentID)); err != nil {
			return err
		}
	}

	title := "Scores"
	if c := findCourse(page.Courses(), page.SelectedCourse()); c != nil {
		title = c.Name + " scores"
	}
	scores := page.Scores()
	cli.heading("%s", title)
	cli.printSeries("Categories", scores.CatScores)
	for _, skill := range scores.TagScores {
		cli.printSeries(skill.Name, skill.Scores)
	}

	if *outDir != "" {
		if err := writeCharts(board, *outDir); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "charts: %d written to %s\n", len(board.IDs()), *outDir)
	}
	if *xlsxPath != "" {
		if err := writeFile(*xlsxPath, func(f *os.File) error {
			return exportsvc.WriteScores(f, title, scores)
		}); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "scores: exported to %s\n", *xlsxPath)
	}
	return nil
}

func (cli *commandLine) dashboard(ctx context.Context, cmd string, args []string) error {
	fs := cli.flagSet(cmd)
	sf := cli.sessionFlags(fs)
	out := fs.String("out", "", "Write the category chart to this PNG file.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := cli.begin(ctx, fs, sf); err != nil {
		return err
	}

	cfg := chartsvc.DashboardConfig()
	board := chartsvc.NewBoard(cli.conf.ChartWidth, cli.conf.ChartHeight, cfg.ID)
	charts := chartsvc.NewRenderer(board, chartsvc.DefaultPlugins(), cli.logger, chartsvc.DashboardPlaceholder)
	page := views.NewDashboard(cli.deps(charts), sf.role)
	if err := page.Init(ctx); err != nil {
		return err
	}

	schedule := page.Schedule()
	cli.heading("Schedule (%d)", len(schedule))
	tw := cli.table()
	for _, e := range schedule {
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\n", e.Date, e.TimeFrom, e.TimeTo, e.Kind, e.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	cli.heading("Upcoming session")
	if s, c := page.UpcomingSession(); s != nil && c != nil {
		fmt.Fprintf(cli.out, "%s #%d on %s %s (%s)\n", c.Name, s.Number, s.Date, s.StartHour, s.Status)
	} else {
		fmt.Fprintln(cli.out, "none")
	}

	cli.printSeries("Category scores", page.CatScores())

	if *out != "" {
		canvas := board.Canvas(cfg.ID)
		if err := writeFile(*out, func(f *os.File) error { return canvas.WritePNG(f) }); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "chart: written to %s\n", *out)
	}
	return nil
}

func (cli *commandLine) printSeries(name string, s school.Series) {
	cli.heading("%s", name)
	if len(s) == 0 {
		fmt.Fprintln(cli.out, chartsvc.NoScoresShortText)
		return
	}
	tw := cli.table()
	for _, p := range s {
		fmt.Fprintf(tw, "%s\t%s\n", p.Label, chartsvc.FormatValue(p.Value))
	}
	_ = tw.Flush()
}

// writeCharts saves every canvas of board as <dir>/<id>.png.
func writeCharts(board *chartsvc.Board, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating chart directory")
	}
	for _, id := range board.IDs() {
		canvas := board.Canvas(id)
		path := filepath.Join(dir, id+".png")
		if err := writeFile(path, func(f *os.File) error { return canvas.WritePNG(f) }); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}

func findCourse(courses []school.Course, id null.Int) *school.Course {
	if !id.Valid {
		return nil
	}
	for i := range courses {
		if courses[i].ID == id.Int {
			return &courses[i]
		}
	}
	return nil
}

func nullString(id null.Int) string {
	if !id.Valid {
		return "(none)"
	}
	return fmt.Sprint(id.Int)
}
