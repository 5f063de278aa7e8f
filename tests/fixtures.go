package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/school"
)

const (
	LoginFormMarkup = `<form method="post">
  <label for="email">Email</label><input id="email" type="email" name="email" required>
  <label for="password">Password</label><input id="password" type="password" name="password" required>
  <button type="submit">Log in</button>
</form>`

	RegisterFormMarkup = `<form id="teacher-form" method="post">
  <input name="name" required><input type="email" name="email" required>
  <input type="password" name="password" required>
  <input type="url" name="website">
</form>
<form id="student-form" method="post">
  <input name="name" required><input type="email" name="email" required>
  <input type="password" name="password" required>
</form>`

	CourseFormMarkup = `<form method="post">
  <label for="name">Course name</label><input id="name" name="name" required>
  <select name="type" required><option value="">--</option><option value="general">General</option><option value="ielts">IELTS</option></select>
  <input type="checkbox" name="weekdays[]" value="mon"><input type="checkbox" name="weekdays[]" value="wed">
  <input type="number" name="sessions" min="1" max="60">
</form>`

	InviteFormMarkup = `<form method="post"><input type="email" name="email" required></form>`

	AssignmentFormMarkup = `<form method="post">
  <input type="hidden" name="form_type" value="create">
  <select name="category"><option value="writing">Writing</option><option value="speaking">Speaking</option></select>
  <input type="date" name="end_date" required>
  <input type="file" name="attachment">
</form>`

	SessionFormMarkup = `<form method="post">
  <input type="hidden" name="session_id" value="7">
  <select name="status"><option value="pending">Pending</option><option value="held">Held</option><option value="cancelled">Cancelled</option></select>
  <textarea name="description"></textarea>
</form>`

	TaskFormMarkup = `<form method="post">
  <input name="task" required><input type="time" name="time_from"><input type="time" name="time_to">
</form>`
)

// DefaultFixtures serves two courses (one ongoing, one concluded) with a scored student each.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Courses: []school.Course{
			{ID: 1, Name: "IELTS Prep", Status: school.CourseOngoing},
			{ID: 2, Name: "General English", Status: school.CourseConcluded},
		},
		Students: map[int][]school.Student{
			1: {{ID: 10, Name: "Ali"}, {ID: 11, Name: "Sara"}},
			2: {{ID: 20, Name: "Reza"}},
		},
		Assignments: map[string][]school.Assignment{
			ScoreKey(1, 10): {
				{ID: 1, Status: school.AssignmentPending, Category: "writing"},
				{ID: 2, Status: school.AssignmentSubmitted, Category: "speaking"},
			},
			ScoreKey(1, 0): {
				{ID: 3, Status: school.AssignmentScored, Category: "reading", Score: 7},
			},
		},
		Sessions: map[int][]school.Session{
			1: {
				{ID: 7, Number: 1, Status: school.SessionHeld},
				{ID: 8, Number: 2, Status: school.SessionPending},
			},
		},
		Scores: map[string]string{
			ScoreKey(1, 10): `{"cat_scores":{"Grammar":80,"Vocab":60},"tag_scores":{"writing":{"Task":6,"Coherence":"5.5"}}}`,
			ScoreKey(1, 0):  `{"cat_scores":{"Reading":70}}`,
		},
		Schedule: []school.ScheduleEvent{
			{Kind: school.EventClass, Name: "IELTS Prep", Date: "2025-04-07", TimeFrom: "09:00", TimeTo: "10:30"},
		},
		UpcomingSession: &school.Session{ID: 8, Number: 2, Status: school.SessionPending, Date: "2025-04-09"},
		UpcomingCourse:  &school.Course{ID: 1, Name: "IELTS Prep"},
		ClassSchedule: []school.ClassSchedule{
			{ID: 7, Date: "2025-04-07", CourseName: "IELTS Prep"},
			{ID: 8, Date: "2025-04-09", Name: "IELTS Prep #2"},
		},
		CustomTasks: []school.CustomTask{
			{ID: 1, Date: "2025-04-07", Name: "Mark essays", TimeFrom: "18:00", TimeTo: "19:00"},
		},
		AllSchedule: []school.ScheduleEvent{
			{Kind: school.EventClass, Name: "IELTS Prep", Date: "2025-04-07", TimeFrom: "09:00", TimeTo: "10:30"},
			{Kind: school.EventCustom, Name: "Mark essays", Date: "2025-04-07", TimeFrom: "18:00", TimeTo: "19:00"},
			{Kind: school.EventCustom, Name: "No time", Date: "2025-04-07"},
			{Kind: school.EventClass, Name: "IELTS Prep #2", Date: "2025-04-09", TimeFrom: "09:00", TimeTo: "10:30"},
		},
		Forms: map[string]string{
			"/calendar/get_task_form":   TaskFormMarkup,
			"/course/course_form":       CourseFormMarkup,
			"/course/get_invite_form":   InviteFormMarkup,
			"/assignment/get_form":      AssignmentFormMarkup,
			"/session/get_session_info": SessionFormMarkup,
			"/auth/get_login_form":      LoginFormMarkup,
			"/auth/get_register_form":   RegisterFormMarkup,
		},
	}
}

// Config returns a TEST configuration pointing at baseURL.
func Config(t *testing.T, baseURL string) *core.Config {
	v := viper.New()
	core.SetDefaults(v, "TEST")
	v.Set("baseURL", baseURL)
	v.Set("redirectDelay", time.Millisecond)
	conf, err := core.LoadConfig(v)
	if err != nil {
		t.Fatalf("Config() failed: %v", err)
	}
	return conf
}

// Logger writes every entry to the test log until the test completes.
type Logger struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t *testing.T) *Logger {
	l := &Logger{t: t}
	t.Cleanup(func() {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
	})
	return l
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done {
		l.t.Logf("[%s] %s %v", level, msg, args)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("[FATAL] %s %v", msg, args) }
