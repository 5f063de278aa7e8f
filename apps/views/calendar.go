package views

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Hoomanxj/eztutor/core/calendar"
	"github.com/Hoomanxj/eztutor/core/forms"
	"github.com/Hoomanxj/eztutor/core/school"
	apisvc "github.com/Hoomanxj/eztutor/services/api"
)

// mockable
var nowFunc = time.Now

// CalendarPage is the month view of classes and custom tasks.
type CalendarPage struct {
	Deps
	state
	initOnce once

	view              calendar.View
	classSchedules    []school.ClassSchedule
	customTasks       []school.CustomTask
	allSchedule       []school.ScheduleEvent
	selectedDate      string
	selectedDayEvents []school.ScheduleEvent
	showDayModal      bool
	showTaskModal     bool
	taskForm          formState
}

func NewCalendarPage(d Deps) *CalendarPage {
	return &CalendarPage{Deps: d, view: calendar.NewView(nowFunc())}
}

// Init fetches the three schedules concurrently, once.
func (p *CalendarPage) Init(ctx context.Context) error {
	if !p.initOnce.first() {
		return nil
	}
	return p.refresh(ctx)
}

func (p *CalendarPage) refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return p.FetchAllSchedule(ctx) })
	g.Go(func() error { return p.FetchClassSchedules(ctx) })
	g.Go(func() error { return p.FetchTasks(ctx) })
	return g.Wait()
}

func (p *CalendarPage) FetchClassSchedules(ctx context.Context) error {
	tok := p.begin(sliceClasses, nil)
	res := fetch[[]school.ClassSchedule](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.CalendarClassSchedule,
		Key:       "class_schedule",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching class schedule",
	})
	if !p.apply(sliceClasses, tok, func() {
		if res.OK() {
			p.classSchedules = res.Data
		}
	}) {
		p.stale(sliceClasses, tok)
		return nil
	}
	return res.Err
}

func (p *CalendarPage) FetchTasks(ctx context.Context) error {
	tok := p.begin(sliceTasks, nil)
	res := fetch[[]school.CustomTask](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.CalendarCustomSchedule,
		Key:       "custom_schedule",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching custom schedule",
	})
	if !p.apply(sliceTasks, tok, func() {
		if res.OK() {
			p.customTasks = res.Data
		}
	}) {
		p.stale(sliceTasks, tok)
		return nil
	}
	return res.Err
}

func (p *CalendarPage) FetchAllSchedule(ctx context.Context) error {
	tok := p.begin(sliceAll, nil)
	res := fetch[[]school.ScheduleEvent](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.CalendarAllSchedule,
		Key:       "all_schedule",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching all schedule",
	})
	if !p.apply(sliceAll, tok, func() {
		if res.OK() {
			p.allSchedule = res.Data
		}
	}) {
		p.stale(sliceAll, tok)
		return nil
	}
	return res.Err
}

func (p *CalendarPage) PrevMonth() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = p.view.PrevMonth()
}

func (p *CalendarPage) NextMonth() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = p.view.NextMonth()
}

// View returns the displayed month.
func (p *CalendarPage) View() calendar.View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

func (p *CalendarPage) CurrentMonthDays() []calendar.Cell {
	return p.View().CurrentMonthDays()
}

func (p *CalendarPage) HasClass(date string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.classSchedules {
		if s.Date == date {
			return true
		}
	}
	return false
}

func (p *CalendarPage) HasTask(date string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, t := range p.customTasks {
		if t.Date == date {
			return true
		}
	}
	return false
}

// ClassSchedule joins the names of the classes held on date.
func (p *CalendarPage) ClassSchedule(date string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var names []string
	for _, s := range p.classSchedules {
		if s.Date == date {
			names = append(names, s.DisplayName())
		}
	}
	return strings.Join(names, ", ")
}

// Task joins the names of the custom tasks planned on date.
func (p *CalendarPage) Task(date string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var names []string
	for _, t := range p.customTasks {
		if t.Date == date {
			names = append(names, t.DisplayName())
		}
	}
	return strings.Join(names, ", ")
}

// DayEvents lists the events of date that have both a start and an end time.
func (p *CalendarPage) DayEvents(date string) []school.ScheduleEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dayEvents(date)
}

func (p *CalendarPage) dayEvents(date string) []school.ScheduleEvent {
	events := []school.ScheduleEvent{}
	for _, e := range p.allSchedule {
		if e.Date != date {
			continue
		}
		e.StartTime, e.EndTime = e.TimeFrom, e.TimeTo
		if e.StartTime != "" && e.EndTime != "" {
			events = append(events, e)
		}
	}
	return events
}

func (p *CalendarPage) OpenDayModal(date string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selectedDayEvents = p.dayEvents(date)
	p.selectedDate = date
	p.showDayModal = true
}

func (p *CalendarPage) CloseDayModal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showDayModal = false
	p.selectedDayEvents = nil
}

// OpenTaskModal loads the custom task form for date.
func (p *CalendarPage) OpenTaskModal(ctx context.Context, date string) error {
	tok := p.begin(sliceForm, func() { p.selectedDate = date })
	res := fetch[string](ctx, p.Deps, apisvc.Call{
		Path:      apisvc.CalendarTaskForm,
		Key:       "html",
		OnFailure: apisvc.Policy{Silent: true},
		Transport: "Error fetching custom task form",
	})
	if !res.OK() {
		return res.Err
	}
	st, err := parseForm(p.Deps, res.Data, "")
	if !p.apply(sliceForm, tok, func() {
		p.taskForm = st
		p.showTaskModal = true
	}) {
		p.stale(sliceForm, tok)
		return nil
	}
	return err
}

// SaveTask posts form for the selected date and reloads every schedule.
func (p *CalendarPage) SaveTask(ctx context.Context, form *forms.Form) error {
	body := form.Clone()
	if body == nil {
		body = forms.New()
	}
	body.Append("date", p.SelectedDate())

	res := fetch[struct{}](ctx, p.Deps, apisvc.Call{
		Method:        http.MethodPost,
		Path:          apisvc.CalendarAddTask,
		Form:          body,
		OnFailure:     apisvc.Policy{Default: "Date could not be determined"},
		Transport:     "Error submitting custom task",
		SuccessNotice: "Custom task successfully created",
	})
	if !res.OK() {
		return res.Err
	}
	p.CloseTaskModal()
	return p.refresh(ctx)
}

func (p *CalendarPage) CloseTaskModal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.showTaskModal = false
	p.taskForm = formState{}
}

func (p *CalendarPage) ClassSchedules() []school.ClassSchedule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.classSchedules)
}

func (p *CalendarPage) CustomTasks() []school.CustomTask {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.customTasks)
}

func (p *CalendarPage) AllSchedule() []school.ScheduleEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlice(p.allSchedule)
}

func (p *CalendarPage) SelectedDate() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selectedDate
}

// DayModal reports whether the day modal is open and the events it shows.
func (p *CalendarPage) DayModal() (bool, []school.ScheduleEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.showDayModal, cloneSlice(p.selectedDayEvents)
}

func (p *CalendarPage) TaskModalOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.showTaskModal
}

// TaskForm returns a copy of the custom task form, nil when the modal is closed.
func (p *CalendarPage) TaskForm() *forms.Form {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.taskForm.form.Clone()
}
