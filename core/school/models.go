package school

import "strings"

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Course statuses
const (
	CourseOngoing   = "ongoing"
	CourseConcluded = "concluded"
)

// Assignment statuses
const (
	AssignmentPending   = "pending"
	AssignmentSubmitted = "submitted"
	AssignmentScored    = "scored"
)

// Session statuses
const (
	SessionPending   = "pending"
	SessionHeld      = "held"
	SessionCancelled = "cancelled"
)

// Schedule event kinds
const (
	EventClass  = "class"
	EventCustom = "custom"
)

func IsRole(role string) bool {
	return role == RoleStudent || role == RoleTeacher
}

type (
	Course struct {
		ID        int      `json:"id"`
		Name      string   `json:"name"`
		Type      string   `json:"type,omitempty"`
		Format    string   `json:"format,omitempty"`
		StartHour string   `json:"start_hour,omitempty"`
		Status    string   `json:"status"`
		Code      string   `json:"code,omitempty"`
		Weekdays  []string `json:"weekdays,omitempty"`
	}

	Student struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	Assignment struct {
		ID             int     `json:"id"`
		Status         string  `json:"status"`
		Category       string  `json:"category"`
		Score          float64 `json:"score,omitempty"`
		StartDate      string  `json:"start_date,omitempty"`
		EndDate        string  `json:"end_date,omitempty"`
		PendingStamp   string  `json:"pending_stamp,omitempty"`
		SubmittedStamp string  `json:"submitted_stamp,omitempty"`
		ScoredStamp    string  `json:"scored_stamp,omitempty"`
	}

	Session struct {
		ID          int    `json:"id"`
		Number      int    `json:"number,omitempty"`
		Type        string `json:"type,omitempty"`
		Status      string `json:"status"`
		Date        string `json:"date,omitempty"`
		Day         string `json:"day,omitempty"`
		StartHour   string `json:"start_hour,omitempty"`
		Duration    int    `json:"duration,omitempty"`
		Description string `json:"description,omitempty"`
	}

	// ScheduleEvent is one entry of the merged (class + custom) schedule.
	ScheduleEvent struct {
		ID       int    `json:"id,omitempty"`
		Kind     string `json:"type"`
		Name     string `json:"name"`
		Date     string `json:"date"`
		TimeFrom string `json:"time_from"`
		TimeTo   string `json:"time_to"`

		// filled for day views
		StartTime string `json:"start_time,omitempty"`
		EndTime   string `json:"end_time,omitempty"`
	}

	ClassSchedule struct {
		ID         int    `json:"id"`
		Number     int    `json:"number,omitempty"`
		Type       string `json:"type,omitempty"`
		Status     string `json:"status,omitempty"`
		Date       string `json:"date"`
		Day        string `json:"day,omitempty"`
		Duration   int    `json:"duration,omitempty"`
		Name       string `json:"name,omitempty"`
		CourseName string `json:"course_name,omitempty"`
	}

	CustomTask struct {
		ID       int    `json:"id"`
		Name     string `json:"name,omitempty"`
		Task     string `json:"task,omitempty"`
		Date     string `json:"date"`
		TimeFrom string `json:"time_from,omitempty"`
		TimeTo   string `json:"time_to,omitempty"`
	}
)

// DisplayName falls back to the course name when the entry carries none.
func (cs ClassSchedule) DisplayName() string {
	if cs.Name != "" {
		return cs.Name
	}
	return cs.CourseName
}

// DisplayName falls back to the task text when the entry carries no name.
func (ct CustomTask) DisplayName() string {
	if ct.Name != "" {
		return ct.Name
	}
	return ct.Task
}

// StatusClass maps the session status to its badge class.
func (s Session) StatusClass() string {
	return StatusClass(s.Status)
}

func StatusClass(status string) string {
	switch strings.ToLower(status) {
	case SessionPending:
		return "bg-yellow-600"
	case SessionHeld:
		return "bg-green-600"
	case SessionCancelled:
		return "bg-red-600"
	default:
		return ""
	}
}

// KindClass maps the event kind to its badge class.
func (e ScheduleEvent) KindClass() string {
	return KindClass(e.Kind)
}

func KindClass(kind string) string {
	switch strings.ToLower(kind) {
	case EventClass:
		return "bg-yellow-600"
	case EventCustom:
		return "bg-green-600"
	default:
		return "bg-gray-600"
	}
}
