package apisvc

import "strconv"

// page prefixes
const (
	PrefixAuth       = "/auth"
	PrefixDashboard  = "/dashboard"
	PrefixCourse     = "/course"
	PrefixAssignment = "/assignment"
	PrefixCalendar   = "/calendar"
	PrefixSession    = "/session"
	PrefixAnalytics  = "/analytics"
)

// routes shared by several pages; prefix them with the page's
const (
	GetCourses       = "/get_courses"
	GetStudents      = "/get_students"
	GetStudentScores = "/get_student_scores"
)

const (
	DashboardSchedule        = PrefixDashboard + "/get_schedule"
	DashboardUpcomingSession = PrefixDashboard + "/get_upcoming_session"

	CalendarClassSchedule  = PrefixCalendar + "/get_class_schedule"
	CalendarCustomSchedule = PrefixCalendar + "/get_custom_schedule"
	CalendarAllSchedule    = PrefixCalendar + "/get_all_schedule"
	CalendarTaskForm       = PrefixCalendar + "/get_task_form"
	CalendarAddTask        = PrefixCalendar + "/add_task"

	CourseForm           = PrefixCourse + "/course_form"
	CourseSubmitForm     = PrefixCourse + "/submit_form"
	CourseInviteForm     = PrefixCourse + "/get_invite_form"
	CourseSendInvitation = PrefixCourse + "/send_invitation"

	AssignmentList   = PrefixAssignment + "/get_assignments"
	AssignmentForm   = PrefixAssignment + "/get_form"
	AssignmentCreate = PrefixAssignment + "/create_assignment"
	AssignmentSubmit = PrefixAssignment + "/submit_assignment"
	AssignmentScore  = PrefixAssignment + "/score_assignment"

	SessionList   = PrefixSession + "/get_sessions"
	SessionInfo   = PrefixSession + "/get_session_info"
	SessionUpdate = PrefixSession + "/update_session_info"

	AuthLoginForm    = PrefixAuth + "/get_login_form"
	AuthLogIn        = PrefixAuth + "/log_user_in"
	AuthRegisterForm = PrefixAuth + "/get_register_form"
	AuthRegister     = PrefixAuth + "/register_user"
)

// query parameter names
const (
	ParamCourseID     = "course_id"
	ParamStudentID    = "student_id"
	ParamSessionID    = "session_id"
	ParamAssignmentID = "assignment_id"
	ParamCategory     = "category"
	ParamFormType     = "form_type"
	ParamUserType     = "user_type"
)

// ID formats an identifier as a query value.
func ID(id int) string {
	return strconv.Itoa(id)
}
