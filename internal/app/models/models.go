package models

// Role defines the user role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Semester of an academic year.
type Semester string

const (
	SemesterFall   Semester = "Fall"
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
)

func (s Semester) Valid() bool {
	switch s {
	case SemesterFall, SemesterSpring, SemesterSummer:
		return true
	}
	return false
}

// SubmissionStatus tracks a submission through grading.
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionReturned  SubmissionStatus = "returned"
)

// AttendanceStatus for a single course day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// GradeType categorizes a grade entry.
type GradeType string

const (
	GradeTypeAssignment    GradeType = "assignment"
	GradeTypeQuiz          GradeType = "quiz"
	GradeTypeTest          GradeType = "test"
	GradeTypeProject       GradeType = "project"
	GradeTypeMidterm       GradeType = "midterm"
	GradeTypeFinal         GradeType = "final"
	GradeTypeParticipation GradeType = "participation"
	GradeTypeOther         GradeType = "other"
)

func (t GradeType) Valid() bool {
	switch t {
	case GradeTypeAssignment, GradeTypeQuiz, GradeTypeTest, GradeTypeProject,
		GradeTypeMidterm, GradeTypeFinal, GradeTypeParticipation, GradeTypeOther:
		return true
	}
	return false
}

// EnrollmentStatus of an enrollment request.
type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// NotificationType categorizes a notification.
type NotificationType string

const (
	NotificationAssignment   NotificationType = "assignment"
	NotificationGrade        NotificationType = "grade"
	NotificationAttendance   NotificationType = "attendance"
	NotificationEnrollment   NotificationType = "enrollment"
	NotificationAnnouncement NotificationType = "announcement"
)

// NotificationPriority of a notification.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)
