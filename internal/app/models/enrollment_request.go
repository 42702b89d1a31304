package models

import (
	"time"
)

// EnrollmentRequest defines one enrollment request based on the
// 'enrollment_requests' table. At most one pending request exists per
// (student, course). A rejected request is reset back to pending on
// re-request instead of inserting a new row; approved is absorbing.
type EnrollmentRequest struct {
	ID           int64            `json:"id" db:"id"`
	StudentID    int64            `json:"studentId" db:"student_id"`
	CourseID     int64            `json:"courseId" db:"course_id"`
	Status       EnrollmentStatus `json:"status" db:"status"`
	RequestDate  time.Time        `json:"requestDate" db:"request_date"`
	ResponseDate *time.Time       `json:"responseDate,omitempty" db:"response_date"`
	ResponseBy   *int64           `json:"responseBy,omitempty" db:"response_by"`
	Notes        string           `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// CanDecide reports whether the request may transition to approved or
// rejected.
func (r *EnrollmentRequest) CanDecide() bool {
	return r.Status == EnrollmentPending
}

// Reset promotes a rejected request back to pending, clearing response
// fields and refreshing the request date.
func (r *EnrollmentRequest) Reset(now time.Time) {
	r.Status = EnrollmentPending
	r.RequestDate = now
	r.ResponseDate = nil
	r.ResponseBy = nil
	r.Notes = ""
}
