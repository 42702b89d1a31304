package dto

// CreateEnrollmentRequest opens an enrollment request for a course.
type CreateEnrollmentRequest struct {
	CourseID int64  `json:"courseId" binding:"required"`
	Notes    string `json:"notes"`
}

// DecideEnrollmentRequest approves or rejects a pending request.
type DecideEnrollmentRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}
