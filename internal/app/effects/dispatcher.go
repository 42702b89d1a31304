// Package effects centralizes the side effects domain mutations trigger:
// notification fan-out, realtime pushes and grade materialization. Services
// call exactly one dispatcher method per mutation instead of wiring effects
// inline.
package effects

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// NotificationSink persists notification rows.
type NotificationSink interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
}

// Pusher delivers realtime events to connected users.
type Pusher interface {
	PushToUser(userID int64, eventType string, payload interface{})
}

// RelationSource resolves a student's linked parents.
type RelationSource interface {
	ParentsOf(ctx context.Context, studentID int64) ([]int64, error)
}

// RosterSource resolves a course's enrolled students.
type RosterSource interface {
	StudentIDs(ctx context.Context, courseID int64) ([]int64, error)
}

// GradeWriter materializes grade entries.
type GradeWriter interface {
	Upsert(ctx context.Context, grade *models.Grade) (int64, error)
}

// EventNotification is the realtime event type for notification pushes.
const EventNotification = "notification"

// Dispatcher runs the effect table. Notification failures are logged and
// swallowed so they never fail the triggering operation; grade
// materialization failures propagate because the grade is part of the
// operation's contract.
type Dispatcher struct {
	notifications NotificationSink
	pusher        Pusher
	relations     RelationSource
	roster        RosterSource
	grades        GradeWriter
	logger        zerolog.Logger
}

// NewDispatcher wires the effect dispatcher.
func NewDispatcher(
	notifications NotificationSink,
	pusher Pusher,
	relations RelationSource,
	roster RosterSource,
	grades GradeWriter,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		pusher:        pusher,
		relations:     relations,
		roster:        roster,
		grades:        grades,
		logger:        logger,
	}
}

// AssignmentPublished notifies every enrolled student of the new published
// assignment.
func (d *Dispatcher) AssignmentPublished(ctx context.Context, assignment *models.Assignment, course *models.Course, actorID int64) {
	studentIDs, err := d.roster.StudentIDs(ctx, course.ID)
	if err != nil {
		d.logger.Error().Err(err).Int64("courseID", course.ID).Msg("Failed to load roster for assignment notification")
		return
	}

	d.notify(ctx, buildBatch(studentIDs, &actorID, models.Notification{
		Type:        models.NotificationAssignment,
		Title:       "New assignment: " + assignment.Title,
		Message:     fmt.Sprintf("%s has a new assignment due %s.", course.Name, assignment.DueDate.Format("Jan 2, 2006")),
		RelatedType: "assignment",
		RelatedID:   &assignment.ID,
		Priority:    models.PriorityNormal,
	}))
}

// SubmissionReceived notifies the course teacher that a student handed in
// work.
func (d *Dispatcher) SubmissionReceived(ctx context.Context, submission *models.Submission, assignment *models.Assignment, course *models.Course) {
	message := fmt.Sprintf("A submission for %s was received.", assignment.Title)
	if submission.IsLate {
		message = fmt.Sprintf("A late submission for %s was received.", assignment.Title)
	}

	d.notify(ctx, buildBatch([]int64{course.TeacherID}, &submission.StudentID, models.Notification{
		Type:        models.NotificationAssignment,
		Title:       "New submission: " + assignment.Title,
		Message:     message,
		RelatedType: "submission",
		RelatedID:   &submission.ID,
		Priority:    models.PriorityNormal,
	}))
}

// SubmissionGraded materializes the grade entry for a graded submission and
// notifies the student. When the grade is also published the publication
// fan-out (student plus parents) carries the notice instead. The returned
// grade is the persisted entry; a nil error is required for the grading
// operation to succeed.
func (d *Dispatcher) SubmissionGraded(ctx context.Context, submission *models.Submission, assignment *models.Assignment, publish bool, graderID int64) (*models.Grade, error) {
	grade := &models.Grade{
		StudentID:    submission.StudentID,
		CourseID:     assignment.CourseID,
		AssignmentID: &assignment.ID,
		Type:         models.GradeTypeAssignment,
		Score:        *submission.Score,
		MaxScore:     assignment.TotalPoints,
		IsPublished:  publish,
		GradedBy:     graderID,
	}
	if publish {
		now := submission.UpdatedAt
		grade.PublishedAt = &now
	}
	grade.Recompute()

	id, err := d.grades.Upsert(ctx, grade)
	if err != nil {
		return nil, err
	}
	grade.ID = id

	if publish {
		d.GradePublished(ctx, grade)
		return grade, nil
	}

	d.notify(ctx, buildBatch([]int64{grade.StudentID}, &grade.GradedBy, models.Notification{
		Type:        models.NotificationGrade,
		Title:       "Submission graded",
		Message:     fmt.Sprintf("Your submission for %s was graded: %.2f/%.2f (%s).", assignment.Title, grade.Score, grade.MaxScore, grade.LetterGrade),
		RelatedType: "grade",
		RelatedID:   &grade.ID,
		Priority:    models.PriorityHigh,
	}))
	return grade, nil
}

// GradePublished notifies the student and their parents of a published
// grade.
func (d *Dispatcher) GradePublished(ctx context.Context, grade *models.Grade) {
	recipients := []int64{grade.StudentID}
	parents, err := d.relations.ParentsOf(ctx, grade.StudentID)
	if err != nil {
		d.logger.Error().Err(err).Int64("studentID", grade.StudentID).Msg("Failed to load parents for grade notification")
	} else {
		recipients = append(recipients, parents...)
	}

	d.notify(ctx, buildBatch(recipients, &grade.GradedBy, models.Notification{
		Type:        models.NotificationGrade,
		Title:       "Grade published",
		Message:     fmt.Sprintf("A %s grade was published: %.2f/%.2f (%s).", grade.Type, grade.Score, grade.MaxScore, grade.LetterGrade),
		RelatedType: "grade",
		RelatedID:   &grade.ID,
		Priority:    models.PriorityHigh,
	}))
}

// AttendanceRecorded notifies the student and their parents when the
// recorded status warrants notice (absent or late). The student's copy is
// routine; the parents' copies are high priority.
func (d *Dispatcher) AttendanceRecorded(ctx context.Context, attendance *models.Attendance) {
	if !attendance.NeedsNotice() {
		return
	}

	template := models.Notification{
		Type:        models.NotificationAttendance,
		Title:       "Attendance: " + string(attendance.Status),
		Message:     fmt.Sprintf("Marked %s on %s.", attendance.Status, attendance.Date.Format("Jan 2, 2006")),
		RelatedType: "attendance",
		RelatedID:   &attendance.ID,
	}

	studentCopy := template
	studentCopy.Priority = models.PriorityNormal
	d.notify(ctx, buildBatch([]int64{attendance.StudentID}, &attendance.RecordedBy, studentCopy))

	parents, err := d.relations.ParentsOf(ctx, attendance.StudentID)
	if err != nil {
		d.logger.Error().Err(err).Int64("studentID", attendance.StudentID).Msg("Failed to load parents for attendance notification")
		return
	}
	parentCopy := template
	parentCopy.Priority = models.PriorityHigh
	d.notify(ctx, buildBatch(parents, &attendance.RecordedBy, parentCopy))
}

// EnrollmentDecided notifies the requesting student of the decision.
func (d *Dispatcher) EnrollmentDecided(ctx context.Context, request *models.EnrollmentRequest, courseName string, deciderID int64) {
	title := "Enrollment rejected"
	message := fmt.Sprintf("Your enrollment request for %s was rejected.", courseName)
	if request.Status == models.EnrollmentApproved {
		title = "Enrollment approved"
		message = fmt.Sprintf("You are now enrolled in %s.", courseName)
	}

	d.notify(ctx, buildBatch([]int64{request.StudentID}, &deciderID, models.Notification{
		Type:        models.NotificationEnrollment,
		Title:       title,
		Message:     message,
		RelatedType: "enrollmentRequest",
		RelatedID:   &request.ID,
		Priority:    models.PriorityNormal,
	}))
}

// Announcement persists and pushes a manual notification to each recipient.
func (d *Dispatcher) Announcement(ctx context.Context, senderID int64, recipients []int64, template models.Notification) {
	d.notify(ctx, buildBatch(recipients, &senderID, template))
}

// notify persists the batch and pushes one realtime event per row.
// Failures are logged, never propagated.
func (d *Dispatcher) notify(ctx context.Context, batch []*models.Notification) {
	if len(batch) == 0 {
		return
	}

	if err := d.notifications.CreateBatch(ctx, batch); err != nil {
		d.logger.Error().Err(err).Int("count", len(batch)).Msg("Failed to persist notifications")
		return
	}

	for _, n := range batch {
		d.pusher.PushToUser(n.RecipientID, EventNotification, n)
	}
}

// buildBatch stamps the template once per recipient.
func buildBatch(recipients []int64, senderID *int64, template models.Notification) []*models.Notification {
	batch := make([]*models.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		n := template
		n.RecipientID = recipientID
		n.SenderID = senderID
		if n.Priority == "" {
			n.Priority = models.PriorityNormal
		}
		batch = append(batch, &n)
	}
	return batch
}
