package effects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dyilmaz/schoolhub/internal/app/models"
)

type stubSink struct {
	batches [][]*models.Notification
	failErr error
}

func (s *stubSink) CreateBatch(_ context.Context, batch []*models.Notification) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.batches = append(s.batches, batch)
	return nil
}

type stubPusher struct {
	pushes []int64
}

func (s *stubPusher) PushToUser(userID int64, _ string, _ interface{}) {
	s.pushes = append(s.pushes, userID)
}

type stubRelations struct {
	parents map[int64][]int64
	failErr error
}

func (s *stubRelations) ParentsOf(_ context.Context, studentID int64) ([]int64, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	return s.parents[studentID], nil
}

type stubRoster struct {
	students []int64
}

func (s *stubRoster) StudentIDs(_ context.Context, _ int64) ([]int64, error) {
	return s.students, nil
}

type stubGrades struct {
	upserted []*models.Grade
	failErr  error
}

func (s *stubGrades) Upsert(_ context.Context, g *models.Grade) (int64, error) {
	if s.failErr != nil {
		return 0, s.failErr
	}
	s.upserted = append(s.upserted, g)
	return int64(len(s.upserted)), nil
}

func testHarness() (*Dispatcher, *stubSink, *stubPusher, *stubRelations, *stubRoster, *stubGrades) {
	sink := &stubSink{}
	pusher := &stubPusher{}
	relations := &stubRelations{parents: map[int64][]int64{100: {200}}}
	roster := &stubRoster{students: []int64{100, 101}}
	grades := &stubGrades{}
	d := NewDispatcher(sink, pusher, relations, roster, grades, zerolog.Nop())
	return d, sink, pusher, relations, roster, grades
}

func TestAssignmentPublishedFansOutToRoster(t *testing.T) {
	d, sink, pusher, _, _, _ := testHarness()

	assignment := &models.Assignment{ID: 1, Title: "Essay", DueDate: time.Now()}
	course := &models.Course{ID: 5, Name: "Lit"}
	d.AssignmentPublished(context.Background(), assignment, course, 10)

	if len(sink.batches) != 1 || len(sink.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 notifications, got %v", sink.batches)
	}
	for _, n := range sink.batches[0] {
		if n.Type != models.NotificationAssignment {
			t.Errorf("type = %s, want assignment", n.Type)
		}
		if n.SenderID == nil || *n.SenderID != 10 {
			t.Errorf("senderID = %v, want 10", n.SenderID)
		}
	}
	if len(pusher.pushes) != 2 {
		t.Errorf("expected 2 pushes, got %d", len(pusher.pushes))
	}
}

func TestNotificationFailureIsSwallowed(t *testing.T) {
	d, sink, pusher, _, _, _ := testHarness()
	sink.failErr = errors.New("db down")

	d.AssignmentPublished(context.Background(), &models.Assignment{ID: 1}, &models.Course{ID: 5}, 10)

	if len(pusher.pushes) != 0 {
		t.Error("no pushes should follow a failed persist")
	}
}

func TestSubmissionGradedMaterializesGrade(t *testing.T) {
	d, sink, _, _, _, grades := testHarness()

	score := 85.0
	now := time.Now()
	submission := &models.Submission{StudentID: 100, Score: &score, UpdatedAt: now}
	assignment := &models.Assignment{ID: 7, CourseID: 5, TotalPoints: 100}

	grade, err := d.SubmissionGraded(context.Background(), submission, assignment, false, 10)
	if err != nil {
		t.Fatalf("SubmissionGraded: %v", err)
	}
	if grade.Type != models.GradeTypeAssignment {
		t.Errorf("type = %s, want assignment", grade.Type)
	}
	if grade.AssignmentID == nil || *grade.AssignmentID != 7 {
		t.Errorf("assignmentID = %v, want 7", grade.AssignmentID)
	}
	if grade.Percentage != 85 || grade.LetterGrade != "B" {
		t.Errorf("derived fields not recomputed: %v%% %q", grade.Percentage, grade.LetterGrade)
	}
	if len(grades.upserted) != 1 {
		t.Errorf("expected 1 grade write, got %d", len(grades.upserted))
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("grading should notify the student alone, got %v", sink.batches)
	}
	n := sink.batches[0][0]
	if n.RecipientID != 100 {
		t.Errorf("recipient = %d, want the student", n.RecipientID)
	}
	if n.Type != models.NotificationGrade || n.Priority != models.PriorityHigh {
		t.Errorf("got %s/%s notification, want grade/high", n.Type, n.Priority)
	}
}

func TestSubmissionGradedPublishNotifies(t *testing.T) {
	d, sink, _, _, _, _ := testHarness()

	score := 85.0
	submission := &models.Submission{StudentID: 100, Score: &score, UpdatedAt: time.Now()}
	assignment := &models.Assignment{ID: 7, CourseID: 5, TotalPoints: 100}

	grade, err := d.SubmissionGraded(context.Background(), submission, assignment, true, 10)
	if err != nil {
		t.Fatalf("SubmissionGraded: %v", err)
	}
	if grade.PublishedAt == nil {
		t.Error("published grade should carry a publication instant")
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 2 {
		t.Fatalf("expected student + parent notified, got %v", sink.batches)
	}
	for _, n := range sink.batches[0] {
		if n.Priority != models.PriorityHigh {
			t.Errorf("recipient %d got priority %s, want high", n.RecipientID, n.Priority)
		}
	}
}

func TestSubmissionReceivedNotifiesTeacher(t *testing.T) {
	d, sink, pusher, _, _, _ := testHarness()

	submission := &models.Submission{ID: 3, StudentID: 100, IsLate: true}
	assignment := &models.Assignment{ID: 7, CourseID: 5, Title: "Essay"}
	course := &models.Course{ID: 5, TeacherID: 10}

	d.SubmissionReceived(context.Background(), submission, assignment, course)

	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected the teacher alone notified, got %v", sink.batches)
	}
	n := sink.batches[0][0]
	if n.RecipientID != 10 {
		t.Errorf("recipient = %d, want the course teacher", n.RecipientID)
	}
	if n.Type != models.NotificationAssignment || n.Priority != models.PriorityNormal {
		t.Errorf("got %s/%s notification, want assignment/normal", n.Type, n.Priority)
	}
	if n.SenderID == nil || *n.SenderID != 100 {
		t.Errorf("senderID = %v, want the submitting student", n.SenderID)
	}
	if len(pusher.pushes) != 1 || pusher.pushes[0] != 10 {
		t.Errorf("pushes = %v, want the teacher only", pusher.pushes)
	}
}

func TestSubmissionGradedWriteFailurePropagates(t *testing.T) {
	d, _, _, _, _, grades := testHarness()
	boom := errors.New("write failed")
	grades.failErr = boom

	score := 85.0
	submission := &models.Submission{StudentID: 100, Score: &score}
	assignment := &models.Assignment{ID: 7, CourseID: 5, TotalPoints: 100}

	if _, err := d.SubmissionGraded(context.Background(), submission, assignment, false, 10); !errors.Is(err, boom) {
		t.Errorf("grade write failure should propagate, got %v", err)
	}
}

func TestGradePublishedParentLookupFailureStillNotifiesStudent(t *testing.T) {
	d, sink, _, relations, _, _ := testHarness()
	relations.failErr = errors.New("relations down")

	d.GradePublished(context.Background(), &models.Grade{ID: 1, StudentID: 100, GradedBy: 10})

	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("student alone should still be notified, got %v", sink.batches)
	}
	if sink.batches[0][0].RecipientID != 100 {
		t.Errorf("recipient = %d, want 100", sink.batches[0][0].RecipientID)
	}
}

func TestGradePublishedPriorityHighForEveryRecipient(t *testing.T) {
	d, sink, _, _, _, _ := testHarness()

	d.GradePublished(context.Background(), &models.Grade{ID: 1, StudentID: 100, GradedBy: 10})

	if len(sink.batches) != 1 || len(sink.batches[0]) != 2 {
		t.Fatalf("expected student + parent notified, got %v", sink.batches)
	}
	for _, n := range sink.batches[0] {
		if n.Priority != models.PriorityHigh {
			t.Errorf("recipient %d got priority %s, want high", n.RecipientID, n.Priority)
		}
	}
}

func TestAttendanceRecordedOnlyOnNotice(t *testing.T) {
	d, sink, _, _, _, _ := testHarness()

	d.AttendanceRecorded(context.Background(), &models.Attendance{StudentID: 100, Status: models.AttendancePresent})
	if len(sink.batches) != 0 {
		t.Error("present record should stay quiet")
	}

	d.AttendanceRecorded(context.Background(), &models.Attendance{StudentID: 100, Status: models.AttendanceLate, Date: time.Now()})
	if len(sink.batches) != 2 {
		t.Fatalf("late record should notify student and parent in separate batches, got %v", sink.batches)
	}
	student := sink.batches[0][0]
	if student.RecipientID != 100 || student.Priority != models.PriorityNormal {
		t.Errorf("student copy = %d/%s, want 100/normal", student.RecipientID, student.Priority)
	}
	parent := sink.batches[1][0]
	if parent.RecipientID != 200 || parent.Priority != models.PriorityHigh {
		t.Errorf("parent copy = %d/%s, want 200/high", parent.RecipientID, parent.Priority)
	}
}

func TestEnrollmentDecidedMessage(t *testing.T) {
	d, sink, _, _, _, _ := testHarness()

	approved := &models.EnrollmentRequest{ID: 1, StudentID: 100, Status: models.EnrollmentApproved}
	d.EnrollmentDecided(context.Background(), approved, "Lit", 10)

	rejected := &models.EnrollmentRequest{ID: 2, StudentID: 100, Status: models.EnrollmentRejected}
	d.EnrollmentDecided(context.Background(), rejected, "Lit", 10)

	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(sink.batches))
	}
	if sink.batches[0][0].Title != "Enrollment approved" {
		t.Errorf("title = %q, want Enrollment approved", sink.batches[0][0].Title)
	}
	if sink.batches[1][0].Title != "Enrollment rejected" {
		t.Errorf("title = %q, want Enrollment rejected", sink.batches[1][0].Title)
	}
}
