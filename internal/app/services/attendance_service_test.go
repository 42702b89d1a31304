package services

import (
	"context"
	"testing"
	"time"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

type attendanceFixture struct {
	svc     *AttendanceService
	records *mockAttendanceStore
	sink    *mockNotificationSink
	teacher *auth.Principal
	student *auth.Principal
	parent  *auth.Principal
}

func setupAttendanceTest(t *testing.T) *attendanceFixture {
	t.Helper()

	courses := newMockCourseStore()
	records := newMockAttendanceStore()
	sink := &mockNotificationSink{}
	relations := &mockRelationSource{parents: map[int64][]int64{100: {200}}}

	svc := NewAttendanceService(records, courses, auth.NewPolicy(), testDispatcher(sink, &mockPusher{}, relations, courses, newMockGradeStore()))

	courses.courses[1] = &models.Course{ID: 1, Name: "Algebra", TeacherID: 10}
	courses.enrollments[1] = []int64{100, 101}

	return &attendanceFixture{
		svc:     svc,
		records: records,
		sink:    sink,
		teacher: &auth.Principal{ID: 10, Role: models.RoleTeacher},
		student: &auth.Principal{ID: 100, Role: models.RoleStudent},
		parent:  &auth.Principal{ID: 200, Role: models.RoleParent, Children: []int64{100}},
	}
}

func TestAttendanceRecordNormalizesDate(t *testing.T) {
	f := setupAttendanceTest(t)

	loc := time.FixedZone("UTC+3", 3*3600)
	rec, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 100,
		CourseID:  1,
		Date:      time.Date(2026, 3, 10, 10, 15, 0, 0, loc),
		Status:    models.AttendancePresent,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(want) {
		t.Errorf("date = %v, want truncated to %v", rec.Date, want)
	}
	if rec.RecordedBy != f.teacher.ID {
		t.Errorf("recordedBy = %d, want %d", rec.RecordedBy, f.teacher.ID)
	}
}

func TestAttendanceRecordSameDayUpdatesInPlace(t *testing.T) {
	f := setupAttendanceTest(t)
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 100, CourseID: 1, Date: day, Status: models.AttendanceAbsent,
	})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 100, CourseID: 1, Date: day.Add(5 * time.Hour), Status: models.AttendancePresent,
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("same-day re-recording should update in place, got ids %d and %d", first.ID, second.ID)
	}
	if second.Status != models.AttendancePresent {
		t.Errorf("status = %s, want present", second.Status)
	}
}

func TestAttendanceRecordAbsentNotifiesFamily(t *testing.T) {
	f := setupAttendanceTest(t)

	_, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 100, CourseID: 1, Date: time.Now(), Status: models.AttendanceAbsent,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	recipients := f.sink.recipients()
	if !containsID(recipients, 100) || !containsID(recipients, 200) {
		t.Errorf("absent record should notify student and parent, got %v", recipients)
	}
	for _, n := range f.sink.all() {
		switch n.RecipientID {
		case 100:
			if n.Priority != models.PriorityNormal {
				t.Errorf("student notice priority = %s, want normal", n.Priority)
			}
		case 200:
			if n.Priority != models.PriorityHigh {
				t.Errorf("parent notice priority = %s, want high", n.Priority)
			}
		}
	}
}

func TestAttendanceRecordPresentStaysQuiet(t *testing.T) {
	f := setupAttendanceTest(t)

	_, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 100, CourseID: 1, Date: time.Now(), Status: models.AttendancePresent,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(f.sink.all()) != 0 {
		t.Error("present record should not notify")
	}
}

func TestAttendanceRecordInvalidStatus(t *testing.T) {
	f := setupAttendanceTest(t)

	_, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 100, CourseID: 1, Date: time.Now(), Status: "vacationing",
	})
	if apperrors.KindOf(err) != apperrors.KindInvalid {
		t.Errorf("unknown status should be invalid, got %v", err)
	}
}

func TestAttendanceRecordNotEnrolled(t *testing.T) {
	f := setupAttendanceTest(t)

	_, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
		StudentID: 999, CourseID: 1, Date: time.Now(), Status: models.AttendancePresent,
	})
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Errorf("unenrolled student should fail the precondition, got %v", err)
	}
}

func TestAttendanceRecordForbiddenForStudent(t *testing.T) {
	f := setupAttendanceTest(t)

	_, err := f.svc.Record(context.Background(), f.student, &dto.RecordAttendanceRequest{
		StudentID: 100, CourseID: 1, Date: time.Now(), Status: models.AttendancePresent,
	})
	if apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("students cannot record attendance, got %v", err)
	}
}

func TestAttendanceBulkRecord(t *testing.T) {
	f := setupAttendanceTest(t)
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	records, err := f.svc.BulkRecord(context.Background(), f.teacher, &dto.BulkAttendanceRequest{
		CourseID: 1,
		Date:     day,
		Records: []dto.BulkAttendanceEntry{
			{StudentID: 100, Status: models.AttendancePresent},
			{StudentID: 101, Status: models.AttendanceLate, LateMinutes: 10},
		},
	})
	if err != nil {
		t.Fatalf("BulkRecord: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestAttendanceBulkRecordAbortsOnFailure(t *testing.T) {
	f := setupAttendanceTest(t)
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.BulkRecord(context.Background(), f.teacher, &dto.BulkAttendanceRequest{
		CourseID: 1,
		Date:     day,
		Records: []dto.BulkAttendanceEntry{
			{StudentID: 100, Status: models.AttendancePresent},
			{StudentID: 999, Status: models.AttendancePresent}, // not enrolled
			{StudentID: 101, Status: models.AttendancePresent},
		},
	})
	if apperrors.KindOf(err) != apperrors.KindFailedPrecondition {
		t.Fatalf("bulk with an unenrolled student should fail, got %v", err)
	}
	if len(f.records.records) != 1 {
		t.Errorf("expected 1 record written before the abort, got %d", len(f.records.records))
	}
}

func TestAttendanceStatsAccess(t *testing.T) {
	f := setupAttendanceTest(t)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	for i, status := range []models.AttendanceStatus{
		models.AttendancePresent, models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate,
	} {
		_, err := f.svc.Record(context.Background(), f.teacher, &dto.RecordAttendanceRequest{
			StudentID: 100, CourseID: 1, Date: day.AddDate(0, 0, i), Status: status,
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := f.svc.Stats(context.Background(), f.parent, 100, 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDays != 4 || stats.Present != 2 || stats.Absent != 1 || stats.Late != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.AttendanceRate != 75 {
		t.Errorf("attendance rate = %v, want 75", stats.AttendanceRate)
	}

	otherStudent := &auth.Principal{ID: 101, Role: models.RoleStudent}
	if _, err := f.svc.Stats(context.Background(), otherStudent, 100, 1); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("students cannot read other students' stats, got %v", err)
	}
}
