package ports

import (
	"context"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// EnrollmentRepository reads enrollment records.
type EnrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]*domain.Enrollment, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
}

// CourseRepository reads course records.
type CourseRepository interface {
	// FindByIDs returns the courses found for ids; missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]*domain.Course, error)
}
