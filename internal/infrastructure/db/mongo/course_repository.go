package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

const (
	collectionCourses     = "courses"
	collectionEnrollments = "enrollments"
)

type CourseRepository struct {
	col *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{col: db.Collection(collectionCourses)}
}

// FindByIDs returns the courses matching ids. Unknown ids are skipped.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// ListByInstructor returns the instructor's courses ordered by title.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]*domain.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	return r.find(ctx, bson.M{"instructor_id": instructorID}, opts)
}

func (r *CourseRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	var courses []*domain.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return courses, nil
}

type EnrollmentRepository struct {
	col *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{col: db.Collection(collectionEnrollments)}
}

// ListByStudent returns the student's enrollments, oldest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.Enrollment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find enrollments: %w", err)
	}
	var out []*domain.Enrollment
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode enrollments: %w", err)
	}
	return out, nil
}

func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return n, nil
}

var (
	_ ports.CourseRepository     = (*CourseRepository)(nil)
	_ ports.EnrollmentRepository = (*EnrollmentRepository)(nil)
)
