package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

const indexTimeout = 30 * time.Second

// EnsureIndexes creates the unique email index and the federated subject
// lookup indexes on the identities collection.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_subject", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{
				"provider_subject": bson.M{"$exists": true},
			}),
		},
		{Keys: bson.D{{Key: "linked." + domain.ProviderGoogle, Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// EnsureIndexes creates the email lookup index on the users collection.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}})
	return err
}

func (r *CourseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "instructor_id", Value: 1}, {Key: "title", Value: 1}},
	})
	return err
}

func (r *EnrollmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "enrolled_at", Value: 1}}},
		{Keys: bson.D{{Key: "course_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}
