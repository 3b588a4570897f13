package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

const collectionUsers = "users"

// RoleRepository keeps one role record per user, keyed by the identity uid.
type RoleRepository struct {
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionUsers)}
}

// Get returns domain.ErrRoleNotFound when the user has no record.
func (r *RoleRepository) Get(ctx context.Context, userID string) (*domain.RoleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec domain.RoleRecord
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &rec, nil
}

// Upsert merges email and role into the user's record. Other fields on an
// existing record are left untouched.
func (r *RoleRepository) Upsert(ctx context.Context, userID, email string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"email":      email,
			"role":       string(role),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

var _ ports.RoleRepository = (*RoleRepository)(nil)
