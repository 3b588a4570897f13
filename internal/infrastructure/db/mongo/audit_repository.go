package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

const collectionAuthEvents = "auth_events"

// AuditRepository implements ports.AuthEventRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuthEvents)}
}

// Insert persists an event to the auth_events audit collection.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"user_id":      event.UserID,
		"kind":         string(event.Kind),
		"at":           event.At.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.Method != "" {
		doc["method"] = event.Method
	}
	if event.Role != "" {
		doc["role"] = string(event.Role)
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

var _ ports.AuthEventRepository = (*AuditRepository)(nil)
