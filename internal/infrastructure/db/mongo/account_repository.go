package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

const collectionIdentities = "identities"

// AccountRepository stores the identity provider's accounts.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(collectionIdentities)}
}

type mongoAccount struct {
	UID             string            `bson:"_id"`
	Email           string            `bson:"email"`
	DisplayName     string            `bson:"display_name,omitempty"`
	PasswordHash    string            `bson:"password_hash,omitempty"`
	Provider        string            `bson:"provider"`
	ProviderSubject string            `bson:"provider_subject,omitempty"`
	Linked          map[string]string `bson:"linked,omitempty"`
	Disabled        bool              `bson:"disabled"`
	CreatedAt       int64             `bson:"created_at"`
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAccount{
		UID:             a.UID,
		Email:           normalizeEmail(a.Email),
		DisplayName:     a.DisplayName,
		PasswordHash:    a.PasswordHash,
		Provider:        a.Provider,
		ProviderSubject: a.ProviderSubject,
		Linked:          a.LinkedSubjects,
		Disabled:        a.Disabled,
		CreatedAt:       a.CreatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *AccountRepository) FindByUID(ctx context.Context, uid string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

// FindBySubject looks up a federated account by the provider's stable user id.
func (r *AccountRepository) FindBySubject(ctx context.Context, provider, subject string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"provider": provider, "provider_subject": subject},
		bson.M{"linked." + provider: subject},
	}})
}

// LinkSubject attaches a federated subject to an existing account.
func (r *AccountRepository) LinkSubject(ctx context.Context, uid, provider, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"linked." + provider: subject}})
	if err != nil {
		return fmt.Errorf("link subject: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	return &domain.Account{
		UID:             ma.UID,
		Email:           ma.Email,
		DisplayName:     ma.DisplayName,
		PasswordHash:    ma.PasswordHash,
		Provider:        ma.Provider,
		ProviderSubject: ma.ProviderSubject,
		LinkedSubjects:  ma.Linked,
		Disabled:        ma.Disabled,
		CreatedAt:       unixToTime(ma.CreatedAt),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
