package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/taskhub/internal/user"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ user.Repository = (*UserStore)(nil)

// UserStore implements user.Repository.
type UserStore struct {
	users    *mongo.Collection
	sessions *mongo.Collection
	now      func() time.Time
}

// NewUserStore creates a user store on db.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{
		users:    db.collection(usersCollection),
		sessions: db.collection(sessionsCollection),
		now:      time.Now,
	}
}

// Create inserts a new user. A duplicate email returns user.ErrEmailTaken.
func (s *UserStore) Create(ctx context.Context, name, email, passwordHash string) (*user.User, error) {
	now := s.now().UTC()
	doc := userDoc{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, user.ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return doc.toUser(), nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*user.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

// GetByID returns a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, err
}

// GetByEmail returns a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := s.findOne(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, err
}

// GetByIDs returns the users with the given ids. Unknown ids are skipped.
func (s *UserStore) GetByIDs(ctx context.Context, ids []string) ([]*user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.users.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, fmt.Errorf("getting users by ids: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	users := make([]*user.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toUser())
	}
	return users, nil
}

// CreateSession stores a session for the given token hash.
func (s *UserStore) CreateSession(ctx context.Context, sess user.Session) error {
	doc := sessionDoc{
		TokenHash: sess.TokenHash,
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
	if _, err := s.sessions.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSessionUser returns the user owning an unexpired session.
func (s *UserStore) GetSessionUser(ctx context.Context, tokenHash string) (*user.User, error) {
	var sess sessionDoc
	err := s.sessions.FindOne(ctx, bson.D{
		{Key: "token_hash", Value: tokenHash},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now().UTC()}}},
	}).Decode(&sess)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return s.GetByID(ctx, sess.UserID)
}

// DeleteSession removes a session by its token hash.
func (s *UserStore) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := s.sessions.DeleteOne(ctx, bson.D{{Key: "token_hash", Value: tokenHash}}); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CleanExpiredSessions deletes all sessions that expired before now.
func (s *UserStore) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now}}}})
	if err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}
