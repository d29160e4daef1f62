package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ task.Repository = (*TaskStore)(nil)

// TaskStore implements task.Repository.
type TaskStore struct {
	tasks *mongo.Collection
	now   func() time.Time
}

// NewTaskStore creates a personal task store on db.
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{tasks: db.collection(tasksCollection), now: time.Now}
}

func ownedFilter(ownerID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: ownerID}}
}

// Create inserts a new task owned by ownerID.
func (s *TaskStore) Create(ctx context.Context, ownerID string, f task.Fields) (*task.Task, error) {
	now := s.now().UTC()
	doc := taskDoc{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       f.Title,
		Description: f.Description,
		DueDate:     f.DueDate,
		Priority:    string(f.Priority),
		Status:      string(task.StatusNotStarted),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating personal task: %w", err)
	}
	return doc.toTask(), nil
}

// ListByOwner returns the owner's tasks ordered by due date.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string, status task.Status) ([]*task.Task, error) {
	filter := bson.D{{Key: "user_id", Value: ownerID}}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(status)})
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: 1}})

	cur, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing personal tasks: %w", err)
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding personal tasks: %w", err)
	}
	tasks := make([]*task.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].toTask())
	}
	return tasks, nil
}

func (s *TaskStore) findAndSet(ctx context.Context, ownerID, id string, set bson.D) (*task.Task, error) {
	set = append(set, bson.E{Key: "updated_at", Value: s.now().UTC()})
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDoc
	err := s.tasks.FindOneAndUpdate(ctx, ownedFilter(ownerID, id), bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, task.ErrNotFound
		}
		return nil, err
	}
	return doc.toTask(), nil
}

// Update overwrites the editable fields of an owned task.
func (s *TaskStore) Update(ctx context.Context, ownerID, id string, f task.Fields) (*task.Task, error) {
	t, err := s.findAndSet(ctx, ownerID, id, bson.D{
		{Key: "title", Value: f.Title},
		{Key: "description", Value: f.Description},
		{Key: "due_date", Value: f.DueDate},
		{Key: "priority", Value: string(f.Priority)},
	})
	if err != nil && !errors.Is(err, task.ErrNotFound) {
		return nil, fmt.Errorf("updating personal task: %w", err)
	}
	return t, err
}

// UpdateStatus sets the status of an owned task.
func (s *TaskStore) UpdateStatus(ctx context.Context, ownerID, id string, status task.Status) (*task.Task, error) {
	t, err := s.findAndSet(ctx, ownerID, id, bson.D{{Key: "status", Value: string(status)}})
	if err != nil && !errors.Is(err, task.ErrNotFound) {
		return nil, fmt.Errorf("updating personal task status: %w", err)
	}
	return t, err
}

// Delete removes an owned task.
func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.tasks.DeleteOne(ctx, ownedFilter(ownerID, id))
	if err != nil {
		return fmt.Errorf("deleting personal task: %w", err)
	}
	if res.DeletedCount == 0 {
		return task.ErrNotFound
	}
	return nil
}
