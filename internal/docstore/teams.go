package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ team.Repository = (*TeamStore)(nil)

// TeamStore implements team.Repository. Content lives in the team document's
// content array and is updated positionally.
type TeamStore struct {
	teams *mongo.Collection
	now   func() time.Time
}

// NewTeamStore creates a team store on db.
func NewTeamStore(db *DB) *TeamStore {
	return &TeamStore{teams: db.collection(teamsCollection), now: time.Now}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// Create inserts a team with the creator as its only member.
func (s *TeamStore) Create(ctx context.Context, creatorID, name string, maxMembers int) (*team.Team, error) {
	now := s.now().UTC()
	doc := teamDoc{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedBy:  creatorID,
		Members:    []string{creatorID},
		MaxMembers: maxMembers,
		Content:    []contentDoc{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.teams.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, team.ErrNameTaken
		}
		return nil, fmt.Errorf("creating team: %w", err)
	}
	return doc.toTeam(), nil
}

func (s *TeamStore) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*teamDoc, error) {
	var doc teamDoc
	if err := s.teams.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, team.ErrTeamNotFound
		}
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return &doc, nil
}

// findAndUpdate applies update to the document matching filter. No match is
// reported as noMatch.
func (s *TeamStore) findAndUpdate(ctx context.Context, filter, update bson.D, noMatch error) (*teamDoc, error) {
	var doc teamDoc
	if err := s.teams.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, noMatch
		}
		return nil, fmt.Errorf("updating team: %w", err)
	}
	return &doc, nil
}

// Get returns a team with its content.
func (s *TeamStore) Get(ctx context.Context, id string) (*team.Team, error) {
	doc, err := s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	return doc.toTeam(), nil
}

// GetOwned returns a team created by creatorID, without content.
func (s *TeamStore) GetOwned(ctx context.Context, id, creatorID string) (*team.Team, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "content", Value: 0}})
	doc, err := s.findOne(ctx, ownedTeamFilter(id, creatorID), opts)
	if err != nil {
		return nil, err
	}
	return doc.toTeam(), nil
}

// ListByMember returns every team userID belongs to.
func (s *TeamStore) ListByMember(ctx context.Context, userID string) ([]*team.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.teams.Find(ctx, bson.D{{Key: "members", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	var docs []teamDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding teams: %w", err)
	}
	teams := make([]*team.Team, 0, len(docs))
	for i := range docs {
		teams = append(teams, docs[i].toTeam())
	}
	return teams, nil
}

// AddMember appends memberID under the owner, uniqueness and capacity
// conditions.
func (s *TeamStore) AddMember(ctx context.Context, id, creatorID, memberID string) (*team.Team, error) {
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "members", Value: memberID}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now().UTC()}}},
	}
	doc, err := s.findAndUpdate(ctx, addMemberFilter(id, creatorID, memberID), update, team.ErrModified)
	if err != nil {
		return nil, err
	}
	return doc.toTeam(), nil
}

// RemoveMember pulls memberID from the team unless it is the creator.
func (s *TeamStore) RemoveMember(ctx context.Context, id, memberID string) (*team.Team, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "created_by", Value: bson.D{{Key: "$ne", Value: memberID}}},
	}
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "members", Value: memberID}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now().UTC()}}},
	}
	doc, err := s.findAndUpdate(ctx, filter, update, team.ErrModified)
	if err != nil {
		return nil, err
	}
	return doc.toTeam(), nil
}

// SetMaxMembers updates the member limit of a team owned by creatorID.
func (s *TeamStore) SetMaxMembers(ctx context.Context, id, creatorID string, maxMembers int) (*team.Team, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "max_members", Value: maxMembers},
		{Key: "updated_at", Value: s.now().UTC()},
	}}}
	doc, err := s.findAndUpdate(ctx, ownedTeamFilter(id, creatorID), update, team.ErrTeamNotFound)
	if err != nil {
		return nil, err
	}
	return doc.toTeam(), nil
}

// Delete removes a team owned by creatorID together with its content.
func (s *TeamStore) Delete(ctx context.Context, id, creatorID string) error {
	res, err := s.teams.DeleteOne(ctx, ownedTeamFilter(id, creatorID))
	if err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	if res.DeletedCount == 0 {
		return team.ErrTeamNotFound
	}
	return nil
}

// AddContent pushes all items in one update guarded by membership.
func (s *TeamStore) AddContent(ctx context.Context, teamID, memberID string, items []*team.Content) error {
	if len(items) == 0 {
		return nil
	}

	docs := make([]contentDoc, 0, len(items))
	required := []string{memberID}
	for _, c := range items {
		docs = append(docs, newContentDoc(c))
		required = append(required, c.AssignedTo...)
	}

	filter := bson.D{
		{Key: "_id", Value: teamID},
		{Key: "members", Value: bson.D{{Key: "$all", Value: required}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "content", Value: bson.D{{Key: "$each", Value: docs}}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now().UTC()}}},
	}

	res, err := s.teams.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("adding team tasks: %w", err)
	}
	if res.MatchedCount == 0 {
		return team.ErrModified
	}
	return nil
}

// UpdateContent applies a patch to content created by creatorID.
func (s *TeamStore) UpdateContent(ctx context.Context, teamID, contentID, creatorID string, patch team.ContentPatch) (*team.Content, error) {
	set := contentSet(patch, s.now().UTC())
	if len(set) == 1 {
		return nil, team.ErrUpdateFieldsRequired
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(contentArrayFilter(contentID))

	var doc teamDoc
	err := s.teams.FindOneAndUpdate(ctx,
		creatorContentFilter(teamID, contentID, creatorID, patch.AssignedTo),
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, team.ErrModified
		}
		return nil, fmt.Errorf("updating team task: %w", err)
	}
	c := doc.findContent(contentID)
	if c == nil {
		return nil, team.ErrModified
	}
	return c, nil
}

// SetContentStatus changes the status of content assigned to assigneeID.
func (s *TeamStore) SetContentStatus(ctx context.Context, teamID, contentID, assigneeID string, status task.Status) (*team.Content, error) {
	filter := bson.D{
		{Key: "_id", Value: teamID},
		{Key: "content", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "id", Value: contentID},
			{Key: "assigned_to", Value: assigneeID},
		}}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content.$.status", Value: string(status)},
		{Key: "content.$.updated_at", Value: s.now().UTC()},
	}}}

	doc, err := s.findAndUpdate(ctx, filter, update, team.ErrModified)
	if err != nil {
		return nil, err
	}
	c := doc.findContent(contentID)
	if c == nil {
		return nil, team.ErrModified
	}
	return c, nil
}

// DeleteContent pulls content created by creatorID while they are a member.
func (s *TeamStore) DeleteContent(ctx context.Context, teamID, contentID, creatorID string) error {
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "content", Value: bson.D{{Key: "id", Value: contentID}}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now().UTC()}}},
	}
	res, err := s.teams.UpdateOne(ctx, creatorContentFilter(teamID, contentID, creatorID, nil), update)
	if err != nil {
		return fmt.Errorf("deleting team task: %w", err)
	}
	if res.MatchedCount == 0 {
		return team.ErrModified
	}
	return nil
}

func ownedTeamFilter(id, creatorID string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "created_by", Value: creatorID}}
}

// addMemberFilter matches the team only while creatorID owns it, memberID is
// absent and the member count is below max_members.
func addMemberFilter(id, creatorID, memberID string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "created_by", Value: creatorID},
		{Key: "members", Value: bson.D{{Key: "$ne", Value: memberID}}},
		{Key: "$expr", Value: bson.D{{Key: "$lt", Value: bson.A{
			bson.D{{Key: "$size", Value: "$members"}},
			"$max_members",
		}}}},
	}
}

// creatorContentFilter matches the team while creatorID is a member and the
// creator of the content entry. Extra assignees must also be members.
func creatorContentFilter(teamID, contentID, creatorID string, assignees []string) bson.D {
	required := append([]string{creatorID}, assignees...)
	return bson.D{
		{Key: "_id", Value: teamID},
		{Key: "members", Value: bson.D{{Key: "$all", Value: required}}},
		{Key: "content", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "id", Value: contentID},
			{Key: "created_by", Value: creatorID},
		}}}},
	}
}

func contentArrayFilter(contentID string) options.ArrayFilters {
	return options.ArrayFilters{Filters: []interface{}{bson.D{{Key: "c.id", Value: contentID}}}}
}

// contentSet builds $set fields for a patch addressed through the "c" array
// filter. The timestamp is always included.
func contentSet(patch team.ContentPatch, now time.Time) bson.D {
	var set bson.D
	if patch.Title != nil {
		set = append(set, bson.E{Key: "content.$[c].title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "content.$[c].description", Value: *patch.Description})
	}
	if patch.DueDate != nil {
		set = append(set, bson.E{Key: "content.$[c].due_date", Value: *patch.DueDate})
	}
	if patch.Priority != nil {
		set = append(set, bson.E{Key: "content.$[c].priority", Value: string(*patch.Priority)})
	}
	if patch.AssignedTo != nil {
		set = append(set, bson.E{Key: "content.$[c].assigned_to", Value: patch.AssignedTo})
	}
	return append(set, bson.E{Key: "content.$[c].updated_at", Value: now})
}
