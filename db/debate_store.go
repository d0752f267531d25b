package db

import (
	"context"
	"time"

	"debatehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DebateStore is the durable side of a debate room. The Mongo implementation
// performs roster and status mutations as single conditional updates so that
// concurrent joins or duplicate end calls cannot corrupt the aggregate.
type DebateStore interface {
	CreateDebate(ctx context.Context, debate *models.Debate) error
	Debate(ctx context.Context, roomID string) (*models.Debate, error)
	// AddParticipant appends p to the roster if and only if the debate exists,
	// is not finished, p.UserID is not already a participant and p's team has
	// room. A matching observer entry is removed in the same update.
	AddParticipant(ctx context.Context, roomID string, p models.Participant) (*models.Debate, error)
	// AddObserver appends o if the debate exists and o.UserID holds no role yet.
	AddObserver(ctx context.Context, roomID string, o models.Observer) (*models.Debate, error)
	// FinishDebate transitions the debate to finished, stamping endedAt and
	// storing the transcript. The update is guarded by status != finished, so a
	// second call fails with ErrDebateFinished and leaves the transcript alone.
	FinishDebate(ctx context.Context, roomID string, args []models.Argument, endedAt time.Time) (*models.Debate, error)
	// SaveVerdict overwrites the verdict fields. Transcript and rosters are
	// never touched by analysis.
	SaveVerdict(ctx context.Context, roomID string, v models.Verdict) error
	// FinishedDebates lists finished debates the user participated in or
	// observed, most recently ended first.
	FinishedDebates(ctx context.Context, userID string) ([]models.Debate, error)
}

type MongoDebateStore struct {
	debates *mongo.Collection
}

func NewMongoDebateStore(database *mongo.Database) *MongoDebateStore {
	return &MongoDebateStore{debates: database.Collection("debates")}
}

func (s *MongoDebateStore) CreateDebate(ctx context.Context, debate *models.Debate) error {
	_, err := s.debates.InsertOne(ctx, debate)
	return err
}

func (s *MongoDebateStore) Debate(ctx context.Context, roomID string) (*models.Debate, error) {
	var debate models.Debate
	err := s.debates.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&debate)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &debate, nil
}

func (s *MongoDebateStore) AddParticipant(ctx context.Context, roomID string, p models.Participant) (*models.Debate, error) {
	capField := "$maxParticipantsA"
	if p.Team == models.TeamB {
		capField = "$maxParticipantsB"
	}

	// Append-if-absent as one conditional update: the filter re-checks
	// everything the caller validated, closing the read-write race window
	// between concurrent joins.
	filter := bson.M{
		"roomId":              roomID,
		"status":              bson.M{"$ne": models.StatusFinished},
		"participants.userId": bson.M{"$ne": p.UserID},
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$participants",
				"cond":  bson.M{"$eq": bson.A{"$$this.team", p.Team}},
			}}},
			capField,
		}},
	}
	update := bson.M{
		"$push": bson.M{"participants": p},
		"$pull": bson.M{"observers": bson.M{"userId": p.UserID}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Debate
	err := s.debates.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, s.classifyJoinFailure(ctx, roomID, p.UserID, p.Team)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// classifyJoinFailure re-reads the debate to report why a conditional join
// matched nothing.
func (s *MongoDebateStore) classifyJoinFailure(ctx context.Context, roomID, userID string, team models.Team) error {
	debate, err := s.Debate(ctx, roomID)
	if err != nil {
		return err
	}
	if debate.Status == models.StatusFinished {
		return ErrDebateFinished
	}
	if debate.IsParticipant(userID) {
		return ErrAlreadyParticipant
	}
	capacity := debate.MaxParticipantsA
	if team == models.TeamB {
		capacity = debate.MaxParticipantsB
	}
	if debate.TeamSize(team) >= capacity {
		return ErrTeamFull
	}
	// Lost a race that has since resolved; treat as duplicate join.
	return ErrAlreadyParticipant
}

func (s *MongoDebateStore) AddObserver(ctx context.Context, roomID string, o models.Observer) (*models.Debate, error) {
	filter := bson.M{
		"roomId":              roomID,
		"participants.userId": bson.M{"$ne": o.UserID},
		"observers.userId":    bson.M{"$ne": o.UserID},
	}
	update := bson.M{"$push": bson.M{"observers": o}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Debate
	err := s.debates.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		debate, derr := s.Debate(ctx, roomID)
		if derr != nil {
			return nil, derr
		}
		if debate.IsParticipant(o.UserID) {
			return nil, ErrAlreadyParticipant
		}
		return nil, ErrAlreadyObserving
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *MongoDebateStore) FinishDebate(ctx context.Context, roomID string, args []models.Argument, endedAt time.Time) (*models.Debate, error) {
	filter := bson.M{
		"roomId": roomID,
		"status": bson.M{"$ne": models.StatusFinished},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.StatusFinished,
		"endedAt":   endedAt,
		"arguments": args,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Debate
	err := s.debates.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		if _, derr := s.Debate(ctx, roomID); derr != nil {
			return nil, derr
		}
		return nil, ErrDebateFinished
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *MongoDebateStore) SaveVerdict(ctx context.Context, roomID string, v models.Verdict) error {
	update := bson.M{"$set": bson.M{
		"winner":        v.Winner,
		"justification": v.Justification,
		"score_team_a":  v.ScoreTeamA,
		"score_team_b":  v.ScoreTeamB,
	}}
	res, err := s.debates.UpdateOne(ctx, bson.M{"roomId": roomID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoDebateStore) FinishedDebates(ctx context.Context, userID string) ([]models.Debate, error) {
	filter := bson.M{
		"status": models.StatusFinished,
		"$or": bson.A{
			bson.M{"participants.userId": userID},
			bson.M{"observers.userId": userID},
		},
	}
	opts := options.Find().SetSort(bson.M{"endedAt": -1})

	cursor, err := s.debates.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var debates []models.Debate
	if err := cursor.All(ctx, &debates); err != nil {
		return nil, err
	}
	return debates, nil
}
