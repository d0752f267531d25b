package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"debatehub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockDebateStore is an in-memory DebateStore with the same conditional-update
// semantics as the Mongo implementation. Used by handler tests.
type MockDebateStore struct {
	mu      sync.Mutex
	debates map[string]*models.Debate
}

func NewMockDebateStore() *MockDebateStore {
	return &MockDebateStore{debates: make(map[string]*models.Debate)}
}

func (s *MockDebateStore) CreateDebate(_ context.Context, debate *models.Debate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *debate
	s.debates[debate.RoomID] = &copied
	return nil
}

func (s *MockDebateStore) Debate(_ context.Context, roomID string) (*models.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debate, ok := s.debates[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *debate
	return &copied, nil
}

func (s *MockDebateStore) AddParticipant(_ context.Context, roomID string, p models.Participant) (*models.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debate, ok := s.debates[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	if debate.Status == models.StatusFinished {
		return nil, ErrDebateFinished
	}
	if debate.IsParticipant(p.UserID) {
		return nil, ErrAlreadyParticipant
	}
	capacity := debate.MaxParticipantsA
	if p.Team == models.TeamB {
		capacity = debate.MaxParticipantsB
	}
	if debate.TeamSize(p.Team) >= capacity {
		return nil, ErrTeamFull
	}

	observers := debate.Observers[:0]
	for _, o := range debate.Observers {
		if o.UserID != p.UserID {
			observers = append(observers, o)
		}
	}
	debate.Observers = observers
	debate.Participants = append(debate.Participants, p)

	copied := *debate
	return &copied, nil
}

func (s *MockDebateStore) AddObserver(_ context.Context, roomID string, o models.Observer) (*models.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debate, ok := s.debates[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	if debate.IsParticipant(o.UserID) {
		return nil, ErrAlreadyParticipant
	}
	if debate.IsObserver(o.UserID) {
		return nil, ErrAlreadyObserving
	}
	debate.Observers = append(debate.Observers, o)

	copied := *debate
	return &copied, nil
}

func (s *MockDebateStore) FinishDebate(_ context.Context, roomID string, args []models.Argument, endedAt time.Time) (*models.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debate, ok := s.debates[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	if debate.Status == models.StatusFinished {
		return nil, ErrDebateFinished
	}
	debate.Status = models.StatusFinished
	debate.EndedAt = &endedAt
	debate.Arguments = args

	copied := *debate
	return &copied, nil
}

func (s *MockDebateStore) SaveVerdict(_ context.Context, roomID string, v models.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	debate, ok := s.debates[roomID]
	if !ok {
		return ErrNotFound
	}
	debate.Winner = v.Winner
	debate.Justification = v.Justification
	debate.ScoreTeamA = v.ScoreTeamA
	debate.ScoreTeamB = v.ScoreTeamB
	return nil
}

func (s *MockDebateStore) FinishedDebates(_ context.Context, userID string) ([]models.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Debate
	for _, debate := range s.debates {
		if debate.Status != models.StatusFinished {
			continue
		}
		if debate.IsParticipant(userID) || debate.IsObserver(userID) {
			out = append(out, *debate)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndedAt == nil || out[j].EndedAt == nil {
			return out[j].EndedAt == nil
		}
		return out[i].EndedAt.After(*out[j].EndedAt)
	})
	return out, nil
}

// MockUserStore is an in-memory UserStore for auth tests.
type MockUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by hex id
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{users: make(map[string]*models.User)}
}

func (s *MockUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	copied := *user
	s.users[user.ID.Hex()] = &copied
	return nil
}

func (s *MockUserStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MockUserStore) UserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}
