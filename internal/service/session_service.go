package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
)

// ErrSessionNotFound 表示会话 id 不在用户的活动会话列表中。
var ErrSessionNotFound = errors.Wrap(repository.ErrValidation, "session not found")

// SessionService keeps the per-user list of active session ids.
type SessionService struct {
	repo *repository.Repository
}

func NewSessionService(repo *repository.Repository) *SessionService {
	return &SessionService{repo: repo}
}

// AppendSession adds a session to user and returns its id: one past the
// highest id ever issued to the user, or 0 for the first session. Ids of
// closed sessions are never issued again.
func AppendSession(user *model.User) int64 {
	id := user.LastSessionID + 1
	if n := len(user.ActiveSessions); n > 0 && user.ActiveSessions[n-1] >= id {
		id = user.ActiveSessions[n-1] + 1
	}
	if id < 0 {
		id = 0
	}
	user.LastSessionID = id
	user.ActiveSessions = append(user.ActiveSessions, id)
	return id
}

// GetSessionIndex returns the position of sessionID in the user's active
// sessions, or -1.
func GetSessionIndex(user *model.User, sessionID int64) int {
	for i, id := range user.ActiveSessions {
		if id == sessionID {
			return i
		}
	}
	return -1
}

// RemoveSession deletes the session at index, keeping the order of the rest.
func RemoveSession(user *model.User, index int) error {
	if index < 0 || index >= len(user.ActiveSessions) {
		return errors.Wrapf(repository.ErrValidation, "session index %d out of range", index)
	}
	user.ActiveSessions = append(user.ActiveSessions[:index], user.ActiveSessions[index+1:]...)
	return nil
}

// AppendSession opens a new session for userID and persists it.
func (s *SessionService) AppendSession(ctx context.Context, userID int64) (int64, error) {
	var sessionID int64
	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		sessionID = AppendSession(user)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sessionID, nil
}

// GetSessionIndex loads the user and looks sessionID up.
func (s *SessionService) GetSessionIndex(ctx context.Context, userID, sessionID int64) (int, error) {
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return -1, err
	}
	return GetSessionIndex(user, sessionID), nil
}

// RemoveSession closes the session at index.
func (s *SessionService) RemoveSession(ctx context.Context, userID int64, index int) error {
	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		return RemoveSession(user, index)
	})
	return err
}

// Close removes sessionID from the user's active sessions.
func (s *SessionService) Close(ctx context.Context, userID, sessionID int64) error {
	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		idx := GetSessionIndex(user, sessionID)
		if idx < 0 {
			return ErrSessionNotFound
		}
		return RemoveSession(user, idx)
	})
	return err
}

// Validate checks that sessionID is active for userID.
func (s *SessionService) Validate(ctx context.Context, userID, sessionID int64) error {
	idx, err := s.GetSessionIndex(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if idx < 0 {
		return ErrSessionNotFound
	}
	return nil
}
