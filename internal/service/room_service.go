package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
)

// ErrNotMember 表示用户不在该聊天室中。
var ErrNotMember = errors.Wrap(repository.ErrValidation, "user is not a member of this room")

// RoomService manages direct message rooms.
type RoomService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewRoomService(repo *repository.Repository) *RoomService {
	return &RoomService{repo: repo, now: time.Now}
}

// Create opens a room for members. Every member must be an existing user.
func (s *RoomService) Create(ctx context.Context, members []int64, name string) (*model.Room, error) {
	if len(members) == 0 {
		return nil, errors.Wrap(repository.ErrValidation, "a room needs at least one member")
	}
	for _, uid := range members {
		if _, err := s.repo.User(ctx, uid); err != nil {
			return nil, errors.Wrapf(err, "load room member %d", uid)
		}
	}

	room := model.NewRoom(0, members, strings.TrimSpace(name))
	if _, err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Get returns a room unless it has been soft deleted.
func (s *RoomService) Get(ctx context.Context, roomID int64) (*model.Room, error) {
	room, err := s.repo.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status.Deleted() {
		return nil, errors.Wrapf(repository.ErrNotFound, "room %d is deleted", roomID)
	}
	return room, nil
}

// SendMessage appends a message from author. quote is model.NoQuote or the
// index of an earlier message.
func (s *RoomService) SendMessage(ctx context.Context, roomID, author int64, body string, quote int64) (*model.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.Wrap(repository.ErrValidation, "message body is empty")
	}

	var sent model.Message
	_, err := s.repo.ModifyRoom(ctx, roomID, func(room *model.Room) error {
		if room.Status.Deleted() {
			return errors.Wrapf(repository.ErrNotFound, "room %d is deleted", roomID)
		}
		if !room.IsMember(author) {
			return ErrNotMember
		}
		if quote >= int64(len(room.Messages)) {
			return errors.Wrapf(repository.ErrValidation, "quoted message %d does not exist", quote)
		}
		sent = model.NewMessage(author, quote, body, s.now().UTC())
		room.Messages = append(room.Messages, sent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sent, nil
}

// ChangeNickname sets the nickname uid uses in the room. An empty nickname
// clears it.
func (s *RoomService) ChangeNickname(ctx context.Context, roomID, uid int64, nickname string) error {
	_, err := s.repo.ModifyRoom(ctx, roomID, func(room *model.Room) error {
		if !room.IsMember(uid) {
			return ErrNotMember
		}
		key := strconv.FormatInt(uid, 10)
		if nickname = strings.TrimSpace(nickname); nickname == "" {
			delete(room.Nicknames, key)
		} else {
			if room.Nicknames == nil {
				room.Nicknames = map[string]string{}
			}
			room.Nicknames[key] = nickname
		}
		return nil
	})
	return err
}

// Join adds uid to the room.
func (s *RoomService) Join(ctx context.Context, roomID, uid int64) error {
	if _, err := s.repo.User(ctx, uid); err != nil {
		return err
	}
	_, err := s.repo.ModifyRoom(ctx, roomID, func(room *model.Room) error {
		room.Members, _ = model.AddID(room.Members, uid)
		return nil
	})
	return err
}

// Leave removes uid and its nickname from the room.
func (s *RoomService) Leave(ctx context.Context, roomID, uid int64) error {
	_, err := s.repo.ModifyRoom(ctx, roomID, func(room *model.Room) error {
		var removed bool
		room.Members, removed = model.RemoveID(room.Members, uid)
		if !removed {
			return ErrNotMember
		}
		delete(room.Nicknames, strconv.FormatInt(uid, 10))
		return nil
	})
	return err
}
