package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/store"
)

var (
	ErrInvalidCredentials = stderrors.New("the email and password combination does not exist")
	ErrUsernameTaken      = errors.Wrap(repository.ErrConflict, "username already used")
	ErrEmailTaken         = errors.Wrap(repository.ErrConflict, "email already used")
)

// UserService 负责注册、登录以及用户资料维护。
type UserService struct {
	repo     *repository.Repository
	sessions *SessionService
	now      func() time.Time
}

// NewUserService creates a UserService instance.
func NewUserService(repo *repository.Repository, sessions *SessionService) *UserService {
	return &UserService{repo: repo, sessions: sessions, now: time.Now}
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	NameFirst    string    `json:"nameFirst"`
	NameLast     string    `json:"nameLast"`
	CreateTime   time.Time `json:"createTime"`
	Publications []int64   `json:"publications"`
	Followers    int       `json:"followers"`
	Following    int       `json:"following"`
}

// UserDetailUpdate carries profile edits; empty fields are left unchanged.
type UserDetailUpdate struct {
	Username  string `json:"username"`
	NameFirst string `json:"nameFirst"`
	NameLast  string `json:"nameLast"`
}

// SigninResult identifies the session opened by Signin.
type SigninResult struct {
	UserID    int64 `json:"userId"`
	SessionID int64 `json:"sessionId"`
}

// Signup registers a new account and returns its id.
func (s *UserService) Signup(ctx context.Context, email, password, username string) (int64, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || password == "" || username == "" {
		return 0, errors.Wrap(repository.ErrValidation, "email, password and username are required")
	}
	if err := s.ensureUnique(ctx, "username", username, ErrUsernameTaken); err != nil {
		return 0, err
	}
	if err := s.ensureUnique(ctx, "email", email, ErrEmailTaken); err != nil {
		return 0, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, errors.Wrap(err, "hash password")
	}

	return s.repo.Create(ctx, model.NewUser(0, username, email, string(hashed), s.now().UTC()))
}

func (s *UserService) ensureUnique(ctx context.Context, field, value string, taken error) error {
	_, err := s.repo.Find(ctx, model.KindUser, store.Query{field: value})
	switch {
	case err == nil:
		return taken
	case stderrors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Signin checks the password and opens a session. A wrong password bumps the
// account's failed attempt counter; a correct one resets it.
func (s *UserService) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.Wrap(repository.ErrValidation, "email and password are required")
	}

	rec, err := s.repo.Find(ctx, model.KindUser, store.Query{"email": strings.TrimSpace(email)})
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	user := rec.(*model.User)
	if user.Status.Deleted() {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		if _, err := s.repo.ModifyUser(ctx, user.ID, func(u *model.User) error {
			u.PasswordAttempt++
			return nil
		}); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	var sessionID int64
	_, err = s.repo.ModifyUser(ctx, user.ID, func(u *model.User) error {
		u.PasswordAttempt = 0
		sessionID = AppendSession(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SigninResult{UserID: user.ID, SessionID: sessionID}, nil
}

// Signout closes one session of the user.
func (s *UserService) Signout(ctx context.Context, userID, sessionID int64) error {
	return s.sessions.Close(ctx, userID, sessionID)
}

// Detail returns the public profile of an active user.
func (s *UserService) Detail(ctx context.Context, userID int64) (*UserProfile, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{
		ID:           user.ID,
		Username:     user.Username,
		NameFirst:    user.NameFirst,
		NameLast:     user.NameLast,
		CreateTime:   user.CreateTime,
		Publications: user.Publications,
		Followers:    len(user.Followers),
		Following:    len(user.Following),
	}, nil
}

func (s *UserService) activeUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status.Deleted() {
		return nil, errors.Wrapf(repository.ErrNotFound, "user %d is deleted", userID)
	}
	return user, nil
}

// UpdateDetail applies the non-empty fields of input to the profile.
func (s *UserService) UpdateDetail(ctx context.Context, userID int64, input UserDetailUpdate) (*model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username != "" {
		current, err := s.repo.User(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.Username != input.Username {
			if err := s.ensureUnique(ctx, "username", input.Username, ErrUsernameTaken); err != nil {
				return nil, err
			}
		}
	}

	return s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		if user.Status.Deleted() {
			return errors.Wrapf(repository.ErrNotFound, "user %d is deleted", userID)
		}
		return copier.CopyWithOption(user, &input, copier.Option{IgnoreEmpty: true})
	})
}

// UpdateEmail moves the account to a new, unused email address.
func (s *UserService) UpdateEmail(ctx context.Context, userID int64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Wrap(repository.ErrValidation, "email is required")
	}
	if err := s.ensureUnique(ctx, "email", email, ErrEmailTaken); err != nil {
		return err
	}
	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		user.Email = email
		return nil
	})
	return err
}

// UpdatePassword replaces the password after checking the old one.
func (s *UserService) UpdatePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if newPassword == "" {
		return errors.Wrap(repository.ErrValidation, "new password is required")
	}
	if oldPassword == newPassword {
		return errors.Wrap(repository.ErrValidation, "new password must differ from the old one")
	}
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	_, err = s.repo.ModifyUser(ctx, userID, func(u *model.User) error {
		u.Password = string(hashed)
		return nil
	})
	return err
}

// Delete soft deletes the account and drops all of its sessions.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		user.Status = model.StatusDeletedByUser
		user.ActiveSessions = []int64{}
		return nil
	})
	return err
}

// Follow makes userID follow targetID. Both sides are updated.
func (s *UserService) Follow(ctx context.Context, userID, targetID int64) error {
	return s.setFollow(ctx, userID, targetID, true)
}

// Unfollow reverses Follow.
func (s *UserService) Unfollow(ctx context.Context, userID, targetID int64) error {
	return s.setFollow(ctx, userID, targetID, false)
}

func (s *UserService) setFollow(ctx context.Context, userID, targetID int64, follow bool) error {
	if userID == targetID {
		return errors.Wrap(repository.ErrValidation, "users cannot follow themselves")
	}
	if _, err := s.activeUser(ctx, targetID); err != nil {
		return err
	}

	_, err := s.repo.ModifyUser(ctx, userID, func(user *model.User) error {
		if follow {
			user.Following, _ = model.AddID(user.Following, targetID)
		} else {
			user.Following, _ = model.RemoveID(user.Following, targetID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_, err = s.repo.ModifyUser(ctx, targetID, func(target *model.User) error {
		if follow {
			target.Followers, _ = model.AddID(target.Followers, userID)
		} else {
			target.Followers, _ = model.RemoveID(target.Followers, userID)
		}
		return nil
	})
	return err
}
