package service

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/store"
)

const (
	codeLength   = 6
	codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// VerificationService 发送并校验邮箱验证码。
type VerificationService struct {
	repo   *repository.Repository
	mailer Mailer
	ttl    time.Duration
	now    func() time.Time
}

// NewVerificationService creates a VerificationService. A nil mailer logs
// codes instead of sending them.
func NewVerificationService(repo *repository.Repository, mailer Mailer, ttl time.Duration) *VerificationService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &VerificationService{repo: repo, mailer: mailer, ttl: ttl, now: time.Now}
}

// SendCode mails a fresh code to the owner of email.
func (s *VerificationService) SendCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	rec, err := s.repo.Find(ctx, model.KindUser, store.Query{"email": email})
	if err != nil {
		return err
	}
	user := rec.(*model.User)

	code, err := randomCode(codeLength)
	if err != nil {
		return errors.Wrap(err, "generate verification code")
	}

	body := fmt.Sprintf("Dear %s,\n\nYour Verification Code is %s\n\nWarm Regards,\nOAText Team", user.Username, code)
	if err := s.mailer.Send(ctx, email, "Your OAText Verification Code", body); err != nil {
		return errors.Wrap(err, "send verification code")
	}

	_, err = s.repo.Create(ctx, model.NewVerificationCode(0, email, code, s.now().Add(s.ttl)))
	return err
}

// VerifyCode reports whether code is valid for email. A valid code is
// consumed; an expired one is removed.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	query := store.Query{"email": strings.TrimSpace(email), "code": strings.TrimSpace(code)}
	rec, err := s.repo.Find(ctx, model.KindVerificationCode, query)
	if stderrors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	verification := rec.(*model.VerificationCode)
	valid := !verification.Expired(s.now())
	if err := s.repo.Remove(ctx, model.KindVerificationCode, store.ByID(verification.ID)); err != nil {
		return false, err
	}
	return valid, nil
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
