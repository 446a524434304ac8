package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
)

type recordingMailer struct {
	to   string
	body string
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.to = to
	m.body = body
	return m.err
}

var codePattern = regexp.MustCompile(`Code is ([0-9a-z]{6})`)

func sendAndCapture(t *testing.T, svc *VerificationService, mailer *recordingMailer, email string) string {
	t.Helper()
	require.NoError(t, svc.SendCode(context.Background(), email))
	match := codePattern.FindStringSubmatch(mailer.body)
	require.Len(t, match, 2, "mail body: %s", mailer.body)
	return match[1]
}

func TestVerificationCodeLifecycle(t *testing.T) {
	repo := setupRepo(t)
	user := seedUser(t, repo, "alice")
	mailer := &recordingMailer{}
	svc := NewVerificationService(repo, mailer, time.Minute)
	now := fixedNow
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	code := sendAndCapture(t, svc, mailer, user.Email)
	assert.Equal(t, user.Email, mailer.to)

	ok, err := svc.VerifyCode(ctx, user.Email, "zzzzzz")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VerifyCode(ctx, user.Email, code)
	require.NoError(t, err)
	assert.True(t, ok)

	// consumed
	ok, err = svc.VerifyCode(ctx, user.Email, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerificationCodeExpires(t *testing.T) {
	repo := setupRepo(t)
	user := seedUser(t, repo, "alice")
	mailer := &recordingMailer{}
	svc := NewVerificationService(repo, mailer, time.Minute)
	now := fixedNow
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	code := sendAndCapture(t, svc, mailer, user.Email)
	now = now.Add(time.Minute)

	ok, err := svc.VerifyCode(ctx, user.Email, code)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := repo.Count(ctx, model.KindVerificationCode)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendCodeFailures(t *testing.T) {
	repo := setupRepo(t)
	user := seedUser(t, repo, "alice")
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := NewVerificationService(repo, mailer, 0)
	ctx := context.Background()

	err := svc.SendCode(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	assert.Error(t, svc.SendCode(ctx, user.Email))
	count, err := repo.Count(ctx, model.KindVerificationCode)
	require.NoError(t, err)
	assert.Zero(t, count)
}
