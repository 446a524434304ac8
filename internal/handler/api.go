package handler

import (
	"time"

	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	repo          *repository.Repository
	users         *service.UserService
	sessions      *service.SessionService
	articles      *service.ArticleService
	comments      *service.CommentService
	rooms         *service.RoomService
	images        *service.ImageService
	verifications *service.VerificationService
}

// Options configures the services behind the handlers.
type Options struct {
	UploadDir           string
	UploadURL           string
	Mailer              service.Mailer
	VerificationCodeTTL time.Duration
}

// NewAPI constructs a handler set with shared services.
func NewAPI(repo *repository.Repository, opts Options) *API {
	sessions := service.NewSessionService(repo)

	return &API{
		repo:          repo,
		users:         service.NewUserService(repo, sessions),
		sessions:      sessions,
		articles:      service.NewArticleService(repo),
		comments:      service.NewCommentService(repo),
		rooms:         service.NewRoomService(repo),
		images:        service.NewImageService(repo, opts.UploadDir, opts.UploadURL),
		verifications: service.NewVerificationService(repo, opts.Mailer, opts.VerificationCodeTTL),
	}
}

// Repository exposes the record repository for tooling paths.
func (a *API) Repository() *repository.Repository {
	return a.repo
}
