package service

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
)

var (
	ErrNotImage      = errors.Wrap(repository.ErrValidation, "only image files can be uploaded")
	ErrImageNotOwned = errors.Wrap(repository.ErrValidation, "image belongs to another user")
)

// ImageService 保存上传的图片文件并登记 Image 记录。
type ImageService struct {
	repo      *repository.Repository
	uploadDir string
	urlPrefix string
	now       func() time.Time
}

// NewImageService stores files under uploadDir and serves them below urlPrefix.
func NewImageService(repo *repository.Repository, uploadDir, urlPrefix string) *ImageService {
	return &ImageService{
		repo:      repo,
		uploadDir: uploadDir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		now:       time.Now,
	}
}

// Save decodes the uploaded file's dimensions, writes it to the upload
// directory under a unique name and records it.
func (s *ImageService) Save(ctx context.Context, owner int64, file *multipart.FileHeader) (*model.Image, error) {
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}
	if _, err := s.repo.User(ctx, owner); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer src.Close()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, errors.Wrapf(ErrNotImage, "decode %s: %v", file.Filename, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind upload")
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	now := s.now().UTC()
	name := fmt.Sprintf("%s-%s%s", now.Format("20060102"), uuid.New().String(), strings.ToLower(filepath.Ext(file.Filename)))
	if err := writeFile(filepath.Join(s.uploadDir, name), src); err != nil {
		return nil, err
	}

	img := model.NewImage(0, model.ImageFields{
		Owner:       owner,
		URL:         path.Join(s.urlPrefix, name),
		FileName:    name,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        file.Size,
	}, now)
	if _, err := s.repo.Create(ctx, img); err != nil {
		os.Remove(filepath.Join(s.uploadDir, name))
		return nil, err
	}
	return img, nil
}

func writeFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "create image file")
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrap(err, "write image file")
	}
	return out.Close()
}

// Get returns an image record unless it has been soft deleted.
func (s *ImageService) Get(ctx context.Context, imageID int64) (*model.Image, error) {
	img, err := s.repo.Image(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img.Status.Deleted() {
		return nil, errors.Wrapf(repository.ErrNotFound, "image %d is deleted", imageID)
	}
	return img, nil
}

// Delete soft deletes an image owned by userID. The file stays on disk.
func (s *ImageService) Delete(ctx context.Context, imageID, userID int64) error {
	_, err := s.repo.ModifyImage(ctx, imageID, func(img *model.Image) error {
		if img.Owner != userID {
			return ErrImageNotOwned
		}
		img.Status = model.StatusDeletedByUser
		return nil
	})
	return err
}
