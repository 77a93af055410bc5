// Package drive uploads transcript files to a Google Drive folder using a
// service account.
package drive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Scope is the only permission the uploader asks for.
const Scope = drivev3.DriveScope

const mimeType = "text/plain"

type Uploader struct {
	svc    *drivev3.Service
	logger *slog.Logger
}

// NewUploader wraps an existing Drive service.
func NewUploader(svc *drivev3.Service, logger *slog.Logger) *Uploader {
	return &Uploader{svc: svc, logger: logger}
}

// NewFromCredentialsFile builds an uploader authenticated with the service
// account key at path.
func NewFromCredentialsFile(ctx context.Context, path string, logger *slog.Logger, opts ...option.ClientOption) (*Uploader, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(key, Scope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	opts = append([]option.ClientOption{option.WithTokenSource(jwtCfg.TokenSource(ctx))}, opts...)
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return NewUploader(svc, logger), nil
}

// Upload creates a file named after localPath inside folderID and returns
// the new Drive file id. It makes a single request.
func (u *Uploader) Upload(ctx context.Context, localPath, folderID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	meta := &drivev3.File{
		Name:    filepath.Base(localPath),
		Parents: []string{folderID},
	}
	created, err := u.svc.Files.Create(meta).
		Media(f, googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}

	u.logger.Debug("drive file created", "name", meta.Name, "folder_id", folderID, "file_id", created.Id)
	return created.Id, nil
}
