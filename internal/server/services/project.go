package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supermega-io/usermemory/internal/common"
	sc "github.com/supermega-io/usermemory/internal/server/config"
	"github.com/supermega-io/usermemory/internal/server/models"
	"github.com/supermega-io/usermemory/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// thumbnailURLTTL bounds how long a presigned thumbnail URL stays usable.
const thumbnailURLTTL = 15 * time.Minute

// ProjectService stores user projects and brokers thumbnail uploads and
// downloads through presigned object-storage URLs. Thumbnail bytes never
// pass through this server.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

// NewProjectService constructs a ProjectService using repositories and server config.
func NewProjectService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *ProjectService {
	return &ProjectService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// GetRandomStorageKey returns a date-partitioned object key for a new thumbnail.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("thumbnails/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// SaveProject stores a new project under a freshly generated id and returns
// it. Re-saves under an existing id are last-writer-wins full replaces.
func (s *ProjectService) SaveProject(ctx context.Context, userID, toolID, name string, data json.RawMessage) (*models.Project, error) {
	if len(data) == 0 {
		data = emptyState
	}

	project := &models.Project{
		ID:     uuid.New().String(),
		UserID: userID,
		ToolID: toolID,
		Name:   name,
		Data:   data,
	}

	repo := s.repomanager.Projects(s.db)
	if err := repo.Upsert(ctx, project); err != nil {
		return nil, fmt.Errorf("error saving project: %v", err)
	}
	return project, nil
}

// GetProjects returns the user's projects, most recently updated first.
// An empty toolID returns projects across all tools.
func (s *ProjectService) GetProjects(ctx context.Context, userID, toolID string) ([]*models.Project, error) {
	repo := s.repomanager.Projects(s.db)

	result, err := repo.ListByUser(ctx, userID, toolID)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %v", err)
	}
	return result, nil
}

func (s *ProjectService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// getOwnedProject loads a project and verifies ownership, mapping a
// mismatched owner to not-found so project ids cannot be probed.
func (s *ProjectService) getOwnedProject(ctx context.Context, projectID, userID string) (*models.Project, error) {
	repo := s.repomanager.Projects(s.db)

	project, err := repo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error getting project: %v", err)
	}
	if project.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return project, nil
}

// GetThumbnailUploadURL issues a presigned PUT URL for the project's
// thumbnail. The first request generates and records a storage key; later
// requests presign the same key, so an upload URL that is never used cannot
// orphan an already-uploaded thumbnail.
func (s *ProjectService) GetThumbnailUploadURL(ctx context.Context, projectID, userID string) (string, error) {
	project, err := s.getOwnedProject(ctx, projectID, userID)
	if err != nil {
		return "", err
	}

	key := project.ThumbnailKey
	if key == "" {
		key = GetRandomStorageKey()
		repo := s.repomanager.Projects(s.db)
		if err := repo.SetThumbnailKey(ctx, projectID, key); err != nil {
			return "", fmt.Errorf("error storing thumbnail key: %v", err)
		}
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(thumbnailURLTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// GetThumbnailDownloadURL issues a presigned GET URL for the project's
// stored thumbnail. Projects without a thumbnail report not-found.
func (s *ProjectService) GetThumbnailDownloadURL(ctx context.Context, projectID, userID string) (string, error) {
	project, err := s.getOwnedProject(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if project.ThumbnailKey == "" {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &project.ThumbnailKey,
	}, s3.WithPresignExpires(thumbnailURLTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
