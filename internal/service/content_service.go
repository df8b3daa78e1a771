package service

import (
	"context"
	"path"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/repository"
	"alcyxob/gym-saas/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UploadTicket is what a client needs to PUT a file straight to storage.
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ContentInput describes an uploaded file being added to the library.
type ContentInput struct {
	ObjectKey   string
	Title       string
	Description string
	ContentType domain.ContentType
	IsPublic    bool
	Tags        []string
}

// ContentService manages the gym's file library.
type ContentService interface {
	RequestUpload(ctx context.Context, p domain.Principal, mimeType, fileName string) (*UploadTicket, error)
	ConfirmUpload(ctx context.Context, p domain.Principal, in ContentInput) (*domain.ContentItem, error)
	ListContent(ctx context.Context, p domain.Principal, search string) ([]domain.ContentItem, error)
	DownloadURL(ctx context.Context, p domain.Principal, itemID primitive.ObjectID) (string, error)
	DeleteContent(ctx context.Context, p domain.Principal, itemID primitive.ObjectID) error
}

type contentService struct {
	items         repository.ContentRepository
	files         storage.FileStorage
	subscriptions SubscriptionService
	urlExpiry     time.Duration
	now           Clock
}

func NewContentService(
	items repository.ContentRepository,
	files storage.FileStorage,
	subscriptions SubscriptionService,
	urlExpiry time.Duration,
	clock Clock,
) ContentService {
	if urlExpiry <= 0 {
		urlExpiry = storage.DefaultPresignedURLExpiry
	}
	return &contentService{
		items:         items,
		files:         files,
		subscriptions: subscriptions,
		urlExpiry:     urlExpiry,
		now:           clockOrSystem(clock),
	}
}

func (s *contentService) RequestUpload(ctx context.Context, p domain.Principal, mimeType, fileName string) (*UploadTicket, error) {
	gymID, err := requireCap(p, domain.CapManageContent)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, invalid("file name is required")
	}
	if strings.TrimSpace(mimeType) == "" {
		return nil, invalid("content type is required")
	}
	if err := requirePlanFeature(ctx, s.subscriptions, gymID, domain.FeatureContentLibrary); err != nil {
		return nil, err
	}

	key := storage.NewContentKey(gymID, fileName)
	url, err := s.files.GeneratePresignedUploadURL(ctx, key, mimeType, s.urlExpiry)
	if err != nil {
		return nil, upstream(ctx, "presign upload", err)
	}
	return &UploadTicket{UploadURL: url, ObjectKey: key, ExpiresAt: s.now().Add(s.urlExpiry)}, nil
}

// ConfirmUpload records an uploaded object as a library item.
func (s *contentService) ConfirmUpload(ctx context.Context, p domain.Principal, in ContentInput) (*domain.ContentItem, error) {
	gymID, err := requireCap(p, domain.CapManageContent)
	if err != nil {
		return nil, err
	}
	if !storage.OwnsKey(gymID, in.ObjectKey) {
		return nil, invalid("object key does not belong to this gym")
	}
	if !in.ContentType.Valid() {
		return nil, invalid("unknown content type %q", in.ContentType)
	}
	if err := requirePlanFeature(ctx, s.subscriptions, gymID, domain.FeatureContentLibrary); err != nil {
		return nil, err
	}

	exists, err := s.files.ObjectExists(ctx, in.ObjectKey)
	if err != nil {
		return nil, upstream(ctx, "check uploaded object", err)
	}
	if !exists {
		return nil, ErrUploadMissing
	}

	fileName := path.Base(in.ObjectKey)
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fileName
	}
	item := &domain.ContentItem{
		GymID:       gymID,
		Title:       title,
		Description: in.Description,
		ContentType: in.ContentType,
		ObjectKey:   in.ObjectKey,
		FileName:    fileName,
		Tags:        domain.CleanTags(in.Tags),
		IsPublic:    in.IsPublic,
		CreatedBy:   p.ProfileID,
	}
	if _, err := s.items.Create(ctx, item); err != nil {
		return nil, upstream(ctx, "create content item", err)
	}
	return item, nil
}

// ListContent shows members only public items.
func (s *contentService) ListContent(ctx context.Context, p domain.Principal, search string) ([]domain.ContentItem, error) {
	gymID, err := requireCap(p, domain.CapViewContent)
	if err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, gymID, p.Role == domain.RoleMember, search)
	if err != nil {
		return nil, upstream(ctx, "list content", err)
	}
	return items, nil
}

func (s *contentService) DownloadURL(ctx context.Context, p domain.Principal, itemID primitive.ObjectID) (string, error) {
	gymID, err := requireCap(p, domain.CapViewContent)
	if err != nil {
		return "", err
	}
	item, err := s.items.GetByID(ctx, gymID, itemID)
	if err != nil {
		return "", notFoundOr(ctx, "load content", err, ErrContentNotFound)
	}
	if p.Role == domain.RoleMember && !item.IsPublic {
		return "", ErrContentNotFound
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, item.ObjectKey, s.urlExpiry)
	if err != nil {
		return "", upstream(ctx, "presign download", err)
	}
	return url, nil
}

// DeleteContent removes the metadata first; a leftover object is only logged.
func (s *contentService) DeleteContent(ctx context.Context, p domain.Principal, itemID primitive.ObjectID) error {
	gymID, err := requireCap(p, domain.CapManageContent)
	if err != nil {
		return err
	}
	item, err := s.items.GetByID(ctx, gymID, itemID)
	if err != nil {
		return notFoundOr(ctx, "load content", err, ErrContentNotFound)
	}
	if err := s.items.Delete(ctx, gymID, itemID); err != nil {
		return notFoundOr(ctx, "delete content", err, ErrContentNotFound)
	}
	if err := s.files.DeleteObject(ctx, item.ObjectKey); err != nil {
		logger.FromContext(ctx).Warn("orphaned content object", zap.String("key", item.ObjectKey), zap.Error(err))
	}
	return nil
}
