package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
	"github.com/ck496/theCleverDocs/blog-service/internal/repository"
)

// BlogService — витрина завершённых submissions в форме блогов.
type BlogService interface {
	GetBlogs(ctx context.Context, docType string, tags []string) (*models.BlogsResponse, error)
	GetBlogByID(ctx context.Context, id string) (*models.BlogResponse, error)
}

type blogService struct {
	repo   repository.BlogRepository
	logger zerolog.Logger
}

func NewBlogService(repo repository.BlogRepository, logger zerolog.Logger) BlogService {
	return &blogService{
		repo:   repo,
		logger: logger,
	}
}

func (s *blogService) GetBlogs(ctx context.Context, docType string, tags []string) (*models.BlogsResponse, error) {
	if docType != "" && !models.IsValidDocType(docType) {
		return nil, models.NewPipelineError(models.ErrCodeValidation,
			"docType must be 'official' or 'community'", nil)
	}

	blogs, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodePersistence, "failed to load blogs", err)
	}

	total := len(blogs)
	filtered := filterBlogs(blogs, docType, tags)

	return &models.BlogsResponse{
		Status:        "success",
		Data:          filtered,
		Total:         total,
		FilteredTotal: len(filtered),
	}, nil
}

func (s *blogService) GetBlogByID(ctx context.Context, id string) (*models.BlogResponse, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodePersistence, "failed to load blog", err)
	}
	if blog == nil {
		return nil, models.NewPipelineError(models.ErrCodeNotFound, "blog not found", nil)
	}

	return &models.BlogResponse{
		Status: "success",
		Data:   blog,
	}, nil
}

// filterBlogs — фильтрация в памяти: по типу документа и по тегам
// (регистронезависимо, достаточно совпадения любого тега).
func filterBlogs(blogs []models.Blog, docType string, tags []string) []models.Blog {
	filtered := make([]models.Blog, 0, len(blogs))

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			wanted[strings.ToLower(tag)] = struct{}{}
		}
	}

	for _, blog := range blogs {
		if docType != "" && blog.DocType != docType {
			continue
		}

		if len(wanted) > 0 {
			match := false
			for _, tag := range blog.Tags {
				if _, ok := wanted[strings.ToLower(tag)]; ok {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}

		filtered = append(filtered, blog)
	}

	return filtered
}
