package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

type fakeBlogRepo struct {
	blogs []models.Blog
	err   error
}

func (r *fakeBlogRepo) GetAll(_ context.Context) ([]models.Blog, error) {
	return r.blogs, r.err
}

func (r *fakeBlogRepo) GetByID(_ context.Context, id string) (*models.Blog, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.blogs {
		if r.blogs[i].ID == id {
			return &r.blogs[i], nil
		}
	}
	return nil, nil
}

func testBlogs() []models.Blog {
	return []models.Blog{
		{ID: "b1", Title: "Caching", Tags: []string{"Tech", "Tutorial"}, DocType: "community"},
		{ID: "b2", Title: "Queues", Tags: []string{"Tech"}, DocType: "official"},
		{ID: "b3", Title: "Sharding", Tags: []string{"Database"}, DocType: "community"},
	}
}

func TestGetBlogsEnvelope(t *testing.T) {
	svc := NewBlogService(&fakeBlogRepo{blogs: testBlogs()}, zerolog.Nop())

	resp, err := svc.GetBlogs(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 3, resp.FilteredTotal)
	assert.Len(t, resp.Data, 3)
}

func TestGetBlogsFilters(t *testing.T) {
	svc := NewBlogService(&fakeBlogRepo{blogs: testBlogs()}, zerolog.Nop())

	t.Run("by doc type", func(t *testing.T) {
		resp, err := svc.GetBlogs(context.Background(), "community", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.FilteredTotal)
	})

	t.Run("by tag case-insensitive", func(t *testing.T) {
		resp, err := svc.GetBlogs(context.Background(), "", []string{"TUTORIAL"})
		require.NoError(t, err)
		require.Equal(t, 1, resp.FilteredTotal)
		assert.Equal(t, "b1", resp.Data[0].ID)
	})

	t.Run("any tag matches", func(t *testing.T) {
		resp, err := svc.GetBlogs(context.Background(), "", []string{"database", "tutorial"})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.FilteredTotal)
	})

	t.Run("invalid doc type rejected", func(t *testing.T) {
		_, err := svc.GetBlogs(context.Background(), "secret", nil)
		require.Error(t, err)
		assert.Equal(t, models.ErrCodeValidation, models.Classify(err).Code)
	})
}

func TestGetBlogByID(t *testing.T) {
	svc := NewBlogService(&fakeBlogRepo{blogs: testBlogs()}, zerolog.Nop())

	resp, err := svc.GetBlogByID(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Queues", resp.Data.Title)

	_, err = svc.GetBlogByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNotFound, models.Classify(err).Code)
}
