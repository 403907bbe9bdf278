package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// BlogRepository — путь чтения для слоя представления: завершённые
// submissions, собранные в форму Blog вместе с тремя вариантами.
type BlogRepository interface {
	GetAll(ctx context.Context) ([]models.Blog, error)
	GetByID(ctx context.Context, id string) (*models.Blog, error)
}

type blogRepository struct {
	*PostgresRepository
}

func NewBlogRepository(db *sql.DB, logger zerolog.Logger) BlogRepository {
	return &blogRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const blogSelectQuery = `
	SELECT
		s.id, s.owner_id, s.title, s.excerpt, s.read_time, s.tags, s.created_at,
		v.level, v.content
	FROM submissions s
	JOIN generated_variants v ON v.submission_id = s.id
	WHERE s.status = 'completed'
`

func (r *blogRepository) GetAll(ctx context.Context) ([]models.Blog, error) {
	query := blogSelectQuery + ` ORDER BY s.created_at DESC, s.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBlogs(rows)
}

func (r *blogRepository) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	query := blogSelectQuery + ` AND s.id = $1`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs, err := scanBlogs(rows)
	if err != nil {
		return nil, err
	}
	if len(blogs) == 0 {
		return nil, nil
	}

	return &blogs[0], nil
}

// scanBlogs собирает строки join-а (по одной на вариант) в записи Blog.
func scanBlogs(rows *sql.Rows) ([]models.Blog, error) {
	var blogs []models.Blog
	index := make(map[string]int)

	for rows.Next() {
		var (
			id, ownerID, title, excerpt, readTime string
			tags                                  []string
			createdAt                             sql.NullTime
			level, content                        string
		)

		if err := rows.Scan(&id, &ownerID, &title, &excerpt, &readTime, pq.Array(&tags), &createdAt, &level, &content); err != nil {
			return nil, err
		}

		pos, ok := index[id]
		if !ok {
			blog := models.Blog{
				ID:       id,
				Title:    title,
				Excerpt:  excerpt,
				ReadTime: readTime,
				Tags:     tags,
				Author: models.Author{
					Name:   ownerID,
					Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + ownerID,
				},
				CoverImage: defaultCoverImage,
				DocType:    string(models.DocTypeCommunity),
			}
			if createdAt.Valid {
				blog.PublishedAt = createdAt.Time.Format("2006-01-02")
			}
			blogs = append(blogs, blog)
			pos = len(blogs) - 1
			index[id] = pos
		}

		switch models.ExpertiseLevel(level) {
		case models.LevelBeginner:
			blogs[pos].Content.Beginner = content
		case models.LevelIntermediate:
			blogs[pos].Content.Intermediate = content
		case models.LevelExpert:
			blogs[pos].Content.Expert = content
		}
	}

	return blogs, rows.Err()
}

const defaultCoverImage = "https://images.unsplash.com/photo-1516116216624-53e697fedbea?w=800&q=80"
