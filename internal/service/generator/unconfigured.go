package generator

import (
	"context"
	"fmt"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// unconfiguredBackend отвечает ошибкой на любой вызов. Используется, когда
// project_id генерации не задан: сервис стартует и обслуживает чтение,
// а заявки на генерацию детерминированно падают.
type unconfiguredBackend struct{}

func NewUnconfiguredBackend() TextBackend {
	return unconfiguredBackend{}
}

func (unconfiguredBackend) GenerateText(_ context.Context, level models.ExpertiseLevel, _, _ string) (string, error) {
	return "", fmt.Errorf("generation backend is not configured (level %s)", level)
}
