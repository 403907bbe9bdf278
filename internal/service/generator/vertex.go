package generator

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/ck496/theCleverDocs/blog-service/internal/models"
)

// --- Prompts уровней экспертизы ---
const generatorSystemPrompt = "You are a technical writer. Your task is to rewrite raw engineering notes into a polished, well-structured markdown blog article targeted at a specific expertise level. Preserve the factual content of the notes; do not invent facts that are not present in them."

const beginnerUserPrompt = `Rewrite the notes below as a blog article for a BEGINNER audience.

Follow these instructions:
1. Explain every technical term the first time it appears, in plain language.
2. Prefer short sentences and concrete examples over abstractions.
3. Use markdown headings, lists and code blocks where they help readability.
4. Start with a '# ' level-one heading containing the article title.

Return ONLY the final markdown article. Do not include any preamble like "Here is the article".`

const intermediateUserPrompt = `Rewrite the notes below as a blog article for an INTERMEDIATE audience — a practitioner familiar with the basics.

Follow these instructions:
1. Keep the full technical content of the notes, adding context and practical examples.
2. Assume standard terminology is known; explain only the unusual parts.
3. Use markdown headings, lists and code blocks where they help readability.
4. Start with a '# ' level-one heading containing the article title.

Return ONLY the final markdown article. Do not include any preamble like "Here is the article".`

const expertUserPrompt = `Rewrite the notes below as a blog article for an EXPERT audience.

Follow these instructions:
1. Go deep: cover edge cases, performance characteristics, scalability and security implications raised by the notes.
2. Assume full command of the domain; skip introductory material.
3. Use markdown headings, lists and code blocks where they help readability.
4. Start with a '# ' level-one heading containing the article title.

Return ONLY the final markdown article. Do not include any preamble like "Here is the article".`

// TextBackend — бэкенд генерации одного варианта. Интерфейс позволяет
// подменять Vertex AI фейком в тестах.
type TextBackend interface {
	GenerateText(ctx context.Context, level models.ExpertiseLevel, title, source string) (string, error)
}

// VertexBackend держит преднастроенную генеративную модель.
type VertexBackend struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

func NewVertexBackend(ctx context.Context, projectID, region, modelName string) (*VertexBackend, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexBackend: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(generatorSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.4),
	}

	return &VertexBackend{
		model:      model,
		baseClient: baseClient,
	}, nil
}

func (b *VertexBackend) GenerateText(ctx context.Context, level models.ExpertiseLevel, title, source string) (string, error) {
	prompt := buildPrompt(level, title, source)

	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("GenerateContent: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", fmt.Errorf("model returned empty response for level %s", level)
	}

	return content, nil
}

func (b *VertexBackend) Close() error {
	if b.baseClient != nil {
		return b.baseClient.Close()
	}
	return nil
}

func buildPrompt(level models.ExpertiseLevel, title, source string) string {
	var userPrompt string
	switch level {
	case models.LevelBeginner:
		userPrompt = beginnerUserPrompt
	case models.LevelIntermediate:
		userPrompt = intermediateUserPrompt
	default:
		userPrompt = expertUserPrompt
	}

	return fmt.Sprintf("%s\n\nArticle title: %s\n\nNotes:\n\n%s", userPrompt, title, source)
}
