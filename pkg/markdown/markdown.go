package markdown

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	h1Re         = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headerRe     = regexp.MustCompile(`(?m)^#+\s`)
	boldRe       = regexp.MustCompile(`\*\*.*\*\*`)
	italicRe     = regexp.MustCompile(`\*.*\*`)
	listRe       = regexp.MustCompile(`(?m)^-\s`)
	formattingRe = regexp.MustCompile("[#*`\\[\\]()]")
)

// Validate проверяет базовую корректность markdown-документа.
func Validate(content string) (bool, []string) {
	var errs []string

	if strings.TrimSpace(content) == "" {
		errs = append(errs, "content is empty")
		return false, errs
	}

	// Незакрытые блоки кода
	if strings.Count(content, "```")%2 != 0 {
		errs = append(errs, "unclosed code block detected")
	}

	// Незакрытые скобки ссылок
	if strings.Count(content, "[") != strings.Count(content, "]") {
		errs = append(errs, "unclosed link bracket detected")
	}

	if !headerRe.MatchString(content) &&
		!boldRe.MatchString(content) &&
		!italicRe.MatchString(content) &&
		!listRe.MatchString(content) {
		errs = append(errs, "no markdown formatting detected")
	}

	return len(errs) == 0, errs
}

// ExtractTitle возвращает первый H1-заголовок документа, либо имя файла.
func ExtractTitle(content, filename string) string {
	if m := h1Re.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.TrimSpace(base)
	if base == "" {
		return "Untitled"
	}

	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Excerpt строит короткое описание из первого абзаца.
func Excerpt(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 150
	}

	clean := formattingRe.ReplaceAllString(content, "")

	var first string
	for _, p := range strings.Split(clean, "\n\n") {
		if strings.TrimSpace(p) != "" {
			first = strings.TrimSpace(p)
			break
		}
	}

	if len(first) <= maxLength {
		return first
	}

	cut := first[:maxLength]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// ReadTime оценивает время чтения при скорости 200 слов в минуту.
func ReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := int(math.Round(float64(words) / 200.0))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// HasStructure сообщает, содержит ли текст хотя бы заголовок или разрыв абзаца.
func HasStructure(content string) bool {
	return headerRe.MatchString(content) || strings.Contains(content, "\n\n")
}
