package models

import (
	"time"
)

type GeneratedVariant struct {
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	Level        string    `json:"level" db:"level"`
	Content      string    `json:"content" db:"content"`
	GeneratedAt  time.Time `json:"generated_at" db:"generated_at"`
}

type ExpertiseLevel string

const (
	LevelBeginner     ExpertiseLevel = "beginner"
	LevelIntermediate ExpertiseLevel = "intermediate"
	LevelExpert       ExpertiseLevel = "expert"
)

func (l ExpertiseLevel) String() string {
	return string(l)
}

// AllLevels возвращает уровни в фиксированном порядке.
func AllLevels() []ExpertiseLevel {
	return []ExpertiseLevel{LevelBeginner, LevelIntermediate, LevelExpert}
}

// VariantSet — полный результат генерации: ровно по одному варианту на уровень.
type VariantSet struct {
	Beginner     string `json:"beginner"`
	Intermediate string `json:"intermediate"`
	Expert       string `json:"expert"`
}

func (vs *VariantSet) Get(level ExpertiseLevel) string {
	switch level {
	case LevelBeginner:
		return vs.Beginner
	case LevelIntermediate:
		return vs.Intermediate
	case LevelExpert:
		return vs.Expert
	default:
		return ""
	}
}

func (vs *VariantSet) Set(level ExpertiseLevel, content string) {
	switch level {
	case LevelBeginner:
		vs.Beginner = content
	case LevelIntermediate:
		vs.Intermediate = content
	case LevelExpert:
		vs.Expert = content
	}
}
