package models

type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// BlogContent — всегда трёхуровневая структура, никогда не «голая» строка.
type BlogContent struct {
	Beginner     string `json:"beginner"`
	Intermediate string `json:"intermediate"`
	Expert       string `json:"expert"`
}

type Blog struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Excerpt      string      `json:"excerpt"`
	Content      BlogContent `json:"content"`
	Author       Author      `json:"author"`
	PublishedAt  string      `json:"publishedAt"`
	ReadTime     string      `json:"readTime"`
	Tags         []string    `json:"tags"`
	CoverImage   string      `json:"coverImage"`
	AvgRating    float64     `json:"avgRating"`
	TotalRatings int         `json:"totalRatings"`
	DocType      string      `json:"docType"`
}

type DocType string

const (
	DocTypeOfficial  DocType = "official"
	DocTypeCommunity DocType = "community"
)

func IsValidDocType(docType string) bool {
	switch docType {
	case "official", "community":
		return true
	default:
		return false
	}
}

// BlogsResponse — конверт чтения, который уже потребляет фронтенд.
type BlogsResponse struct {
	Status        string `json:"status"`
	Data          []Blog `json:"data"`
	Total         int    `json:"total"`
	FilteredTotal int    `json:"filteredTotal"`
}

type BlogResponse struct {
	Status string `json:"status"`
	Data   *Blog  `json:"data"`
}
