package models

type SubmissionCompletedEvent struct {
	SubmissionID string   `json:"submission_id"`
	OwnerID      string   `json:"owner_id"`
	Title        string   `json:"title"`
	Levels       []string `json:"levels"`
	Timestamp    int64    `json:"timestamp"`
}

type SubmissionFailedEvent struct {
	SubmissionID string `json:"submission_id"`
	OwnerID      string `json:"owner_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Timestamp    int64  `json:"timestamp"`
}
