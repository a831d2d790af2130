package models

// ===== SESSION DTOs =====

type SessionResponse struct {
	Token         string `json:"token"`
	StartAt       int64  `json:"startAt"`
	EndAt         int64  `json:"endAt"`
	PrepEndAt     int64  `json:"prepEndAt"`
	AnswerStartAt int64  `json:"answerStartAt"`
	PrepMs        int64  `json:"prepMs"`
	AnswerMs      int64  `json:"answerMs"`
	ServerNow     int64  `json:"serverNow"`
	Label         string `json:"label"`
}

// ===== SCORING DTOs =====

type SubscoreFeedback struct {
	Score      int    `json:"score"`
	Band       int    `json:"band"`
	Descriptor string `json:"descriptor"`
}

type Feedback struct {
	Band       int                         `json:"band"`
	Descriptor string                      `json:"descriptor"`
	Subscores  map[string]SubscoreFeedback `json:"subscores"`
}

type AttemptResponse struct {
	Attempt  *Attempt       `json:"attempt"`
	Scores   *ScoringResult `json:"scores"`
	Feedback *Feedback      `json:"feedback"`
}

type AttemptListResponse struct {
	Data       []*Attempt `json:"data"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
}

type QuestionListResponse struct {
	Data       []*Question `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}
