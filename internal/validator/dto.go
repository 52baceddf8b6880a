package validator

// HistoryQuery represents the query string of the evaluation history endpoints
type HistoryQuery struct {
	Student string `form:"student" json:"student" validate:"max=100"`
	Roll    string `form:"roll" json:"roll" validate:"max=50"`
	Teacher string `form:"teacher" json:"teacher" validate:"max=100"`
	Date    string `form:"date" json:"date" validate:"date_bucket"`
}

// RecentQuery represents the query string of the recent evaluations endpoint
type RecentQuery struct {
	Limit int `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

// ModelAnswerTextRequest carries a pasted model answer. Blank text is
// rejected by the workflow so the session records the message.
type ModelAnswerTextRequest struct {
	Text string `form:"text" json:"text"`
}

func (v *Validator) ValidateHistoryQuery(q *HistoryQuery) error {
	return v.Validate(q)
}

func (v *Validator) ValidateRecentQuery(q *RecentQuery) error {
	return v.Validate(q)
}
