package models

type Teacher struct {
	ID      string  `json:"_id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Subject *string `json:"subject,omitempty"`
}

// Label is the selector text for a teacher, "Name (Subject)" when a subject is known.
func (t Teacher) Label() string {
	if t.Subject == nil || *t.Subject == "" {
		return t.Name
	}
	return t.Name + " (" + *t.Subject + ")"
}

type Student struct {
	ID         string  `json:"_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	RollNumber string  `json:"roll_number"`
	Class      *string `json:"class,omitempty"`
}

// Label is the selector text for a student, "Name (Roll)" when a roll number is known.
func (s Student) Label() string {
	if s.RollNumber == "" {
		return s.Name
	}
	return s.Name + " (" + s.RollNumber + ")"
}

type StudentStatistics struct {
	TotalEvaluations  int     `json:"total_evaluations"`
	AverageMarks      float64 `json:"average_marks"`
	AveragePercentage float64 `json:"average_percentage"`
	TotalMarks        float64 `json:"total_marks,omitempty"`
	MaxPossibleMarks  float64 `json:"max_possible_marks,omitempty"`
}
