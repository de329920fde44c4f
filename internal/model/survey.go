package model

import "time"

// QuestionType defines how a question is asked and how its answer is stored
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeLikertScale    QuestionType = "likert_scale"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeLongAnswer     QuestionType = "long_answer"
)

// Valid reports whether t is one of the known question types
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeLikertScale, QuestionTypeShortAnswer, QuestionTypeLongAnswer:
		return true
	}
	return false
}

// IsChoice reports whether answers to this type carry a choice value
// rather than free text.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeLikertScale
}

// Question is embedded in its parent survey. Soft-deleted questions stay
// in the array with Active=false so old responses keep resolving.
type Question struct {
	ID           string       `json:"id" bson:"id"`
	Text         string       `json:"text" bson:"text"`
	Type         QuestionType `json:"type" bson:"type"`
	Required     bool         `json:"required" bson:"required"`
	Order        int          `json:"order" bson:"order"`
	Options      []string     `json:"options,omitempty" bson:"options,omitempty"`
	LikertMin    int          `json:"likertMin,omitempty" bson:"likertMin,omitempty"`
	LikertMax    int          `json:"likertMax,omitempty" bson:"likertMax,omitempty"`
	LikertLabels []string     `json:"likertLabels,omitempty" bson:"likertLabels,omitempty"`
	Active       bool         `json:"active" bson:"active"`
}

// Survey is a versioned questionnaire owned by a teacher and assigned to
// sections. Version starts at 1 and only ever increases.
type Survey struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	CreatedBy   string     `json:"createdBy" bson:"createdBy"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Version     int        `json:"version" bson:"version"`
	Active      bool       `json:"active" bson:"active"`
	DueDate     *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	SectionIDs  []string   `json:"sectionIds" bson:"sectionIds"`
	Questions   []Question `json:"questions" bson:"questions"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// IsOpen reports whether the survey accepts responses at the given time
func (s *Survey) IsOpen(now time.Time) bool {
	if !s.Active {
		return false
	}
	if s.DueDate != nil && now.After(*s.DueDate) {
		return false
	}
	return true
}

// ActiveQuestions returns the questions currently part of the survey
func (s *Survey) ActiveQuestions() []Question {
	out := make([]Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if q.Active {
			out = append(out, q)
		}
	}
	return out
}

// QuestionByID returns the embedded question with the given id, or nil
func (s *Survey) QuestionByID(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// AssignedTo reports whether the survey is assigned to the given section
func (s *Survey) AssignedTo(sectionID string) bool {
	for _, id := range s.SectionIDs {
		if id == sectionID {
			return true
		}
	}
	return false
}

// EditKind classifies a survey mutation for the version bump rule
type EditKind string

const (
	// EditContent is a change to title or description
	EditContent EditKind = "content"
	// EditStructural is any add/edit/delete/restore/reorder/bulk change to questions
	EditStructural EditKind = "structural"
	// EditAdministrative covers due date, active flag and section assignment
	EditAdministrative EditKind = "administrative"
)

// Bumps reports whether this kind of edit participates in versioning.
// Administrative edits never bump, whatever the response count.
func (k EditKind) Bumps() bool {
	return k == EditContent || k == EditStructural
}
