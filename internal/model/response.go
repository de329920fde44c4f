package model

import "time"

// Answer is embedded in its response. Choice and Text are mutually
// exclusive: choice-typed questions fill Choice, text-typed fill Text.
type Answer struct {
	QuestionID   string       `json:"questionId" bson:"questionId"`
	QuestionType QuestionType `json:"questionType" bson:"questionType"`
	Choice       string       `json:"choice,omitempty" bson:"choice,omitempty"`
	Text         string       `json:"text,omitempty" bson:"text,omitempty"`
}

// Value returns the stored answer regardless of question type
func (a Answer) Value() string {
	if a.QuestionType.IsChoice() {
		return a.Choice
	}
	return a.Text
}

// SurveyResponse records one submission. SurveyVersion is stamped at
// submission time and never edited afterward; whether the response is
// current is recomputed against the survey on every read.
// StudentName and SectionID are captured at submission time for
// reporting and exports.
type SurveyResponse struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	SurveyID      string    `json:"surveyId" bson:"surveyId"`
	StudentID     string    `json:"studentId" bson:"studentId"`
	StudentName   string    `json:"studentName" bson:"studentName"`
	SectionID     string    `json:"sectionId,omitempty" bson:"sectionId,omitempty"`
	SurveyVersion int       `json:"surveyVersion" bson:"surveyVersion"`
	Answers       []Answer  `json:"answers" bson:"answers"`
	Complete      bool      `json:"complete" bson:"complete"`
	SubmittedAt   time.Time `json:"submittedAt" bson:"submittedAt"`
}

// IsCurrent reports whether the response counts as a completion of the
// survey's present version.
func (r *SurveyResponse) IsCurrent(surveyVersion int) bool {
	return r.SurveyVersion == surveyVersion
}

// AnswerFor returns the answer for the given question, or nil
func (r *SurveyResponse) AnswerFor(questionID string) *Answer {
	for i := range r.Answers {
		if r.Answers[i].QuestionID == questionID {
			return &r.Answers[i]
		}
	}
	return nil
}
