package service

import (
	"context"
	"errors"
	"testing"

	"classpulse/internal/model"
)

func TestAddQuestionBumpsOnlyWithResponses(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"})

	updated, err := env.question.Add(ctx, teacher.UserID, survey.ID, QuestionInput{
		Text: "How is the pace?",
		Type: model.QuestionTypeShortAnswer,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("version = %d, want 1 before any responses", updated.Version)
	}

	submit(t, env, student, survey.ID, AnswerInput{QuestionID: updated.Questions[0].ID, Value: "fast"})

	updated, err = env.question.Add(ctx, teacher.UserID, survey.ID, QuestionInput{
		Text: "Anything else?",
		Type: model.QuestionTypeLongAnswer,
	})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2 after structural edit with responses", updated.Version)
	}
}

func TestEditDeleteRestoreEachBumpOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false), textQuestion("q2", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	updated, err := env.question.Update(ctx, teacher.UserID, survey.ID, "q1", QuestionInput{
		Text: "Reworded question",
		Type: model.QuestionTypeShortAnswer,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("after edit: version = %d, want 2", updated.Version)
	}

	updated, err = env.question.Delete(ctx, teacher.UserID, survey.ID, "q2")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if updated.Version != 3 {
		t.Errorf("after delete: version = %d, want 3", updated.Version)
	}
	if q := updated.QuestionByID("q2"); q == nil || q.Active {
		t.Error("deleted question should stay embedded with Active=false")
	}

	updated, err = env.question.Restore(ctx, teacher.UserID, survey.ID, "q2")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if updated.Version != 4 {
		t.Errorf("after restore: version = %d, want 4", updated.Version)
	}
	if q := updated.QuestionByID("q2"); q == nil || !q.Active {
		t.Error("restored question should be active again")
	}
}

func TestBatchAddValidatesBeforeWriting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	_, err := env.question.AddBatch(ctx, teacher.UserID, survey.ID, []QuestionInput{
		{Text: "Valid question", Type: model.QuestionTypeShortAnswer},
		{Text: "   ", Type: model.QuestionTypeShortAnswer},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	after, _ := env.survey.Get(ctx, teacher.UserID, survey.ID)
	if len(after.Questions) != 1 {
		t.Errorf("questions = %d, want 1: bad batch must not partially apply", len(after.Questions))
	}
	if after.Version != 1 {
		t.Errorf("version = %d, want 1: aborted batch must not bump", after.Version)
	}
}

func TestBatchAddBumpsOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	updated, err := env.question.AddBatch(ctx, teacher.UserID, survey.ID, []QuestionInput{
		{Text: "First", Type: model.QuestionTypeShortAnswer},
		{Text: "Second", Type: model.QuestionTypeLongAnswer},
		{Text: "Third", Type: model.QuestionTypeLikertScale},
	})
	if err != nil {
		t.Fatalf("batch add failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2: one batch is one edit", updated.Version)
	}
	if len(updated.Questions) != 4 {
		t.Errorf("questions = %d, want 4", len(updated.Questions))
	}
}

func TestBulkOperationsBumpOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"},
		textQuestion("q1", false), textQuestion("q2", false), textQuestion("q3", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	updated, err := env.question.BulkDelete(ctx, teacher.UserID, survey.ID, []string{"q2", "q3"})
	if err != nil {
		t.Fatalf("bulk delete failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("after bulk delete: version = %d, want 2", updated.Version)
	}
	if len(updated.ActiveQuestions()) != 1 {
		t.Errorf("active questions = %d, want 1", len(updated.ActiveQuestions()))
	}

	updated, err = env.question.BulkSetRequired(ctx, teacher.UserID, survey.ID, map[string]bool{"q1": true})
	if err != nil {
		t.Fatalf("bulk set required failed: %v", err)
	}
	if updated.Version != 3 {
		t.Errorf("after bulk required: version = %d, want 3", updated.Version)
	}
	if q := updated.QuestionByID("q1"); !q.Required {
		t.Error("required flag not applied")
	}

	updated, err = env.question.BulkSetType(ctx, teacher.UserID, survey.ID, []string{"q1"}, model.QuestionTypeLongAnswer)
	if err != nil {
		t.Fatalf("bulk set type failed: %v", err)
	}
	if updated.Version != 4 {
		t.Errorf("after bulk type: version = %d, want 4", updated.Version)
	}
}

func TestReorderBumpsOnceAndValidatesIDs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false), textQuestion("q2", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	if _, err := env.question.Reorder(ctx, teacher.UserID, survey.ID, map[string]int{"nope": 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown id: err = %v, want ErrInvalidInput", err)
	}

	updated, err := env.question.Reorder(ctx, teacher.UserID, survey.ID, map[string]int{"q1": 1, "q2": 0})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}
	if updated.QuestionByID("q2").Order != 0 || updated.QuestionByID("q1").Order != 1 {
		t.Error("order not applied")
	}
}

func TestQuestionValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"})

	cases := []struct {
		name  string
		input QuestionInput
	}{
		{"empty text", QuestionInput{Text: "", Type: model.QuestionTypeShortAnswer}},
		{"unknown type", QuestionInput{Text: "ok", Type: "dropdown"}},
		{"choice with one option", QuestionInput{Text: "ok", Type: model.QuestionTypeMultipleChoice, Options: []string{"only"}}},
		{"inverted likert range", QuestionInput{Text: "ok", Type: model.QuestionTypeLikertScale, LikertMin: 5, LikertMax: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.question.Add(ctx, teacher.UserID, survey.ID, tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
