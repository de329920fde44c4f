package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

func submit(t *testing.T, env *testEnv, student *model.Profile, surveyID string, answers ...AnswerInput) *model.SurveyResponse {
	t.Helper()
	response, err := env.response.Submit(context.Background(), student, surveyID, answers)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return response
}

func TestCreateSurveyStartsAtVersionOne(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")

	survey, err := env.survey.Create(ctx, teacher.UserID, SurveyInput{
		Title:      "Course Feedback",
		SectionIDs: []string{"sec-a"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if survey.Version != 1 {
		t.Errorf("version = %d, want 1", survey.Version)
	}
	if !survey.Active {
		t.Error("new survey should be active")
	}
}

func TestShouldBumpClassifiesEditKinds(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))

	// no responses: nothing bumps
	for _, kind := range []model.EditKind{model.EditContent, model.EditStructural, model.EditAdministrative} {
		bump, err := env.survey.ShouldBump(ctx, survey.ID, kind)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if bump {
			t.Errorf("%s edit bumps without responses", kind)
		}
	}

	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "x"})

	for _, tc := range []struct {
		kind model.EditKind
		want bool
	}{
		{model.EditContent, true},
		{model.EditStructural, true},
		{model.EditAdministrative, false},
	} {
		bump, err := env.survey.ShouldBump(ctx, survey.ID, tc.kind)
		if err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if bump != tc.want {
			t.Errorf("%s edit with responses: bump = %v, want %v", tc.kind, bump, tc.want)
		}
	}
}

func TestContentEditWithoutResponsesKeepsVersion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))

	updated, err := env.survey.UpdateContent(ctx, teacher.UserID, survey.ID, "New Title", "new description")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("version = %d, want 1", updated.Version)
	}
	if updated.Title != "New Title" {
		t.Errorf("title = %q, want %q", updated.Title, "New Title")
	}

	updated, err = env.survey.UpdateContent(ctx, teacher.UserID, survey.ID, "Newer Title", "new description")
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("version after second edit = %d, want 1", updated.Version)
	}
}

func TestContentEditWithResponsesBumpsVersion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))

	response := submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "fine"})

	updated, err := env.survey.UpdateContent(ctx, teacher.UserID, survey.ID, "Reworded Title", "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}
	if response.IsCurrent(updated.Version) {
		t.Error("pre-edit response should be outdated after the bump")
	}
	if len(env.broadcaster.bumps) != 1 || env.broadcaster.bumps[0] != 2 {
		t.Errorf("bump events = %v, want [2]", env.broadcaster.bumps)
	}
}

func TestIdenticalContentEditDoesNotBump(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	updated, err := env.survey.UpdateContent(ctx, teacher.UserID, survey.ID, survey.Title, survey.Description)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("version = %d, want 1 for a no-op save", updated.Version)
	}
}

func TestAdministrativeEditNeverBumps(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	env.addSection("sec-b", "Section B")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))
	response := submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	due := time.Now().AddDate(0, 0, 7)
	updated, err := env.survey.UpdateSettings(ctx, teacher.UserID, survey.ID, SurveyInput{
		DueDate:    &due,
		SectionIDs: []string{"sec-a", "sec-b"},
	})
	if err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("version = %d, want 1 after administrative edit", updated.Version)
	}
	if !response.IsCurrent(updated.Version) {
		t.Error("response should stay current after administrative edit")
	}
	if !updated.AssignedTo("sec-b") {
		t.Error("section assignment not applied")
	}
}

func TestCloseAndReopenKeepsVersion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")
	survey := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))
	submit(t, env, student, survey.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	closed, err := env.survey.SetActive(ctx, teacher.UserID, survey.ID, false)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	reopened, err := env.survey.SetActive(ctx, teacher.UserID, survey.ID, true)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if closed.Version != 1 || reopened.Version != 1 {
		t.Errorf("versions = %d/%d, want 1/1", closed.Version, reopened.Version)
	}
}

func TestSurveyOwnershipEnforced(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacherA := env.addTeacher("ta")
	teacherB := env.addTeacher("tb")
	survey := env.addSurvey(teacherA.UserID, []string{"sec-a"})

	// another teacher's survey reads as missing, not as forbidden
	if _, err := env.survey.Get(ctx, teacherB.UserID, survey.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get by other teacher: err = %v, want ErrNotFound", err)
	}
	if _, err := env.survey.UpdateContent(ctx, teacherB.UserID, survey.ID, "Hijack", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("update by other teacher: err = %v, want ErrNotFound", err)
	}
	if _, err := env.survey.Get(ctx, teacherA.UserID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}
}

func TestListSurveysWithSearchAndCounts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addSection("sec-a", "Section A")
	teacher := env.addTeacher("t1")
	student := env.addStudent("s1", "sec-a")

	feedback := env.addSurvey(teacher.UserID, []string{"sec-a"}, textQuestion("q1", false))
	feedback.Title = "Course Feedback"
	env.surveys.UpdateContent(ctx, feedback.ID, "Course Feedback", "", false)
	env.addSurvey(teacher.UserID, []string{"sec-a"})

	submit(t, env, student, feedback.ID, AnswerInput{QuestionID: "q1", Value: "ok"})

	all, err := env.survey.List(ctx, teacher.UserID, repository.SurveyQuery{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	found, err := env.survey.List(ctx, teacher.UserID, repository.SurveyQuery{Search: "feedback"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != feedback.ID {
		t.Fatalf("search matched %d surveys", len(found))
	}
	if found[0].ResponseCount != 1 || found[0].CurrentCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", found[0].ResponseCount, found[0].CurrentCount)
	}
}
