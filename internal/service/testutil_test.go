package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// In-memory repository implementations backing the service tests. They
// mirror the storage semantics the services rely on: the survey store
// applies a question edit and its version bump as one step, and the
// response store enforces the (survey, student, version) unique key.

type memSurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]*model.Survey
}

func newMemSurveyRepo() *memSurveyRepo {
	return &memSurveyRepo{surveys: make(map[string]*model.Survey)}
}

func copySurvey(s *model.Survey) *model.Survey {
	out := *s
	out.Questions = append([]model.Question(nil), s.Questions...)
	out.SectionIDs = append([]string(nil), s.SectionIDs...)
	return &out
}

func (r *memSurveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if survey.ID == "" {
		survey.ID = uuid.New().String()
	}
	if survey.Version == 0 {
		survey.Version = 1
	}
	survey.CreatedAt = time.Now()
	r.surveys[survey.ID] = copySurvey(survey)
	return nil
}

func (r *memSurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return nil, nil
	}
	return copySurvey(s), nil
}

func (r *memSurveyRepo) ListByOwner(ctx context.Context, ownerID string, q repository.SurveyQuery) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Survey
	for _, s := range r.surveys {
		if s.CreatedBy != ownerID {
			continue
		}
		if q.Search != "" && !containsFold(s.Title, q.Search) && !containsFold(s.Description, q.Search) {
			continue
		}
		if q.Active != nil && s.Active != *q.Active {
			continue
		}
		out = append(out, copySurvey(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memSurveyRepo) ListBySection(ctx context.Context, sectionID string, activeOnly bool) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Survey
	for _, s := range r.surveys {
		if activeOnly && !s.Active {
			continue
		}
		if s.AssignedTo(sectionID) {
			out = append(out, copySurvey(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// edit applies fn and the optional bump under one lock, like a single
// storage-engine update.
func (r *memSurveyRepo) edit(id string, bump bool, fn func(*model.Survey)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return fmt.Errorf("survey %s not found", id)
	}
	fn(s)
	if bump {
		s.Version++
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (r *memSurveyRepo) UpdateContent(ctx context.Context, id, title, description string, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		s.Title = title
		s.Description = description
	})
}

func (r *memSurveyRepo) UpdateSettings(ctx context.Context, id string, active bool, dueDate *time.Time, sectionIDs []string) error {
	return r.edit(id, false, func(s *model.Survey) {
		s.Active = active
		s.DueDate = dueDate
		s.SectionIDs = append([]string(nil), sectionIDs...)
	})
}

func (r *memSurveyRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.edit(id, false, func(s *model.Survey) { s.Active = active })
}

func (r *memSurveyRepo) AddQuestions(ctx context.Context, id string, questions []model.Question, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		s.Questions = append(s.Questions, questions...)
	})
}

func (r *memSurveyRepo) UpdateQuestion(ctx context.Context, id string, q model.Question, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		for i := range s.Questions {
			if s.Questions[i].ID == q.ID {
				q.Active = s.Questions[i].Active
				s.Questions[i] = q
			}
		}
	})
}

func (r *memSurveyRepo) SetQuestionActive(ctx context.Context, id, questionID string, active, bump bool) error {
	return r.SetQuestionsActive(ctx, id, []string{questionID}, active, bump)
}

func (r *memSurveyRepo) SetQuestionsActive(ctx context.Context, id string, questionIDs []string, active, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		for _, qid := range questionIDs {
			for i := range s.Questions {
				if s.Questions[i].ID == qid {
					s.Questions[i].Active = active
				}
			}
		}
	})
}

func (r *memSurveyRepo) SetQuestionOrders(ctx context.Context, id string, orders map[string]int, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		for i := range s.Questions {
			if order, ok := orders[s.Questions[i].ID]; ok {
				s.Questions[i].Order = order
			}
		}
	})
}

func (r *memSurveyRepo) SetQuestionsRequired(ctx context.Context, id string, required map[string]bool, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		for i := range s.Questions {
			if req, ok := required[s.Questions[i].ID]; ok {
				s.Questions[i].Required = req
			}
		}
	})
}

func (r *memSurveyRepo) SetQuestionsType(ctx context.Context, id string, questionIDs []string, t model.QuestionType, bump bool) error {
	return r.edit(id, bump, func(s *model.Survey) {
		for _, qid := range questionIDs {
			for i := range s.Questions {
				if s.Questions[i].ID == qid {
					s.Questions[i].Type = t
				}
			}
		}
	})
}

func containsFold(haystack, needle string) bool {
	h, n := []rune(haystack), []rune(needle)
	lower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + 32
		}
		return r
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if lower(h[i+j]) != lower(n[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

type memResponseRepo struct {
	mu        sync.Mutex
	responses []*model.SurveyResponse
	keys      map[string]bool
}

func newMemResponseRepo() *memResponseRepo {
	return &memResponseRepo{keys: make(map[string]bool)}
}

func (r *memResponseRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *memResponseRepo) Create(ctx context.Context, response *model.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s|%s|%d", response.SurveyID, response.StudentID, response.SurveyVersion)
	if r.keys[key] {
		return repository.ErrDuplicate
	}
	r.keys[key] = true
	if response.ID == "" {
		response.ID = uuid.New().String()
	}
	if response.SubmittedAt.IsZero() {
		response.SubmittedAt = time.Now()
	}
	stored := *response
	r.responses = append(r.responses, &stored)
	return nil
}

func (r *memResponseRepo) GetByID(ctx context.Context, id string) (*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.ID == id {
			out := *resp
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memResponseRepo) ListBySurvey(ctx context.Context, surveyID string, q repository.ResponseQuery) ([]*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SurveyResponse
	for _, resp := range r.responses {
		if resp.SurveyID != surveyID {
			continue
		}
		if q.SectionID != "" && resp.SectionID != q.SectionID {
			continue
		}
		if q.DateFrom != nil && resp.SubmittedAt.Before(*q.DateFrom) {
			continue
		}
		if q.DateTo != nil && resp.SubmittedAt.After(*q.DateTo) {
			continue
		}
		copy := *resp
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *memResponseRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SurveyResponse
	for _, resp := range r.responses {
		if resp.StudentID == studentID {
			copy := *resp
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *memResponseRepo) LatestByStudent(ctx context.Context, surveyID, studentID string) (*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.SurveyResponse
	for _, resp := range r.responses {
		if resp.SurveyID != surveyID || resp.StudentID != studentID {
			continue
		}
		if latest == nil || resp.SubmittedAt.After(latest.SubmittedAt) {
			latest = resp
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (r *memResponseRepo) HasResponses(ctx context.Context, surveyID string) (bool, error) {
	n, _ := r.CountBySurvey(ctx, surveyID)
	return n > 0, nil
}

func (r *memResponseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			n++
		}
	}
	return n, nil
}

func (r *memResponseRepo) CountByVersion(ctx context.Context, surveyID string, version int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID && resp.SurveyVersion == version {
			n++
		}
	}
	return n, nil
}

func (r *memResponseRepo) CountBySection(ctx context.Context, surveyID, sectionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID && resp.SectionID == sectionID {
			n++
		}
	}
	return n, nil
}

type memSectionRepo struct {
	mu       sync.Mutex
	sections map[string]*model.Section
}

func newMemSectionRepo() *memSectionRepo {
	return &memSectionRepo{sections: make(map[string]*model.Section)}
}

func (r *memSectionRepo) Create(ctx context.Context, section *model.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if section.ID == "" {
		section.ID = uuid.New().String()
	}
	stored := *section
	r.sections[section.ID] = &stored
	return nil
}

func (r *memSectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sections[id]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (r *memSectionRepo) List(ctx context.Context, activeOnly bool) ([]*model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Section
	for _, s := range r.sections {
		if activeOnly && !s.Active {
			continue
		}
		copy := *s
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memSectionRepo) Update(ctx context.Context, section *model.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sections[section.ID]; ok {
		s.Name = section.Name
		s.Code = section.Code
		s.Description = section.Description
	}
	return nil
}

func (r *memSectionRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sections[id]; ok {
		s.Active = active
	}
	return nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (r *memProfileRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *memProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == profile.UserID {
			return repository.ErrDuplicate
		}
	}
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	stored := *profile
	r.profiles[profile.ID] = &stored
	return nil
}

func (r *memProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *memProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memProfileRepo) List(ctx context.Context, q repository.ProfileQuery) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Profile
	for _, p := range r.profiles {
		if q.Role != "" && p.Role != q.Role {
			continue
		}
		if q.SectionID != "" && p.SectionID != q.SectionID {
			continue
		}
		if q.Active != nil && p.Active != *q.Active {
			continue
		}
		copy := *p
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (r *memProfileRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		p.Active = active
	}
	return nil
}

func (r *memProfileRepo) SetActiveBySection(ctx context.Context, sectionID string, active bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.profiles {
		if p.SectionID == sectionID && p.Role == model.RoleStudent && p.Active != active {
			p.Active = active
			n++
		}
	}
	return n, nil
}

func (r *memProfileRepo) CountActiveStudents(ctx context.Context, sectionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.profiles {
		if p.SectionID == sectionID && p.Role == model.RoleStudent && p.Active {
			n++
		}
	}
	return n, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

// recordingBroadcaster captures events for assertions
type recordingBroadcaster struct {
	mu          sync.Mutex
	submissions []string
	bumps       []int
}

func (b *recordingBroadcaster) ResponseSubmitted(surveyID string, response *model.SurveyResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, surveyID)
}

func (b *recordingBroadcaster) VersionBumped(surveyID string, version int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bumps = append(b.bumps, version)
}

// testEnv wires every service over the in-memory stores
type testEnv struct {
	users     *memUserRepo
	profiles  *memProfileRepo
	sections  *memSectionRepo
	surveys   *memSurveyRepo
	responses *memResponseRepo

	broadcaster *recordingBroadcaster

	auth      *AuthService
	guard     *Guard
	survey    *SurveyService
	question  *QuestionService
	response  *ResponseService
	section   *SectionService
	student   *StudentService
	analytics *AnalyticsService
	export    *ExportService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:       newMemUserRepo(),
		profiles:    newMemProfileRepo(),
		sections:    newMemSectionRepo(),
		surveys:     newMemSurveyRepo(),
		responses:   newMemResponseRepo(),
		broadcaster: &recordingBroadcaster{},
	}
	cache := NopReportCache{}
	env.auth = NewAuthService(env.users, env.profiles, env.sections, "test-secret")
	env.guard = NewGuard(env.profiles)
	env.survey = NewSurveyService(env.surveys, env.responses, env.sections, cache, env.broadcaster)
	env.question = NewQuestionService(env.surveys, env.responses, cache, env.broadcaster)
	env.response = NewResponseService(env.surveys, env.responses, cache, env.broadcaster)
	env.section = NewSectionService(env.sections, env.profiles)
	env.student = NewStudentService(env.profiles, env.responses)
	env.analytics = NewAnalyticsService(env.surveys, env.responses, env.sections, env.profiles, cache)
	env.export = NewExportService(env.analytics, env.response)
	return env
}

func (env *testEnv) addSection(id, name string) *model.Section {
	section := &model.Section{ID: id, Name: name, Code: id, Active: true}
	env.sections.Create(context.Background(), section)
	return section
}

func (env *testEnv) addTeacher(userID string) *model.Profile {
	profile := &model.Profile{UserID: userID, DisplayName: userID, Role: model.RoleTeacher, Active: true}
	env.profiles.Create(context.Background(), profile)
	return profile
}

func (env *testEnv) addStudent(userID, sectionID string) *model.Profile {
	profile := &model.Profile{UserID: userID, DisplayName: userID, Role: model.RoleStudent, SectionID: sectionID, Active: true}
	env.profiles.Create(context.Background(), profile)
	return profile
}

func (env *testEnv) addSurvey(ownerID string, sectionIDs []string, questions ...model.Question) *model.Survey {
	survey := &model.Survey{
		CreatedBy:  ownerID,
		Title:      "Test Survey",
		Version:    1,
		Active:     true,
		SectionIDs: sectionIDs,
		Questions:  questions,
	}
	env.surveys.Create(context.Background(), survey)
	return survey
}

func textQuestion(id string, required bool) model.Question {
	return model.Question{ID: id, Text: "Q " + id, Type: model.QuestionTypeShortAnswer, Required: required, Active: true}
}

func choiceQuestion(id string, options ...string) model.Question {
	return model.Question{ID: id, Text: "Q " + id, Type: model.QuestionTypeMultipleChoice, Required: true, Options: options, Active: true}
}
