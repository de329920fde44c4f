package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classpulse/internal/config"
	"classpulse/internal/model"
	"classpulse/internal/repository"
	"classpulse/internal/service"
)

// Seeds the database with demo sections, accounts, a survey and a few
// responses. Safe to run against an empty database only; duplicate
// usernames abort the run.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.MongoDB)

	userRepo := repository.NewUserRepo(db)
	profileRepo := repository.NewProfileRepo(db)
	sectionRepo := repository.NewSectionRepo(db)
	surveyRepo := repository.NewSurveyRepo(db)
	responseRepo := repository.NewResponseRepo(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create user indexes:", err)
	}
	if err := profileRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create profile indexes:", err)
	}
	if err := responseRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create response indexes:", err)
	}

	sectionSvc := service.NewSectionService(sectionRepo, profileRepo)
	authSvc := service.NewAuthService(userRepo, profileRepo, sectionRepo, cfg.JWTSecret)
	surveySvc := service.NewSurveyService(surveyRepo, responseRepo, sectionRepo, service.NopReportCache{}, service.NopBroadcaster{})
	questionSvc := service.NewQuestionService(surveyRepo, responseRepo, service.NopReportCache{}, service.NopBroadcaster{})
	responseSvc := service.NewResponseService(surveyRepo, responseRepo, service.NopReportCache{}, service.NopBroadcaster{})

	sectionA, err := sectionSvc.Create(ctx, "Section A", "SEC-A", "Morning class")
	if err != nil {
		log.Fatal("Failed to create section:", err)
	}
	sectionB, err := sectionSvc.Create(ctx, "Section B", "SEC-B", "Afternoon class")
	if err != nil {
		log.Fatal("Failed to create section:", err)
	}
	log.Printf("Created sections %s, %s", sectionA.Code, sectionB.Code)

	teacher, err := authSvc.Register(ctx, model.RegisterRequest{
		Username:    "teacher",
		Password:    "teacher-demo-1",
		DisplayName: "Demo Teacher",
		Role:        model.RoleTeacher,
	})
	if err != nil {
		log.Fatal("Failed to create teacher:", err)
	}

	studentNames := []struct {
		username, name string
		sectionID      string
	}{
		{"alice", "Alice Rivera", sectionA.ID},
		{"ben", "Ben Okafor", sectionA.ID},
		{"carla", "Carla Meyer", sectionA.ID},
		{"deven", "Deven Shah", sectionB.ID},
		{"emma", "Emma Larsen", sectionB.ID},
	}
	students := make([]*model.Profile, 0, len(studentNames))
	for _, s := range studentNames {
		profile, err := authSvc.Register(ctx, model.RegisterRequest{
			Username:    s.username,
			Password:    "student-demo-1",
			DisplayName: s.name,
			Role:        model.RoleStudent,
			SectionID:   s.sectionID,
		})
		if err != nil {
			log.Fatal("Failed to create student:", err)
		}
		students = append(students, profile)
	}
	log.Printf("Created teacher and %d students", len(students))

	due := time.Now().AddDate(0, 0, 14)
	survey, err := surveySvc.Create(ctx, teacher.UserID, service.SurveyInput{
		Title:       "Course Feedback",
		Description: "Tell us how the course is going so far.",
		DueDate:     &due,
		SectionIDs:  []string{sectionA.ID, sectionB.ID},
	})
	if err != nil {
		log.Fatal("Failed to create survey:", err)
	}

	survey, err = questionSvc.AddBatch(ctx, teacher.UserID, survey.ID, []service.QuestionInput{
		{
			Text:     "How would you rate the pace of the lectures?",
			Type:     model.QuestionTypeLikertScale,
			Required: true,
		},
		{
			Text:     "Which topic did you find most useful?",
			Type:     model.QuestionTypeMultipleChoice,
			Required: true,
			Options:  []string{"Data structures", "Concurrency", "Testing", "Databases"},
		},
		{
			Text: "What should we change about the course?",
			Type: model.QuestionTypeLongAnswer,
		},
	})
	if err != nil {
		log.Fatal("Failed to add questions:", err)
	}
	log.Printf("Created survey %q with %d questions", survey.Title, len(survey.Questions))

	questions := survey.ActiveQuestions()
	demoAnswers := [][]string{
		{"4", "Concurrency", "More hands-on labs would help a lot."},
		{"3", "Testing", "The pace is fine but assignments pile up near deadlines."},
		{"5", "Concurrency", ""},
	}
	for i, answers := range demoAnswers {
		inputs := make([]service.AnswerInput, 0, len(answers))
		for j, value := range answers {
			if value == "" {
				continue
			}
			inputs = append(inputs, service.AnswerInput{QuestionID: questions[j].ID, Value: value})
		}
		if _, err := responseSvc.Submit(ctx, students[i], survey.ID, inputs); err != nil {
			log.Fatal("Failed to submit response:", err)
		}
	}
	log.Printf("Submitted %d demo responses", len(demoAnswers))

	log.Println("Done")
}
