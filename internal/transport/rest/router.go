package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"classpulse/internal/service"
	"classpulse/internal/transport/rest/handler"
	"classpulse/internal/transport/rest/middleware"
	"classpulse/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	Guard            *service.Guard
	SurveyService    *service.SurveyService
	QuestionService  *service.QuestionService
	ResponseService  *service.ResponseService
	SectionService   *service.SectionService
	StudentService   *service.StudentService
	AnalyticsService *service.AnalyticsService
	ExportService    *service.ExportService
	WSHub            *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	responseHandler := handler.NewResponseHandler(c.ResponseService)
	sectionHandler := handler.NewSectionHandler(c.SectionService)
	studentHandler := handler.NewStudentHandler(c.StudentService)
	analyticsHandler := handler.NewAnalyticsHandler(c.AnalyticsService, c.ExportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Guard, c.SurveyService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService, c.Guard)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sections/open", sectionHandler.ListPublic).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/surveys/{id}", wsHandler.WatchSurvey).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Teacher routes
	teacherRoutes := v1.NewRoute().Subrouter()
	teacherRoutes.Use(authMW.RequireTeacher)

	teacherRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.UpdateContent).Methods("PUT", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Deactivate).Methods("DELETE", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/settings", surveyHandler.UpdateSettings).Methods("PUT", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/restore", surveyHandler.Restore).Methods("POST", "OPTIONS")

	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions", questionHandler.Add).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions/batch", questionHandler.AddBatch).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions/order", questionHandler.Reorder).Methods("PUT", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions/bulk", questionHandler.Bulk).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions/{questionId}", questionHandler.Update).Methods("PUT", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions/{questionId}", questionHandler.Delete).Methods("DELETE", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/questions/{questionId}/restore", questionHandler.Restore).Methods("POST", "OPTIONS")

	teacherRoutes.HandleFunc("/surveys/{surveyId}/responses", responseHandler.ListForSurvey).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/responses/export", analyticsHandler.ExportResponses).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/analytics", analyticsHandler.Report).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/analytics/export", analyticsHandler.ExportAnalytics).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/surveys/{surveyId}/export", analyticsHandler.ExportWorkbook).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/dashboard", analyticsHandler.Dashboard).Methods("GET", "OPTIONS")

	teacherRoutes.HandleFunc("/sections", sectionHandler.Create).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/sections", sectionHandler.List).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sections/{sectionId}", sectionHandler.Update).Methods("PUT", "OPTIONS")
	teacherRoutes.HandleFunc("/sections/{sectionId}", sectionHandler.Deactivate).Methods("DELETE", "OPTIONS")
	teacherRoutes.HandleFunc("/sections/{sectionId}/restore", sectionHandler.Restore).Methods("POST", "OPTIONS")

	teacherRoutes.HandleFunc("/students", studentHandler.List).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/students/{profileId}", studentHandler.Deactivate).Methods("DELETE", "OPTIONS")
	teacherRoutes.HandleFunc("/students/{profileId}/restore", studentHandler.Restore).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/students/{profileId}/responses", studentHandler.Responses).Methods("GET", "OPTIONS")

	// Student routes
	studentRoutes := v1.NewRoute().Subrouter()
	studentRoutes.Use(authMW.RequireStudent)

	studentRoutes.HandleFunc("/surveys/{surveyId}/responses", responseHandler.Submit).Methods("POST", "OPTIONS")
	studentRoutes.HandleFunc("/student/dashboard", responseHandler.Dashboard).Methods("GET", "OPTIONS")
	studentRoutes.HandleFunc("/student/responses", responseHandler.History).Methods("GET", "OPTIONS")
	studentRoutes.HandleFunc("/student/responses/{responseId}", responseHandler.Detail).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
