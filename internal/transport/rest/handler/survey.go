package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"classpulse/internal/repository"
	"classpulse/internal/service"
	"classpulse/internal/transport/rest/middleware"
)

// SurveyHandler handles teacher-side survey endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.SurveyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// List handles GET /v1/surveys?search=&active=
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := repository.SurveyQuery{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		q.Active = &active
	}

	summaries, err := h.surveySvc.List(r.Context(), middleware.GetUserID(r.Context()), q)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": summaries})
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.Get(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"])
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// UpdateContent handles PUT /v1/surveys/{surveyId}
func (h *SurveyHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveySvc.UpdateContent(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], req.Title, req.Description)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// UpdateSettings handles PUT /v1/surveys/{surveyId}/settings
func (h *SurveyHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.SurveyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveySvc.UpdateSettings(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], req)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Deactivate handles DELETE /v1/surveys/{surveyId}
func (h *SurveyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.SetActive(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], false)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Restore handles POST /v1/surveys/{surveyId}/restore
func (h *SurveyHandler) Restore(w http.ResponseWriter, r *http.Request) {
	survey, err := h.surveySvc.SetActive(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], true)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}
