package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"classpulse/internal/model"
	"classpulse/internal/service"
	"classpulse/internal/transport/rest/middleware"
)

// QuestionHandler handles question endpoints
type QuestionHandler struct {
	questionSvc *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionSvc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionSvc: questionSvc}
}

// Add handles POST /v1/surveys/{surveyId}/questions
func (h *QuestionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req service.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.questionSvc.Add(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], req)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// AddBatch handles POST /v1/surveys/{surveyId}/questions/batch
func (h *QuestionHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []service.QuestionInput `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.questionSvc.AddBatch(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], req.Questions)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// Update handles PUT /v1/surveys/{surveyId}/questions/{questionId}
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	survey, err := h.questionSvc.Update(r.Context(), middleware.GetUserID(r.Context()), vars["surveyId"], vars["questionId"], req)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Delete handles DELETE /v1/surveys/{surveyId}/questions/{questionId}
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	survey, err := h.questionSvc.Delete(r.Context(), middleware.GetUserID(r.Context()), vars["surveyId"], vars["questionId"])
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Restore handles POST /v1/surveys/{surveyId}/questions/{questionId}/restore
func (h *QuestionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	survey, err := h.questionSvc.Restore(r.Context(), middleware.GetUserID(r.Context()), vars["surveyId"], vars["questionId"])
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// Reorder handles PUT /v1/surveys/{surveyId}/questions/order
func (h *QuestionHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order map[string]int `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.questionSvc.Reorder(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], req.Order)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// BulkRequest is the request body for the bulk question operations
type BulkRequest struct {
	Action      string             `json:"action"`
	QuestionIDs []string           `json:"questionIds"`
	Required    map[string]bool    `json:"required"`
	Type        model.QuestionType `json:"type"`
}

// Bulk handles POST /v1/surveys/{surveyId}/questions/bulk
func (h *QuestionHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	surveyID := mux.Vars(r)["surveyId"]

	var (
		survey *model.Survey
		err    error
	)
	switch req.Action {
	case "delete":
		survey, err = h.questionSvc.BulkDelete(r.Context(), userID, surveyID, req.QuestionIDs)
	case "set_required":
		survey, err = h.questionSvc.BulkSetRequired(r.Context(), userID, surveyID, req.Required)
	case "change_type":
		survey, err = h.questionSvc.BulkSetType(r.Context(), userID, surveyID, req.QuestionIDs, req.Type)
	default:
		writeError(w, http.StatusBadRequest, "unknown bulk action")
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, survey)
}
