package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"classpulse/internal/model"
	"classpulse/internal/repository"
	"classpulse/internal/service"
	"classpulse/internal/transport/rest/middleware"
)

// ResponseHandler handles submission endpoints for students and the
// response listing for teachers
type ResponseHandler struct {
	responseSvc *service.ResponseService
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responseSvc *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{responseSvc: responseSvc}
}

// Submit handles POST /v1/surveys/{surveyId}/responses
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []service.AnswerInput `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile := middleware.GetProfile(r.Context())
	response, err := h.responseSvc.Submit(r.Context(), profile, mux.Vars(r)["surveyId"], req.Answers)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// Dashboard handles GET /v1/student/dashboard
func (h *ResponseHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.responseSvc.Dashboard(r.Context(), middleware.GetProfile(r.Context()))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// History handles GET /v1/student/responses
func (h *ResponseHandler) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.responseSvc.History(r.Context(), middleware.GetProfile(r.Context()))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": items})
}

// Detail handles GET /v1/student/responses/{responseId}
func (h *ResponseHandler) Detail(w http.ResponseWriter, r *http.Request) {
	item, err := h.responseSvc.Detail(r.Context(), middleware.GetProfile(r.Context()), mux.Vars(r)["responseId"])
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// ListForSurvey handles GET /v1/surveys/{surveyId}/responses
func (h *ResponseHandler) ListForSurvey(w http.ResponseWriter, r *http.Request) {
	filter, q := responseFilters(r)
	responses, survey, err := h.responseSvc.ListForSurvey(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["surveyId"], filter, q)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"responses":      responses,
		"byVersion":      service.GroupByVersion(responses, survey.Version),
		"currentVersion": survey.Version,
	})
}

// responseFilters parses the shared version/date/section query params
func responseFilters(r *http.Request) (model.VersionFilter, repository.ResponseQuery) {
	filter := model.VersionFilter(r.URL.Query().Get("version"))
	q := repository.ResponseQuery{SectionID: r.URL.Query().Get("section")}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			q.DateFrom = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			q.DateTo = &end
		}
	}
	return filter, q
}
