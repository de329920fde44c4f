package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"classpulse/internal/service"
)

// StudentHandler handles roster endpoints for teachers
type StudentHandler struct {
	studentSvc *service.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentSvc *service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// List handles GET /v1/students?section=&active=
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if v := r.URL.Query().Get("active"); v != "" {
		b := v == "true"
		active = &b
	}

	students, err := h.studentSvc.List(r.Context(), r.URL.Query().Get("section"), active)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

// Deactivate handles DELETE /v1/students/{profileId}
func (h *StudentHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	profile, err := h.studentSvc.SetActive(r.Context(), mux.Vars(r)["profileId"], false)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Restore handles POST /v1/students/{profileId}/restore
func (h *StudentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	profile, err := h.studentSvc.SetActive(r.Context(), mux.Vars(r)["profileId"], true)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Responses handles GET /v1/students/{profileId}/responses
func (h *StudentHandler) Responses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.studentSvc.Responses(r.Context(), mux.Vars(r)["profileId"])
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}
