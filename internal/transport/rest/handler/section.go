package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"classpulse/internal/service"
)

// SectionHandler handles section endpoints
type SectionHandler struct {
	sectionSvc *service.SectionService
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(sectionSvc *service.SectionService) *SectionHandler {
	return &SectionHandler{sectionSvc: sectionSvc}
}

// SectionRequest is the request body for creating or editing a section
type SectionRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Create handles POST /v1/sections
func (h *SectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	section, err := h.sectionSvc.Create(r.Context(), req.Name, req.Code, req.Description)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, section)
}

// List handles GET /v1/sections?active=true
func (h *SectionHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	sections, err := h.sectionSvc.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sections": sections})
}

// ListPublic handles GET /v1/sections/open, the unauthenticated list
// used by the registration form. Only active sections are shown.
func (h *SectionHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	sections, err := h.sectionSvc.List(r.Context(), true)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	out := make([]map[string]string, 0, len(sections))
	for _, s := range sections {
		out = append(out, map[string]string{"id": s.ID, "name": s.Name, "code": s.Code})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sections": out})
}

// Update handles PUT /v1/sections/{sectionId}
func (h *SectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	section, err := h.sectionSvc.Update(r.Context(), mux.Vars(r)["sectionId"], req.Name, req.Code, req.Description)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, section)
}

// Deactivate handles DELETE /v1/sections/{sectionId}
func (h *SectionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	touched, err := h.sectionSvc.SetActive(r.Context(), mux.Vars(r)["sectionId"], false)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "deactivated", "studentsAffected": touched})
}

// Restore handles POST /v1/sections/{sectionId}/restore
func (h *SectionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	touched, err := h.sectionSvc.SetActive(r.Context(), mux.Vars(r)["sectionId"], true)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "restored", "studentsAffected": touched})
}
