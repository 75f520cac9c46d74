package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// BuildingOption is one entry of the building filter choices.
type BuildingOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// incidentService defines the minimal interface needed by IncidentHandler.
type incidentService interface {
	ListIncidents(ctx context.Context, f domain.IncidentFilter) ([]domain.Incident, error)
	GetIncident(ctx context.Context, id int64) (domain.Incident, error)
	SetVerified(ctx context.Context, id int64, verified bool) (domain.Incident, error)
	DeleteIncident(ctx context.Context, id int64) error
	IncidentStats(ctx context.Context, f domain.IncidentFilter) (domain.IncidentStats, error)
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
	Buildings(ctx context.Context) ([]BuildingOption, error)
}

// IncidentHandler serves malpractice records, statistics and building choices.
type IncidentHandler struct {
	svc incidentService
	log *slog.Logger
}

// NewIncidentHandler creates an IncidentHandler.
func NewIncidentHandler(svc incidentService, logger *slog.Logger) *IncidentHandler {
	return &IncidentHandler{svc: svc, log: logger.With("handler", "incidents")}
}

// incidentResponse is the record shape of the malpractice serializer.
type incidentResponse struct {
	ID                  int64   `json:"id"`
	Malpractice         string  `json:"malpractice"`
	LectureHallName     string  `json:"lecture_hall_name"`
	LectureHallBuilding string  `json:"lecture_hall_building"`
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	CreatedAt           string  `json:"created_at"`
	Verified            bool    `json:"verified"`
	Proof               *string `json:"proof"`
}

func toIncidentResponse(in domain.Incident) incidentResponse {
	at := in.DetectedAt.UTC()
	return incidentResponse{
		ID:                  in.ID,
		Malpractice:         string(in.Type),
		LectureHallName:     in.LectureHallName,
		LectureHallBuilding: in.Building,
		Date:                at.Format(time.DateOnly),
		Time:                at.Format("15:04:05"),
		CreatedAt:           at.Format(time.RFC3339),
		Verified:            in.Verified,
		Proof:               in.EvidenceRef,
	}
}

func toIncidentResponses(items []domain.Incident) []incidentResponse {
	out := make([]incidentResponse, 0, len(items))
	for _, in := range items {
		out = append(out, toIncidentResponse(in))
	}
	return out
}

// filterFromQuery reads building, verified and search. verified matches
// "true" case-insensitively; any other present value means false.
func filterFromQuery(r *http.Request) domain.IncidentFilter {
	q := r.URL.Query()
	var f domain.IncidentFilter
	if v := q.Get("building"); v != "" {
		f.Building = &v
	}
	if q.Has("verified") {
		v := strings.EqualFold(q.Get("verified"), "true")
		f.Verified = &v
	}
	if v := q.Get("search"); v != "" {
		f.Search = &v
	}
	return f
}

// List handles GET /malpractices/.
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListIncidents(r.Context(), filterFromQuery(r))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncidentResponses(items))
}

// Get handles GET /malpractices/{id}/.
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	in, err := h.svc.GetIncident(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncidentResponse(in))
}

// Verify handles POST /malpractices/{id}/verify/.
func (h *IncidentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, true)
}

// Unverify handles POST /malpractices/{id}/unverify/.
func (h *IncidentHandler) Unverify(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, false)
}

func (h *IncidentHandler) setVerified(w http.ResponseWriter, r *http.Request, verified bool) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	in, err := h.svc.SetVerified(r.Context(), id, verified)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	status := "unverified"
	if verified {
		status = "verified"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "data": toIncidentResponse(in)})
}

// Delete handles DELETE /malpractices/{id}/.
func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteIncident(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type typeCountResponse struct {
	Malpractice string `json:"malpractice"`
	Count       int    `json:"count"`
}

// Stats handles GET /malpractices/stats/. The list filters apply.
func (h *IncidentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.IncidentStats(r.Context(), filterFromQuery(r))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	byType := make([]typeCountResponse, 0, len(stats.ByType))
	for _, tc := range stats.ByType {
		byType = append(byType, typeCountResponse{Malpractice: string(tc.Type), Count: tc.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":      stats.Total,
		"verified":   stats.Verified,
		"unverified": stats.Unverified,
		"by_type":    byType,
	})
}

// Dashboard handles GET /dashboard/stats/.
func (h *IncidentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_malpractices":  stats.TotalIncidents,
		"unverified_count":    stats.UnverifiedCount,
		"verified_count":      stats.VerifiedCount,
		"total_halls":         stats.TotalHalls,
		"recent_malpractices": toIncidentResponses(stats.RecentIncidents),
	})
}

// Buildings handles GET /lecture-halls/buildings/.
func (h *IncidentHandler) Buildings(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Buildings(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if opts == nil {
		opts = []BuildingOption{}
	}
	writeJSON(w, http.StatusOK, opts)
}

func (h *IncidentHandler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}
