package rest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// incidentDTO accepts both record shapes the server has produced: the
// detector's (type, detected_at, image_path) and the model serializer's
// (malpractice, date + time, proof).
type incidentDTO struct {
	ID                  int64   `json:"id"`
	Type                string  `json:"type"`
	Malpractice         string  `json:"malpractice"`
	LectureHallName     string  `json:"lecture_hall_name"`
	LectureHallBuilding string  `json:"lecture_hall_building"`
	DetectedAt          string  `json:"detected_at"`
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	CreatedAt           string  `json:"created_at"`
	Verified            bool    `json:"verified"`
	ImagePath           *string `json:"image_path"`
	Proof               *string `json:"proof"`
}

func (d incidentDTO) toDomain() domain.Incident {
	typ := d.Type
	if typ == "" {
		typ = d.Malpractice
	}

	return domain.Incident{
		ID:              d.ID,
		Type:            domain.IncidentType(typ),
		LectureHallName: d.LectureHallName,
		Building:        d.LectureHallBuilding,
		DetectedAt:      d.detectedAt(),
		Verified:        d.Verified,
		EvidenceRef:     firstNonEmpty(d.ImagePath, d.Proof),
	}
}

var clockLayouts = []string{"15:04:05.999999", "15:04:05", "15:04"}

// detectedAt returns the zero time when no timestamp can be parsed.
func (d incidentDTO) detectedAt() time.Time {
	if t, err := time.Parse(time.RFC3339Nano, d.DetectedAt); err == nil {
		return t
	}

	if d.Date != "" {
		day, err := time.Parse(time.DateOnly, d.Date)
		if err == nil {
			for _, layout := range clockLayouts {
				if clock, err := time.Parse(layout, d.Time); err == nil {
					return time.Date(day.Year(), day.Month(), day.Day(),
						clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
				}
			}
			return day
		}
	}

	if t, err := time.Parse(time.RFC3339Nano, d.CreatedAt); err == nil {
		return t
	}
	return time.Time{}
}

func firstNonEmpty(vals ...*string) *string {
	for _, v := range vals {
		if v != nil && strings.TrimSpace(*v) != "" {
			s := *v
			return &s
		}
	}
	return nil
}

// decodeIncidents accepts a bare array or a paginated {"results": [...]} envelope.
func decodeIncidents(raw json.RawMessage) ([]domain.Incident, error) {
	var dtos []incidentDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		var page struct {
			Results []incidentDTO `json:"results"`
		}
		if perr := json.Unmarshal(raw, &page); perr != nil {
			return nil, fmt.Errorf("decode incidents: %w", err)
		}
		dtos = page.Results
	}

	items := make([]domain.Incident, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, d.toDomain())
	}
	return items, nil
}

type buildingOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// decodeBuildings accepts ["A", ...] and [{"value": "A", "label": "Block A"}, ...].
// Empty and duplicate names are dropped; server order is kept.
func decodeBuildings(raw json.RawMessage) ([]string, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode buildings: %w", err)
	}

	seen := make(map[string]struct{}, len(elems))
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		var name string
		if err := json.Unmarshal(e, &name); err != nil {
			var opt buildingOption
			if err := json.Unmarshal(e, &opt); err != nil {
				return nil, fmt.Errorf("decode building: %w", err)
			}
			name = opt.Value
			if name == "" {
				name = opt.Label
			}
		}
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

type typeCountDTO struct {
	Type        string `json:"type"`
	Malpractice string `json:"malpractice"`
	Count       int    `json:"count"`
}

type incidentStatsDTO struct {
	Total      int            `json:"total"`
	Verified   int            `json:"verified"`
	Unverified int            `json:"unverified"`
	ByType     []typeCountDTO `json:"by_type"`
}

func (d incidentStatsDTO) toDomain() domain.IncidentStats {
	stats := domain.IncidentStats{
		Total:      d.Total,
		Verified:   d.Verified,
		Unverified: d.Unverified,
		ByType:     make([]domain.TypeCount, 0, len(d.ByType)),
	}
	for _, tc := range d.ByType {
		typ := tc.Type
		if typ == "" {
			typ = tc.Malpractice
		}
		stats.ByType = append(stats.ByType, domain.TypeCount{Type: domain.IncidentType(typ), Count: tc.Count})
	}
	return stats
}

type dashboardStatsDTO struct {
	TotalMalpractices  int           `json:"total_malpractices"`
	UnverifiedCount    int           `json:"unverified_count"`
	VerifiedCount      int           `json:"verified_count"`
	TotalHalls         int           `json:"total_halls"`
	RecentMalpractices []incidentDTO `json:"recent_malpractices"`
}

func (d dashboardStatsDTO) toDomain() domain.DashboardStats {
	stats := domain.DashboardStats{
		TotalIncidents:  d.TotalMalpractices,
		VerifiedCount:   d.VerifiedCount,
		UnverifiedCount: d.UnverifiedCount,
		TotalHalls:      d.TotalHalls,
		RecentIncidents: make([]domain.Incident, 0, len(d.RecentMalpractices)),
	}
	for _, r := range d.RecentMalpractices {
		stats.RecentIncidents = append(stats.RecentIncidents, r.toDomain())
	}
	return stats
}
