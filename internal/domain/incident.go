package domain

import (
	"strings"
	"time"
)

// IncidentType is the detected malpractice category.
type IncidentType string

const (
	IncidentMobile       IncidentType = "mobile"
	IncidentPaperPassing IncidentType = "paper_passing"
	IncidentHandRaise    IncidentType = "hand_raise"
	IncidentTurningBack  IncidentType = "turning_back"
	IncidentLeaning      IncidentType = "leaning"
)

// IsKnown reports whether t is one of the categories produced by the detector.
// Unknown values are kept as-is so newer server categories still display.
func (t IncidentType) IsKnown() bool {
	switch t {
	case IncidentMobile, IncidentPaperPassing, IncidentHandRaise, IncidentTurningBack, IncidentLeaning:
		return true
	}
	return false
}

// Label returns the upper-cased, space-separated form used in listings.
func (t IncidentType) Label() string {
	if t == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " "))
}

// Incident is a single detected malpractice record.
type Incident struct {
	ID              int64
	Type            IncidentType
	LectureHallName string
	Building        string
	DetectedAt      time.Time
	Verified        bool
	EvidenceRef     *string
}

// IncidentSummary holds the counters shown under an incident listing.
type IncidentSummary struct {
	Total    int
	Verified int
	Pending  int
}

// Summarize counts verified and pending incidents.
func Summarize(items []Incident) IncidentSummary {
	s := IncidentSummary{Total: len(items)}
	for _, it := range items {
		if it.Verified {
			s.Verified++
		}
	}
	s.Pending = s.Total - s.Verified
	return s
}

// TypeCount is the number of incidents of a given type.
type TypeCount struct {
	Type  IncidentType
	Count int
}

// IncidentStats aggregates incidents matching the server's default query.
type IncidentStats struct {
	Total      int
	Verified   int
	Unverified int
	ByType     []TypeCount
}

// DashboardStats is the overview shown on the dashboard view.
type DashboardStats struct {
	TotalIncidents  int
	VerifiedCount   int
	UnverifiedCount int
	TotalHalls      int
	RecentIncidents []Incident
}
