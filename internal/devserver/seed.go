package devserver

import (
	"fmt"
	"time"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Demo account credentials created by SeedDemo.
const (
	DemoUsername = "invigilator"
	DemoPassword = "examwatch123"
)

// SeedDemo loads a small data set: one superuser account, three buildings
// with two halls each and a spread of incidents over the last day.
func (s *Service) SeedDemo(now time.Time) error {
	if _, err := s.AddUser(UserSeed{
		Username:    DemoUsername,
		Password:    DemoPassword,
		Email:       "invigilator@example.org",
		FirstName:   "Exam",
		LastName:    "Invigilator",
		IsSuperuser: true,
	}); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	buildings := []struct{ code, label string }{
		{"LH", "Lecture Hall Complex"},
		{"ENG", "Engineering Block"},
		{"SCI", "Science Block"},
	}
	for _, b := range buildings {
		s.AddHall(b.code+"-101", b.code, b.label)
		s.AddHall(b.code+"-102", b.code, b.label)
	}

	types := []domain.IncidentType{
		domain.IncidentMobile,
		domain.IncidentPaperPassing,
		domain.IncidentHandRaise,
		domain.IncidentTurningBack,
		domain.IncidentLeaning,
	}
	for i := 0; i < 12; i++ {
		b := buildings[i%len(buildings)]
		var proof *string
		if i%2 == 0 {
			p := fmt.Sprintf("/media/proofs/incident_%02d.jpg", i+1)
			proof = &p
		}
		s.AddIncident(domain.Incident{
			Type:            types[i%len(types)],
			LectureHallName: fmt.Sprintf("%s-10%d", b.code, 1+i%2),
			DetectedAt:      now.Add(-time.Duration(i) * 95 * time.Minute).UTC().Truncate(time.Second),
			Verified:        i%3 == 0,
			EvidenceRef:     proof,
		})
	}
	return nil
}
