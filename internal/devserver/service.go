// Package devserver is an in-memory implementation of the exam-monitoring
// API, used for local work and as the remote side of client tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartmarshall/examwatch/internal/auth"
	"github.com/heartmarshall/examwatch/internal/domain"
	"github.com/heartmarshall/examwatch/internal/transport/rest"
)

// recentLimit is how many incidents the dashboard lists.
const recentLimit = 5

type account struct {
	user         domain.User
	passwordHash []byte
	phone        string
	avatar       []byte
}

type hall struct {
	name     string
	building string
	label    string
}

// Service holds users, lecture halls, incidents and revoked tokens in memory.
type Service struct {
	mu sync.RWMutex

	jwt           *auth.JWTManager
	rotateRefresh bool
	log           *slog.Logger

	accounts       map[int64]*account
	byUsername     map[string]int64
	halls          []hall
	incidents      map[int64]domain.Incident
	revokedRefresh map[string]struct{}
	revokedAccess  map[string]struct{}

	nextUserID     int64
	nextIncidentID int64
}

// NewService creates an empty Service issuing tokens with jwt.
func NewService(logger *slog.Logger, jwt *auth.JWTManager, rotateRefresh bool) *Service {
	return &Service{
		jwt:            jwt,
		rotateRefresh:  rotateRefresh,
		log:            logger.With("service", "devserver"),
		accounts:       make(map[int64]*account),
		byUsername:     make(map[string]int64),
		incidents:      make(map[int64]domain.Incident),
		revokedRefresh: make(map[string]struct{}),
		revokedAccess:  make(map[string]struct{}),
	}
}

// Ping reports whether the store is usable.
func (s *Service) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// Login verifies username and password and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.AuthResult, error) {
	s.mu.RLock()
	acc, ok := s.lookup(username)
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		s.log.InfoContext(ctx, "login rejected", slog.String("username", username))
		return nil, domain.ErrUnauthorized
	}

	return s.issue(acc.user)
}

// Register validates reg, creates the account and issues a token pair.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var avatar []byte
	if reg.Avatar != nil && reg.Avatar.Content != nil {
		if avatar, err = io.ReadAll(reg.Avatar.Content); err != nil {
			return nil, fmt.Errorf("read avatar: %w", err)
		}
	}

	s.mu.Lock()
	if _, taken := s.byUsername[strings.ToLower(reg.Username)]; taken {
		s.mu.Unlock()
		return nil, domain.NewValidationError("username", "A user with that username already exists.")
	}
	user := s.insertAccount(domain.User{
		Username:  reg.Username,
		Email:     reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
	}, hash, reg.Phone, avatar)
	s.mu.Unlock()

	s.log.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.Bool("avatar", len(avatar) > 0),
	)
	return s.issue(user)
}

func validateRegistration(reg domain.Registration) error {
	err := validation.Errors{
		"username":  validation.Validate(reg.Username, validation.Required, validation.Length(1, 150)),
		"email":     validation.Validate(reg.Email, is.Email),
		"password":  validation.Validate(reg.Password, validation.Required, validation.Length(8, 0)),
		"password2": validation.Validate(reg.PasswordConfirm, validation.Required, validation.Length(8, 0)),
	}.Filter()
	if err != nil {
		return toValidationError(err)
	}
	if reg.Password != reg.PasswordConfirm {
		return domain.NewValidationError("password", "Passwords don't match")
	}
	return nil
}

// Refresh exchanges a refresh token for a new access token. With rotation
// enabled the presented refresh token is revoked and a new one returned.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := auth.HashToken(refreshToken)
	if _, revoked := s.revokedRefresh[key]; revoked {
		return domain.Credentials{}, fmt.Errorf("%w: token is blacklisted", domain.ErrUnauthorized)
	}
	if _, ok := s.accounts[claims.UserID]; !ok {
		return domain.Credentials{}, fmt.Errorf("%w: user is gone", domain.ErrUnauthorized)
	}

	access, err := s.jwt.GenerateAccessToken(claims.UserID)
	if err != nil {
		return domain.Credentials{}, err
	}
	pair := domain.Credentials{AccessToken: access}

	if s.rotateRefresh {
		if pair.RefreshToken, err = s.jwt.GenerateRefreshToken(claims.UserID); err != nil {
			return domain.Credentials{}, err
		}
		s.revokedRefresh[key] = struct{}{}
	}

	s.log.DebugContext(ctx, "access token refreshed", slog.Int64("user_id", claims.UserID))
	return pair, nil
}

// Logout blacklists refreshToken.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.jwt.ValidateRefreshToken(refreshToken); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.mu.Lock()
	s.revokedRefresh[auth.HashToken(refreshToken)] = struct{}{}
	s.mu.Unlock()

	s.log.InfoContext(ctx, "refresh token blacklisted")
	return nil
}

// ValidateAccessToken validates the signature, expiry and revocation state
// of an access token.
func (s *Service) ValidateAccessToken(token string) (int64, error) {
	userID, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, revoked := s.revokedAccess[auth.HashToken(token)]; revoked {
		return 0, errors.New("token revoked")
	}
	if _, ok := s.accounts[userID]; !ok {
		return 0, errors.New("user not found")
	}
	return userID, nil
}

// RevokeAccessToken makes token fail validation from now on, as if it had expired.
func (s *Service) RevokeAccessToken(token string) {
	s.mu.Lock()
	s.revokedAccess[auth.HashToken(token)] = struct{}{}
	s.mu.Unlock()
}

// IsRefreshRevoked reports whether refreshToken has been blacklisted.
func (s *Service) IsRefreshRevoked(refreshToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, revoked := s.revokedRefresh[auth.HashToken(refreshToken)]
	return revoked
}

// Profile returns the user with the given ID.
func (s *Service) Profile(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := acc.user
	return &u, nil
}

// UpdateProfile applies the fields set in upd.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.Email != nil {
		if err := validation.Validate(*upd.Email, is.Email); err != nil {
			return nil, domain.NewValidationError("email", "Enter a valid email address.")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Email != nil {
		acc.user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		acc.user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		acc.user.LastName = *upd.LastName
	}

	s.log.InfoContext(ctx, "profile updated", slog.Int64("user_id", userID))
	u := acc.user
	return &u, nil
}

func (s *Service) lookup(username string) (*account, bool) {
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, false
	}
	acc, ok := s.accounts[id]
	return acc, ok
}

// insertAccount must be called with mu held.
func (s *Service) insertAccount(u domain.User, hash []byte, phone string, avatar []byte) domain.User {
	s.nextUserID++
	u.ID = s.nextUserID
	s.accounts[u.ID] = &account{user: u, passwordHash: hash, phone: phone, avatar: avatar}
	s.byUsername[strings.ToLower(u.Username)] = u.ID
	return u
}

func (s *Service) issue(u domain.User) (*domain.AuthResult, error) {
	access, refresh, err := s.jwt.GeneratePair(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &domain.AuthResult{
		User:        &u,
		Credentials: domain.Credentials{AccessToken: access, RefreshToken: refresh},
	}, nil
}

func toValidationError(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fields := make(map[string][]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = []string{ferr.Error()}
	}
	return domain.ValidationErrorFromMap(fields)
}

// ---------------------------------------------------------------------------
// Incidents
// ---------------------------------------------------------------------------

// ListIncidents returns incidents matching f, newest first.
func (s *Service) ListIncidents(_ context.Context, f domain.IncidentFilter) ([]domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered(f), nil
}

// filtered must be called with mu held.
func (s *Service) filtered(f domain.IncidentFilter) []domain.Incident {
	out := make([]domain.Incident, 0, len(s.incidents))
	for _, in := range s.incidents {
		if matches(in, f) {
			out = append(out, in)
		}
	}
	sortNewestFirst(out)
	return out
}

func matches(in domain.Incident, f domain.IncidentFilter) bool {
	if f.Building != nil && in.Building != *f.Building {
		return false
	}
	if f.Verified != nil && in.Verified != *f.Verified {
		return false
	}
	if f.Search != nil {
		needle := strings.ToLower(*f.Search)
		if !strings.Contains(strings.ToLower(string(in.Type)), needle) &&
			!strings.Contains(strings.ToLower(in.LectureHallName), needle) {
			return false
		}
	}
	return true
}

func sortNewestFirst(items []domain.Incident) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].DetectedAt.Equal(items[j].DetectedAt) {
			return items[i].DetectedAt.After(items[j].DetectedAt)
		}
		return items[i].ID > items[j].ID
	})
}

// GetIncident returns one incident.
func (s *Service) GetIncident(_ context.Context, id int64) (domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.incidents[id]
	if !ok {
		return domain.Incident{}, domain.ErrNotFound
	}
	return in, nil
}

// SetVerified sets the verified flag of an incident.
func (s *Service) SetVerified(ctx context.Context, id int64, verified bool) (domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.incidents[id]
	if !ok {
		return domain.Incident{}, domain.ErrNotFound
	}
	in.Verified = verified
	s.incidents[id] = in

	s.log.InfoContext(ctx, "incident verification changed",
		slog.Int64("incident_id", id),
		slog.Bool("verified", verified),
	)
	return in, nil
}

// DeleteIncident removes an incident.
func (s *Service) DeleteIncident(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incidents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.incidents, id)

	s.log.InfoContext(ctx, "incident deleted", slog.Int64("incident_id", id))
	return nil
}

// IncidentStats counts incidents matching f, with per-type counts ordered by
// count descending.
func (s *Service) IncidentStats(_ context.Context, f domain.IncidentFilter) (domain.IncidentStats, error) {
	s.mu.RLock()
	items := s.filtered(f)
	s.mu.RUnlock()

	sum := domain.Summarize(items)
	counts := make(map[domain.IncidentType]int)
	for _, in := range items {
		counts[in.Type]++
	}

	byType := make([]domain.TypeCount, 0, len(counts))
	for typ, n := range counts {
		byType = append(byType, domain.TypeCount{Type: typ, Count: n})
	}
	sort.Slice(byType, func(i, j int) bool {
		if byType[i].Count != byType[j].Count {
			return byType[i].Count > byType[j].Count
		}
		return byType[i].Type < byType[j].Type
	})

	return domain.IncidentStats{
		Total:      sum.Total,
		Verified:   sum.Verified,
		Unverified: sum.Pending,
		ByType:     byType,
	}, nil
}

// DashboardStats returns global counters and the most recent incidents.
func (s *Service) DashboardStats(_ context.Context) (domain.DashboardStats, error) {
	s.mu.RLock()
	items := s.filtered(domain.IncidentFilter{})
	halls := len(s.halls)
	s.mu.RUnlock()

	sum := domain.Summarize(items)
	recent := items
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	return domain.DashboardStats{
		TotalIncidents:  sum.Total,
		VerifiedCount:   sum.Verified,
		UnverifiedCount: sum.Pending,
		TotalHalls:      halls,
		RecentIncidents: recent,
	}, nil
}

// Buildings returns the distinct buildings of all lecture halls in
// insertion order.
func (s *Service) Buildings(_ context.Context) ([]rest.BuildingOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.halls))
	out := make([]rest.BuildingOption, 0, len(s.halls))
	for _, h := range s.halls {
		if _, dup := seen[h.building]; dup {
			continue
		}
		seen[h.building] = struct{}{}
		label := h.label
		if label == "" {
			label = h.building
		}
		out = append(out, rest.BuildingOption{Value: h.building, Label: label})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------------

// UserSeed describes an account created directly, bypassing registration rules.
type UserSeed struct {
	Username    string
	Password    string
	Email       string
	FirstName   string
	LastName    string
	IsSuperuser bool
}

// AddUser creates an account and returns the stored user.
func (s *Service) AddUser(seed UserSeed) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[strings.ToLower(seed.Username)]; taken {
		return domain.User{}, fmt.Errorf("%w: username %q", domain.ErrConflict, seed.Username)
	}
	return s.insertAccount(domain.User{
		Username:    seed.Username,
		Email:       seed.Email,
		FirstName:   seed.FirstName,
		LastName:    seed.LastName,
		IsSuperuser: seed.IsSuperuser,
	}, hash, "", nil), nil
}

// AddHall registers a lecture hall. label is the display name of its building.
func (s *Service) AddHall(name, building, label string) {
	s.mu.Lock()
	s.halls = append(s.halls, hall{name: name, building: building, label: label})
	s.mu.Unlock()
}

// AddIncident stores in. A zero ID is assigned the next free one; the
// building is taken from the hall when empty.
func (s *Service) AddIncident(in domain.Incident) domain.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == 0 {
		s.nextIncidentID++
		in.ID = s.nextIncidentID
	} else if in.ID > s.nextIncidentID {
		s.nextIncidentID = in.ID
	}
	if in.Building == "" {
		for _, h := range s.halls {
			if h.name == in.LectureHallName {
				in.Building = h.building
				break
			}
		}
	}
	if in.DetectedAt.IsZero() {
		in.DetectedAt = time.Now().UTC().Truncate(time.Second)
	}
	s.incidents[in.ID] = in
	return in
}
