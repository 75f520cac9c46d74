package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/examwatch/internal/domain"
	"github.com/heartmarshall/examwatch/pkg/ctxutil"
)

// maxAvatarSize bounds multipart registration bodies.
const maxAvatarSize = 5 << 20

// authService defines the minimal interface needed by AuthHandler.
type authService interface {
	Login(ctx context.Context, username, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (domain.Credentials, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate) (*domain.User, error)
}

// AuthHandler serves the auth endpoints.
type AuthHandler struct {
	svc authService
	log *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc authService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: logger.With("handler", "auth")}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type profileUpdateRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

type authResponse struct {
	User    userResponse `json:"user"`
	Refresh string       `json:"refresh"`
	Access  string       `json:"access"`
	Message string       `json:"message,omitempty"`
}

// Login handles POST /auth/login/.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide both username and password")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result, ""))
}

// Register handles POST /auth/register/ with a JSON or multipart body.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	reg, err := h.readRegistration(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Register(r.Context(), reg)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(result, "User registered successfully"))
}

func (h *AuthHandler) readRegistration(r *http.Request) (domain.Registration, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
			return domain.Registration{}, err
		}
		reg := domain.Registration{
			Username:        r.FormValue("username"),
			Email:           r.FormValue("email"),
			Password:        r.FormValue("password"),
			PasswordConfirm: r.FormValue("password2"),
			FirstName:       r.FormValue("first_name"),
			LastName:        r.FormValue("last_name"),
			Phone:           r.FormValue("phone"),
		}
		if f, hdr, err := r.FormFile("profile_picture"); err == nil {
			reg.Avatar = &domain.Avatar{Filename: hdr.Filename, Content: f}
		}
		return reg, nil
	}

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		return domain.Registration{}, err
	}
	return domain.Registration{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.Password2,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
	}, nil
}

// Refresh handles POST /auth/refresh/.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Token is invalid or expired",
				"code":   "token_not_valid",
			})
			return
		}
		handleError(h.log, w, r, err)
		return
	}

	resp := map[string]string{"access": pair.AccessToken}
	if pair.RefreshToken != "" {
		resp["refresh"] = pair.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout/. The refresh token in the body, if any,
// is blacklisted.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Refresh != "" {
		if err := h.svc.Logout(r.Context(), req.Refresh); err != nil {
			writeError(w, http.StatusBadRequest, "Token is invalid or expired")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Profile handles GET /auth/profile/.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserIDFromCtx(r.Context())

	user, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateProfile handles PUT and PATCH /auth/profile/update/.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := ctxutil.UserIDFromCtx(r.Context())
	user, err := h.svc.UpdateProfile(r.Context(), userID, domain.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsSuperuser: u.IsSuperuser,
	}
}

func toAuthResponse(result *domain.AuthResult, message string) authResponse {
	return authResponse{
		User:    toUserResponse(result.User),
		Refresh: result.Credentials.RefreshToken,
		Access:  result.Credentials.AccessToken,
		Message: message,
	}
}
