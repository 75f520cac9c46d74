package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/heartmarshall/examwatch/internal/domain"
)

type userDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (u userDTO) toDomain() *domain.User {
	return &domain.User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsSuperuser: u.IsSuperuser,
	}
}

type authResponse struct {
	User    userDTO `json:"user"`
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
}

func (r authResponse) toDomain(op string) (*domain.AuthResult, error) {
	if r.Access == "" || r.Refresh == "" {
		return nil, &domain.APIError{Op: op, Kind: domain.ErrTransport, Message: "server response is missing tokens"}
	}
	return &domain.AuthResult{
		User:        r.User.toDomain(),
		Credentials: domain.Credentials{AccessToken: r.Access, RefreshToken: r.Refresh},
	}, nil
}

// Login exchanges a username and password for a user and token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.AuthResult, error) {
	r, err := jsonRequest("auth.Login", http.MethodPost, "auth/login/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := c.call(ctx, r, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(r.op)
}

// Register creates an account. With an avatar the payload is sent as
// multipart/form-data, otherwise as JSON.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	fields := map[string]string{
		"username":   reg.Username,
		"email":      reg.Email,
		"password":   reg.Password,
		"password2":  reg.PasswordConfirm,
		"first_name": reg.FirstName,
		"last_name":  reg.LastName,
		"phone":      reg.Phone,
	}

	var (
		r   request
		err error
	)
	if reg.Avatar != nil && reg.Avatar.Content != nil {
		r, err = multipartRequest("auth.Register", "auth/register/", fields, reg.Avatar)
	} else {
		r, err = jsonRequest("auth.Register", http.MethodPost, "auth/register/", fields)
	}
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := c.call(ctx, r, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(r.op)
}

func multipartRequest(op, path string, fields map[string]string, avatar *domain.Avatar) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, k := range []string{"username", "email", "password", "password2", "first_name", "last_name", "phone"} {
		if err := w.WriteField(k, fields[k]); err != nil {
			return request{}, fmt.Errorf("%s: write field %s: %w", op, k, err)
		}
	}

	name := avatar.Filename
	if name == "" {
		name = "avatar"
	}
	part, err := w.CreateFormFile("profile_picture", name)
	if err != nil {
		return request{}, fmt.Errorf("%s: create file part: %w", op, err)
	}
	if _, err := io.Copy(part, avatar.Content); err != nil {
		return request{}, fmt.Errorf("%s: copy avatar: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("%s: close multipart: %w", op, err)
	}

	return request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}, nil
}

// Logout asks the server to blacklist refreshToken. The call is never
// retried with a refreshed access token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	var payload any
	if refreshToken != "" {
		payload = map[string]string{"refresh": refreshToken}
	}
	r, err := jsonRequest("auth.Logout", http.MethodPost, "auth/logout/", payload)
	if err != nil {
		return err
	}
	r.authed = true
	r.noRefresh = true
	return c.call(ctx, r, nil)
}

// FetchProfile returns the profile of the authenticated user.
func (c *Client) FetchProfile(ctx context.Context) (*domain.User, error) {
	r := request{op: "auth.FetchProfile", method: http.MethodGet, path: "auth/profile/", authed: true}

	var resp userDTO
	if err := c.call(ctx, r, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// UpdateProfile sends only the fields set in upd and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	payload := make(map[string]string, 3)
	if upd.Email != nil {
		payload["email"] = *upd.Email
	}
	if upd.FirstName != nil {
		payload["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		payload["last_name"] = *upd.LastName
	}

	r, err := jsonRequest("auth.UpdateProfile", http.MethodPatch, "auth/profile/update/", payload)
	if err != nil {
		return nil, err
	}
	r.authed = true

	var resp userDTO
	if err := c.call(ctx, r, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RefreshAccessToken exchanges refreshToken for a new access token without
// touching the credential store.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	pair, err := c.exchangeRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// exchangeRefresh returns the new access token and, when the server rotates
// refresh tokens, the new refresh token.
func (c *Client) exchangeRefresh(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	r, err := jsonRequest("auth.Refresh", http.MethodPost, "auth/refresh/", map[string]string{"refresh": refreshToken})
	if err != nil {
		return domain.Credentials{}, err
	}

	var resp refreshResponse
	if err := c.call(ctx, r, &resp); err != nil {
		return domain.Credentials{}, err
	}
	if resp.Access == "" {
		return domain.Credentials{}, &domain.APIError{Op: r.op, Kind: domain.ErrTransport, Message: "server response is missing the access token"}
	}
	return domain.Credentials{AccessToken: resp.Access, RefreshToken: resp.Refresh}, nil
}
