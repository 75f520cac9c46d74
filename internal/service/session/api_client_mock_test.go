package session

import (
	"context"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Ensure, that apiClientMock does implement apiClient.
// If this is not the case, regenerate this file with moq.
var _ apiClient = &apiClientMock{}

// apiClientMock is a mock implementation of apiClient.
type apiClientMock struct {
	// FetchProfileFunc mocks the FetchProfile method.
	FetchProfileFunc func(ctx context.Context) (*domain.User, error)

	// LoginFunc mocks the Login method.
	LoginFunc func(ctx context.Context, username string, password string) (*domain.AuthResult, error)

	// LogoutFunc mocks the Logout method.
	LogoutFunc func(ctx context.Context, refreshToken string) error

	// RegisterFunc mocks the Register method.
	RegisterFunc func(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)

	// UpdateProfileFunc mocks the UpdateProfile method.
	UpdateProfileFunc func(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error)

	// calls tracks calls to the methods.
	calls struct {
		// FetchProfile holds details about calls to the FetchProfile method.
		FetchProfile []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
		}
		// Login holds details about calls to the Login method.
		Login []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Username is the username argument value.
			Username string
			// Password is the password argument value.
			Password string
		}
		// Logout holds details about calls to the Logout method.
		Logout []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// RefreshToken is the refreshToken argument value.
			RefreshToken string
		}
		// Register holds details about calls to the Register method.
		Register []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Reg is the reg argument value.
			Reg domain.Registration
		}
		// UpdateProfile holds details about calls to the UpdateProfile method.
		UpdateProfile []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Upd is the upd argument value.
			Upd domain.ProfileUpdate
		}
	}
	lockFetchProfile  sync.RWMutex
	lockLogin         sync.RWMutex
	lockLogout        sync.RWMutex
	lockRegister      sync.RWMutex
	lockUpdateProfile sync.RWMutex
}

// FetchProfile calls FetchProfileFunc.
func (mock *apiClientMock) FetchProfile(ctx context.Context) (*domain.User, error) {
	if mock.FetchProfileFunc == nil {
		panic("apiClientMock.FetchProfileFunc: method is nil but apiClient.FetchProfile was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockFetchProfile.Lock()
	mock.calls.FetchProfile = append(mock.calls.FetchProfile, callInfo)
	mock.lockFetchProfile.Unlock()
	return mock.FetchProfileFunc(ctx)
}

// FetchProfileCalls gets all the calls that were made to FetchProfile.
// Check the length with:
//
//	len(mockedApiClient.FetchProfileCalls())
func (mock *apiClientMock) FetchProfileCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockFetchProfile.RLock()
	calls = mock.calls.FetchProfile
	mock.lockFetchProfile.RUnlock()
	return calls
}

// Login calls LoginFunc.
func (mock *apiClientMock) Login(ctx context.Context, username string, password string) (*domain.AuthResult, error) {
	if mock.LoginFunc == nil {
		panic("apiClientMock.LoginFunc: method is nil but apiClient.Login was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Username string
		Password string
	}{
		Ctx:      ctx,
		Username: username,
		Password: password,
	}
	mock.lockLogin.Lock()
	mock.calls.Login = append(mock.calls.Login, callInfo)
	mock.lockLogin.Unlock()
	return mock.LoginFunc(ctx, username, password)
}

// LoginCalls gets all the calls that were made to Login.
// Check the length with:
//
//	len(mockedApiClient.LoginCalls())
func (mock *apiClientMock) LoginCalls() []struct {
	Ctx      context.Context
	Username string
	Password string
} {
	var calls []struct {
		Ctx      context.Context
		Username string
		Password string
	}
	mock.lockLogin.RLock()
	calls = mock.calls.Login
	mock.lockLogin.RUnlock()
	return calls
}

// Logout calls LogoutFunc.
func (mock *apiClientMock) Logout(ctx context.Context, refreshToken string) error {
	if mock.LogoutFunc == nil {
		panic("apiClientMock.LogoutFunc: method is nil but apiClient.Logout was just called")
	}
	callInfo := struct {
		Ctx          context.Context
		RefreshToken string
	}{
		Ctx:          ctx,
		RefreshToken: refreshToken,
	}
	mock.lockLogout.Lock()
	mock.calls.Logout = append(mock.calls.Logout, callInfo)
	mock.lockLogout.Unlock()
	return mock.LogoutFunc(ctx, refreshToken)
}

// LogoutCalls gets all the calls that were made to Logout.
// Check the length with:
//
//	len(mockedApiClient.LogoutCalls())
func (mock *apiClientMock) LogoutCalls() []struct {
	Ctx          context.Context
	RefreshToken string
} {
	var calls []struct {
		Ctx          context.Context
		RefreshToken string
	}
	mock.lockLogout.RLock()
	calls = mock.calls.Logout
	mock.lockLogout.RUnlock()
	return calls
}

// Register calls RegisterFunc.
func (mock *apiClientMock) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	if mock.RegisterFunc == nil {
		panic("apiClientMock.RegisterFunc: method is nil but apiClient.Register was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Reg domain.Registration
	}{
		Ctx: ctx,
		Reg: reg,
	}
	mock.lockRegister.Lock()
	mock.calls.Register = append(mock.calls.Register, callInfo)
	mock.lockRegister.Unlock()
	return mock.RegisterFunc(ctx, reg)
}

// RegisterCalls gets all the calls that were made to Register.
// Check the length with:
//
//	len(mockedApiClient.RegisterCalls())
func (mock *apiClientMock) RegisterCalls() []struct {
	Ctx context.Context
	Reg domain.Registration
} {
	var calls []struct {
		Ctx context.Context
		Reg domain.Registration
	}
	mock.lockRegister.RLock()
	calls = mock.calls.Register
	mock.lockRegister.RUnlock()
	return calls
}

// UpdateProfile calls UpdateProfileFunc.
func (mock *apiClientMock) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error) {
	if mock.UpdateProfileFunc == nil {
		panic("apiClientMock.UpdateProfileFunc: method is nil but apiClient.UpdateProfile was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Upd domain.ProfileUpdate
	}{
		Ctx: ctx,
		Upd: upd,
	}
	mock.lockUpdateProfile.Lock()
	mock.calls.UpdateProfile = append(mock.calls.UpdateProfile, callInfo)
	mock.lockUpdateProfile.Unlock()
	return mock.UpdateProfileFunc(ctx, upd)
}

// UpdateProfileCalls gets all the calls that were made to UpdateProfile.
// Check the length with:
//
//	len(mockedApiClient.UpdateProfileCalls())
func (mock *apiClientMock) UpdateProfileCalls() []struct {
	Ctx context.Context
	Upd domain.ProfileUpdate
} {
	var calls []struct {
		Ctx context.Context
		Upd domain.ProfileUpdate
	}
	mock.lockUpdateProfile.RLock()
	calls = mock.calls.UpdateProfile
	mock.lockUpdateProfile.RUnlock()
	return calls
}
