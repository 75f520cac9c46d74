package session

import (
	"context"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Ensure, that credentialStoreMock does implement credentialStore.
// If this is not the case, regenerate this file with moq.
var _ credentialStore = &credentialStoreMock{}

// credentialStoreMock is a mock implementation of credentialStore.
type credentialStoreMock struct {
	// ClearFunc mocks the Clear method.
	ClearFunc func(ctx context.Context) error

	// LoadFunc mocks the Load method.
	LoadFunc func(ctx context.Context) (domain.Credentials, error)

	// SaveFunc mocks the Save method.
	SaveFunc func(ctx context.Context, creds domain.Credentials) error

	// calls tracks calls to the methods.
	calls struct {
		// Clear holds details about calls to the Clear method.
		Clear []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
		}
		// Load holds details about calls to the Load method.
		Load []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
		}
		// Save holds details about calls to the Save method.
		Save []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Creds is the creds argument value.
			Creds domain.Credentials
		}
	}
	lockClear sync.RWMutex
	lockLoad  sync.RWMutex
	lockSave  sync.RWMutex
}

// Clear calls ClearFunc.
func (mock *credentialStoreMock) Clear(ctx context.Context) error {
	if mock.ClearFunc == nil {
		panic("credentialStoreMock.ClearFunc: method is nil but credentialStore.Clear was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockClear.Lock()
	mock.calls.Clear = append(mock.calls.Clear, callInfo)
	mock.lockClear.Unlock()
	return mock.ClearFunc(ctx)
}

// ClearCalls gets all the calls that were made to Clear.
// Check the length with:
//
//	len(mockedCredentialStore.ClearCalls())
func (mock *credentialStoreMock) ClearCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockClear.RLock()
	calls = mock.calls.Clear
	mock.lockClear.RUnlock()
	return calls
}

// Load calls LoadFunc.
func (mock *credentialStoreMock) Load(ctx context.Context) (domain.Credentials, error) {
	if mock.LoadFunc == nil {
		panic("credentialStoreMock.LoadFunc: method is nil but credentialStore.Load was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockLoad.Lock()
	mock.calls.Load = append(mock.calls.Load, callInfo)
	mock.lockLoad.Unlock()
	return mock.LoadFunc(ctx)
}

// LoadCalls gets all the calls that were made to Load.
// Check the length with:
//
//	len(mockedCredentialStore.LoadCalls())
func (mock *credentialStoreMock) LoadCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockLoad.RLock()
	calls = mock.calls.Load
	mock.lockLoad.RUnlock()
	return calls
}

// Save calls SaveFunc.
func (mock *credentialStoreMock) Save(ctx context.Context, creds domain.Credentials) error {
	if mock.SaveFunc == nil {
		panic("credentialStoreMock.SaveFunc: method is nil but credentialStore.Save was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Creds domain.Credentials
	}{
		Ctx:   ctx,
		Creds: creds,
	}
	mock.lockSave.Lock()
	mock.calls.Save = append(mock.calls.Save, callInfo)
	mock.lockSave.Unlock()
	return mock.SaveFunc(ctx, creds)
}

// SaveCalls gets all the calls that were made to Save.
// Check the length with:
//
//	len(mockedCredentialStore.SaveCalls())
func (mock *credentialStoreMock) SaveCalls() []struct {
	Ctx   context.Context
	Creds domain.Credentials
} {
	var calls []struct {
		Ctx   context.Context
		Creds domain.Credentials
	}
	mock.lockSave.RLock()
	calls = mock.calls.Save
	mock.lockSave.RUnlock()
	return calls
}
