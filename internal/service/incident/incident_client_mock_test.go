package incident

import (
	"context"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Ensure, that incidentClientMock does implement incidentClient.
// If this is not the case, regenerate this file with moq.
var _ incidentClient = &incidentClientMock{}

// incidentClientMock is a mock implementation of incidentClient.
type incidentClientMock struct {
	// DeleteIncidentFunc mocks the DeleteIncident method.
	DeleteIncidentFunc func(ctx context.Context, id int64) error

	// ListBuildingsFunc mocks the ListBuildings method.
	ListBuildingsFunc func(ctx context.Context) ([]string, error)

	// ListIncidentsFunc mocks the ListIncidents method.
	ListIncidentsFunc func(ctx context.Context, f domain.IncidentFilter) ([]domain.Incident, error)

	// UnverifyIncidentFunc mocks the UnverifyIncident method.
	UnverifyIncidentFunc func(ctx context.Context, id int64) error

	// VerifyIncidentFunc mocks the VerifyIncident method.
	VerifyIncidentFunc func(ctx context.Context, id int64) error

	// calls tracks calls to the methods.
	calls struct {
		// DeleteIncident holds details about calls to the DeleteIncident method.
		DeleteIncident []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Id is the id argument value.
			Id int64
		}
		// ListBuildings holds details about calls to the ListBuildings method.
		ListBuildings []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
		}
		// ListIncidents holds details about calls to the ListIncidents method.
		ListIncidents []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// F is the f argument value.
			F domain.IncidentFilter
		}
		// UnverifyIncident holds details about calls to the UnverifyIncident method.
		UnverifyIncident []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Id is the id argument value.
			Id int64
		}
		// VerifyIncident holds details about calls to the VerifyIncident method.
		VerifyIncident []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Id is the id argument value.
			Id int64
		}
	}
	lockDeleteIncident   sync.RWMutex
	lockListBuildings    sync.RWMutex
	lockListIncidents    sync.RWMutex
	lockUnverifyIncident sync.RWMutex
	lockVerifyIncident   sync.RWMutex
}

// DeleteIncident calls DeleteIncidentFunc.
func (mock *incidentClientMock) DeleteIncident(ctx context.Context, id int64) error {
	if mock.DeleteIncidentFunc == nil {
		panic("incidentClientMock.DeleteIncidentFunc: method is nil but incidentClient.DeleteIncident was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Id  int64
	}{
		Ctx: ctx,
		Id:  id,
	}
	mock.lockDeleteIncident.Lock()
	mock.calls.DeleteIncident = append(mock.calls.DeleteIncident, callInfo)
	mock.lockDeleteIncident.Unlock()
	return mock.DeleteIncidentFunc(ctx, id)
}

// DeleteIncidentCalls gets all the calls that were made to DeleteIncident.
// Check the length with:
//
//	len(mockedIncidentClient.DeleteIncidentCalls())
func (mock *incidentClientMock) DeleteIncidentCalls() []struct {
	Ctx context.Context
	Id  int64
} {
	var calls []struct {
		Ctx context.Context
		Id  int64
	}
	mock.lockDeleteIncident.RLock()
	calls = mock.calls.DeleteIncident
	mock.lockDeleteIncident.RUnlock()
	return calls
}

// ListBuildings calls ListBuildingsFunc.
func (mock *incidentClientMock) ListBuildings(ctx context.Context) ([]string, error) {
	if mock.ListBuildingsFunc == nil {
		panic("incidentClientMock.ListBuildingsFunc: method is nil but incidentClient.ListBuildings was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockListBuildings.Lock()
	mock.calls.ListBuildings = append(mock.calls.ListBuildings, callInfo)
	mock.lockListBuildings.Unlock()
	return mock.ListBuildingsFunc(ctx)
}

// ListBuildingsCalls gets all the calls that were made to ListBuildings.
// Check the length with:
//
//	len(mockedIncidentClient.ListBuildingsCalls())
func (mock *incidentClientMock) ListBuildingsCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockListBuildings.RLock()
	calls = mock.calls.ListBuildings
	mock.lockListBuildings.RUnlock()
	return calls
}

// ListIncidents calls ListIncidentsFunc.
func (mock *incidentClientMock) ListIncidents(ctx context.Context, f domain.IncidentFilter) ([]domain.Incident, error) {
	if mock.ListIncidentsFunc == nil {
		panic("incidentClientMock.ListIncidentsFunc: method is nil but incidentClient.ListIncidents was just called")
	}
	callInfo := struct {
		Ctx context.Context
		F   domain.IncidentFilter
	}{
		Ctx: ctx,
		F:   f,
	}
	mock.lockListIncidents.Lock()
	mock.calls.ListIncidents = append(mock.calls.ListIncidents, callInfo)
	mock.lockListIncidents.Unlock()
	return mock.ListIncidentsFunc(ctx, f)
}

// ListIncidentsCalls gets all the calls that were made to ListIncidents.
// Check the length with:
//
//	len(mockedIncidentClient.ListIncidentsCalls())
func (mock *incidentClientMock) ListIncidentsCalls() []struct {
	Ctx context.Context
	F   domain.IncidentFilter
} {
	var calls []struct {
		Ctx context.Context
		F   domain.IncidentFilter
	}
	mock.lockListIncidents.RLock()
	calls = mock.calls.ListIncidents
	mock.lockListIncidents.RUnlock()
	return calls
}

// UnverifyIncident calls UnverifyIncidentFunc.
func (mock *incidentClientMock) UnverifyIncident(ctx context.Context, id int64) error {
	if mock.UnverifyIncidentFunc == nil {
		panic("incidentClientMock.UnverifyIncidentFunc: method is nil but incidentClient.UnverifyIncident was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Id  int64
	}{
		Ctx: ctx,
		Id:  id,
	}
	mock.lockUnverifyIncident.Lock()
	mock.calls.UnverifyIncident = append(mock.calls.UnverifyIncident, callInfo)
	mock.lockUnverifyIncident.Unlock()
	return mock.UnverifyIncidentFunc(ctx, id)
}

// UnverifyIncidentCalls gets all the calls that were made to UnverifyIncident.
// Check the length with:
//
//	len(mockedIncidentClient.UnverifyIncidentCalls())
func (mock *incidentClientMock) UnverifyIncidentCalls() []struct {
	Ctx context.Context
	Id  int64
} {
	var calls []struct {
		Ctx context.Context
		Id  int64
	}
	mock.lockUnverifyIncident.RLock()
	calls = mock.calls.UnverifyIncident
	mock.lockUnverifyIncident.RUnlock()
	return calls
}

// VerifyIncident calls VerifyIncidentFunc.
func (mock *incidentClientMock) VerifyIncident(ctx context.Context, id int64) error {
	if mock.VerifyIncidentFunc == nil {
		panic("incidentClientMock.VerifyIncidentFunc: method is nil but incidentClient.VerifyIncident was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Id  int64
	}{
		Ctx: ctx,
		Id:  id,
	}
	mock.lockVerifyIncident.Lock()
	mock.calls.VerifyIncident = append(mock.calls.VerifyIncident, callInfo)
	mock.lockVerifyIncident.Unlock()
	return mock.VerifyIncidentFunc(ctx, id)
}

// VerifyIncidentCalls gets all the calls that were made to VerifyIncident.
// Check the length with:
//
//	len(mockedIncidentClient.VerifyIncidentCalls())
func (mock *incidentClientMock) VerifyIncidentCalls() []struct {
	Ctx context.Context
	Id  int64
} {
	var calls []struct {
		Ctx context.Context
		Id  int64
	}
	mock.lockVerifyIncident.RLock()
	calls = mock.calls.VerifyIncident
	mock.lockVerifyIncident.RUnlock()
	return calls
}
