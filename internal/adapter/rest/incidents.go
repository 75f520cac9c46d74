package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// ListIncidents returns incidents matching f in server order. Only the
// filter fields that are set are sent as query parameters.
func (c *Client) ListIncidents(ctx context.Context, f domain.IncidentFilter) ([]domain.Incident, error) {
	r := request{
		op:     "incidents.List",
		method: http.MethodGet,
		path:   "malpractices/",
		query:  f.Query(),
		authed: true,
	}

	var raw json.RawMessage
	if err := c.call(ctx, r, &raw); err != nil {
		return nil, err
	}

	items, err := decodeIncidents(raw)
	if err != nil {
		return nil, &domain.APIError{Op: r.op, Kind: domain.ErrTransport, Err: err}
	}
	return items, nil
}

// VerifyIncident marks an incident as verified.
func (c *Client) VerifyIncident(ctx context.Context, id int64) error {
	return c.mutate(ctx, "incidents.Verify", http.MethodPost, incidentPath(id)+"verify/")
}

// UnverifyIncident clears the verified mark of an incident.
func (c *Client) UnverifyIncident(ctx context.Context, id int64) error {
	return c.mutate(ctx, "incidents.Unverify", http.MethodPost, incidentPath(id)+"unverify/")
}

// DeleteIncident removes an incident.
func (c *Client) DeleteIncident(ctx context.Context, id int64) error {
	return c.mutate(ctx, "incidents.Delete", http.MethodDelete, incidentPath(id))
}

func (c *Client) mutate(ctx context.Context, op, method, path string) error {
	return c.call(ctx, request{op: op, method: method, path: path, authed: true}, nil)
}

func incidentPath(id int64) string {
	return "malpractices/" + strconv.FormatInt(id, 10) + "/"
}

// ListBuildings returns the building names usable in the building filter.
func (c *Client) ListBuildings(ctx context.Context) ([]string, error) {
	r := request{op: "buildings.List", method: http.MethodGet, path: "lecture-halls/buildings/", authed: true}

	var raw json.RawMessage
	if err := c.call(ctx, r, &raw); err != nil {
		return nil, err
	}

	names, err := decodeBuildings(raw)
	if err != nil {
		return nil, &domain.APIError{Op: r.op, Kind: domain.ErrTransport, Err: err}
	}
	return names, nil
}

// IncidentStats returns totals and per-type counts.
func (c *Client) IncidentStats(ctx context.Context) (*domain.IncidentStats, error) {
	r := request{op: "incidents.Stats", method: http.MethodGet, path: "malpractices/stats/", authed: true}

	var resp incidentStatsDTO
	if err := c.call(ctx, r, &resp); err != nil {
		return nil, err
	}
	stats := resp.toDomain()
	return &stats, nil
}

// DashboardStats returns the dashboard overview.
func (c *Client) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	r := request{op: "dashboard.Stats", method: http.MethodGet, path: "dashboard/stats/", authed: true}

	var resp dashboardStatsDTO
	if err := c.call(ctx, r, &resp); err != nil {
		return nil, err
	}
	stats := resp.toDomain()
	return &stats, nil
}
