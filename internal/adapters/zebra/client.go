// Package zebra implements the HTTP client for the Zebra timesheet API.
// It is the only component that talks to the network; transport and server
// failures surface as ErrRemoteUnavailable and missing records as
// ErrNotFound, which is how the sync service tells a broken connection from
// a deleted record.
package zebra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tcrawf/zebra/internal/application/ports"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
	"github.com/tcrawf/zebra/internal/infrastructure/logging"
	"github.com/tcrawf/zebra/internal/infrastructure/tracing"
)

const apiPrefix = "/api/v2"

// Compile-time check that Client implements ZebraClientPort.
var _ ports.ZebraClientPort = (*Client)(nil)

// Config holds the connection settings for the Zebra API.
type Config struct {
	BaseURL    string        // e.g. https://zebra.example.com
	Token      string        // API token, sent as a bearer header
	Timeout    time.Duration // per-request timeout
	MaxRetries int           // retries on transport errors and 5xx
}

// Client talks to the Zebra API over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *logging.Logger
	tracer     *tracing.Tracer
}

// NewClient creates a Zebra API client.
func NewClient(config Config, logger *logging.Logger, tracer *tracing.Tracer) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger,
		tracer:     tracer,
	}
}

// FetchProjects retrieves the full remote project catalog.
func (c *Client) FetchProjects(ctx context.Context) ([]ports.ProjectData, error) {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "fetch_projects")

	var envelope projectsEnvelope
	if err := c.get(ctx, apiPrefix+"/projects", nil, &envelope); err != nil {
		span.EndWithError(err)
		return nil, err
	}

	projects := make([]ports.ProjectData, 0, len(envelope.Data))
	for _, doc := range envelope.Data {
		p := ports.ProjectData{
			ID:          doc.ID,
			Name:        doc.Name,
			Description: doc.Description,
		}
		for _, a := range doc.Activities {
			p.Activities = append(p.Activities, ports.ActivityData{
				ID:          a.ID,
				Name:        a.Name,
				Alias:       a.Alias,
				Description: a.Description,
			})
		}
		projects = append(projects, p)
	}

	span.End()
	return projects, nil
}

// FetchUser retrieves one user record with its roles embedded.
func (c *Client) FetchUser(ctx context.Context, id int64) (user.User, error) {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "fetch_user")
	span.SetRemoteID(id)

	var envelope userEnvelope
	if err := c.get(ctx, fmt.Sprintf("%s/users/%d", apiPrefix, id), nil, &envelope); err != nil {
		span.EndWithError(err)
		return user.User{}, err
	}

	u := user.User{ID: envelope.Data.ID, Username: envelope.Data.Username}
	for _, doc := range envelope.Data.Roles {
		r := user.Role{
			ID:       doc.ID,
			Name:     doc.Name,
			FullName: doc.FullName,
			Type:     doc.Type,
			Status:   doc.Status,
		}
		if doc.ParentID != nil {
			r.ParentID = *doc.ParentID
		}
		u.Roles = append(u.Roles, r)
	}

	span.End()
	return u, nil
}

// FetchTimesheet retrieves one timesheet by its Zebra id.
func (c *Client) FetchTimesheet(ctx context.Context, remoteID int64) (ports.TimesheetData, error) {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "fetch_timesheet")
	span.SetRemoteID(remoteID)

	var envelope timesheetEnvelope
	if err := c.get(ctx, fmt.Sprintf("%s/timesheets/%d", apiPrefix, remoteID), nil, &envelope); err != nil {
		span.EndWithError(err)
		return ports.TimesheetData{}, err
	}

	data, err := fromDoc(envelope.Data)
	if err != nil {
		span.EndWithError(err)
		return ports.TimesheetData{}, err
	}
	span.End()
	return data, nil
}

// FetchTimesheets retrieves the timesheets whose date falls within
// [from, to], inclusive on both ends.
func (c *Client) FetchTimesheets(ctx context.Context, from, to timesheet.Date) ([]ports.TimesheetData, error) {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "fetch_timesheets")

	params := url.Values{}
	params.Set("from", from.String())
	params.Set("to", to.String())

	var envelope timesheetsEnvelope
	if err := c.get(ctx, apiPrefix+"/timesheets", params, &envelope); err != nil {
		span.EndWithError(err)
		return nil, err
	}

	sheets := make([]ports.TimesheetData, 0, len(envelope.Data))
	for _, doc := range envelope.Data {
		data, err := fromDoc(doc)
		if err != nil {
			span.EndWithError(err)
			return nil, err
		}
		sheets = append(sheets, data)
	}

	span.End()
	return sheets, nil
}

// CreateTimesheet creates a remote record and returns its new Zebra id.
func (c *Client) CreateTimesheet(ctx context.Context, data ports.TimesheetData) (int64, error) {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "create_timesheet")

	var envelope createdEnvelope
	if err := c.send(ctx, http.MethodPost, apiPrefix+"/timesheets", toDoc(data), &envelope); err != nil {
		span.EndWithError(err)
		return 0, err
	}

	span.SetRemoteID(envelope.Data.ID)
	span.End()
	return envelope.Data.ID, nil
}

// UpdateTimesheet overwrites the remote record with the given id.
func (c *Client) UpdateTimesheet(ctx context.Context, remoteID int64, data ports.TimesheetData) error {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "update_timesheet")
	span.SetRemoteID(remoteID)

	path := fmt.Sprintf("%s/timesheets/%d", apiPrefix, remoteID)
	if err := c.send(ctx, http.MethodPut, path, toDoc(data), nil); err != nil {
		span.EndWithError(err)
		return err
	}
	span.End()
	return nil
}

// DeleteTimesheet removes the remote record with the given id.
func (c *Client) DeleteTimesheet(ctx context.Context, remoteID int64) error {
	ctx, span := c.tracer.StartRemoteSpan(ctx, "delete_timesheet")
	span.SetRemoteID(remoteID)

	path := fmt.Sprintf("%s/timesheets/%d", apiPrefix, remoteID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		span.EndWithError(err)
		return err
	}
	span.End()
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, doc timesheetDoc, out any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return domainErrors.NewError(domainErrors.CodeRemote, "failed to encode request", err)
	}
	return c.do(ctx, method, path, nil, body, out)
}

// do performs one request with retry on transport errors and 5xx responses.
// 4xx responses are not retried: the request will not get better.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	started := time.Now()
	logging.LogRemoteRequest(ctx, c.logger, method, path)

	resp, err := c.doWithRetry(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	logging.LogRemoteResponse(ctx, c.logger, method, path, resp.StatusCode, time.Since(started))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return domainErrors.NotFound("Zebra has no record at %s", path)
	case resp.StatusCode >= 400:
		return c.handleErrorResponse(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domainErrors.RemoteUnavailable("failed to decode Zebra response", err)
	}
	return nil
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, params url.Values, body []byte) (*http.Response, error) {
	var lastErr error
	baseDelay := 500 * time.Millisecond

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 500ms, 1s, 2s, 4s...
			delay := baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := c.newRequest(ctx, method, path, params, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, domainErrors.RemoteUnavailable(
		fmt.Sprintf("%s %s failed after %d attempts", method, path, c.config.MaxRetries+1), lastErr)
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body []byte) (*http.Request, error) {
	target := c.config.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, domainErrors.RemoteUnavailable("failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// handleErrorResponse extracts error information from a non-retryable error
// response. The body read is capped so a misbehaving server cannot balloon
// memory.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return domainErrors.RemoteUnavailable(
			fmt.Sprintf("HTTP %d: failed to read error response", resp.StatusCode), err)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return domainErrors.RemoteUnavailable(
			fmt.Sprintf("Zebra rejected the request (HTTP %d): %s", resp.StatusCode, envelope.Error.Message), nil)
	}
	return domainErrors.RemoteUnavailable(
		fmt.Sprintf("Zebra rejected the request (HTTP %d): %s", resp.StatusCode, string(body)), nil)
}

func toDoc(data ports.TimesheetData) timesheetDoc {
	return timesheetDoc{
		ID:                data.ID,
		ActivityID:        data.ActivityID,
		ProjectID:         data.ProjectID,
		Date:              data.Date.String(),
		Time:              data.Time,
		Description:       data.Description,
		ClientDescription: data.ClientDescription,
		RoleID:            data.RoleID,
		Individual:        data.Individual,
		UpdatedAt:         data.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func fromDoc(doc timesheetDoc) (ports.TimesheetData, error) {
	date, err := timesheet.ParseDate(doc.Date)
	if err != nil {
		return ports.TimesheetData{}, domainErrors.RemoteUnavailable(
			fmt.Sprintf("Zebra record %d carries malformed date %q", doc.ID, doc.Date), err)
	}
	updatedAt, err := time.Parse(time.RFC3339, doc.UpdatedAt)
	if err != nil {
		return ports.TimesheetData{}, domainErrors.RemoteUnavailable(
			fmt.Sprintf("Zebra record %d carries malformed timestamp %q", doc.ID, doc.UpdatedAt), err)
	}

	return ports.TimesheetData{
		ID:                doc.ID,
		ActivityID:        doc.ActivityID,
		ProjectID:         doc.ProjectID,
		Date:              date,
		Time:              doc.Time,
		Description:       doc.Description,
		ClientDescription: doc.ClientDescription,
		RoleID:            doc.RoleID,
		Individual:        doc.Individual,
		UpdatedAt:         updatedAt.UTC(),
	}, nil
}
