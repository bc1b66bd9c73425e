package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"otx/internal/domain"
)

// LoginResult is the auth endpoint's response.
type LoginResult struct {
	Token string      `json:"access_token"`
	User  domain.User `json:"user"`
}

// Login exchanges credentials for a token and identity. The only call that
// goes out without a bearer credential.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp LoginResult
	err := c.do(ctx, http.MethodPost, "auth/login", body, &resp)
	return resp, err
}

// MyWorkOrders lists work orders created by the caller.
func (c *Client) MyWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	var resp []domain.WorkOrder
	err := c.do(ctx, http.MethodGet, "ot-requests/my-ots", nil, &resp)
	return resp, err
}

// AssignedToMe lists work orders the caller is an intervenant on.
func (c *Client) AssignedToMe(ctx context.Context) ([]domain.WorkOrder, error) {
	var resp []domain.WorkOrder
	err := c.do(ctx, http.MethodGet, "ot-requests/assigned-to-me", nil, &resp)
	return resp, err
}

// DashboardStats fetches the caller's aggregate counts.
func (c *Client) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	var resp domain.DashboardStats
	err := c.do(ctx, http.MethodGet, "ot-requests/stats/my-dashboard", nil, &resp)
	return resp, err
}

// WorkOrder fetches a single work order by id.
func (c *Client) WorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	var resp domain.WorkOrder
	endpoint := "ot-requests/" + url.PathEscape(id)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Teams lists teams with their members, for assignment and form selection.
func (c *Client) Teams(ctx context.Context) ([]domain.Team, error) {
	var resp []domain.Team
	err := c.do(ctx, http.MethodGet, "ot-requests/teams/list", nil, &resp)
	return resp, err
}

// Users lists all users, for the admin filter.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var resp []domain.User
	err := c.do(ctx, http.MethodGet, "ot-requests/users/list", nil, &resp)
	return resp, err
}

// AdminStats fetches the global aggregate counts. Admin only.
func (c *Client) AdminStats(ctx context.Context) (domain.AdminStats, error) {
	var resp domain.AdminStats
	err := c.do(ctx, http.MethodGet, "ot-requests/admin/stats", nil, &resp)
	return resp, err
}

// AdminFilter narrows the admin work-order listing. Empty fields are
// omitted from the query string.
type AdminFilter struct {
	Status string
	TeamID string
	UserID string
}

// AllWorkOrders lists every work order matching the filter. Admin only.
func (c *Client) AllWorkOrders(ctx context.Context, filter AdminFilter) ([]domain.WorkOrder, error) {
	endpoint := "ot-requests/admin/all"
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.TeamID != "" {
		params.Set("teamId", filter.TeamID)
	}
	if filter.UserID != "" {
		params.Set("userId", filter.UserID)
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	var resp []domain.WorkOrder
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Start requests the OPEN -> IN_PROGRESS transition with an explicit actor.
func (c *Client) Start(ctx context.Context, id, actorID string) error {
	endpoint := "ot-requests/" + url.PathEscape(id) + "/start"
	return c.do(ctx, http.MethodPost, endpoint, map[string]string{"userId": actorID}, nil)
}

// Complete requests the IN_PROGRESS -> CLOSED transition.
func (c *Client) Complete(ctx context.Context, id, actorID string) error {
	endpoint := "ot-requests/" + url.PathEscape(id) + "/complete"
	return c.do(ctx, http.MethodPost, endpoint, map[string]string{"userId": actorID}, nil)
}

// Reject requests the transition to REJECTED with a reason.
func (c *Client) Reject(ctx context.Context, id, actorID, reason string) error {
	endpoint := "ot-requests/" + url.PathEscape(id) + "/reject"
	body := map[string]string{"userId": actorID, "reason": reason}
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

// Assign associates the given user as sole intervenant on an OPEN order.
func (c *Client) Assign(ctx context.Context, id, userID, assignedByID string) error {
	endpoint := "ot-requests/" + url.PathEscape(id) + "/assign"
	body := map[string]any{
		"intervenants": []string{userID},
		"assignedById": assignedByID,
	}
	return c.do(ctx, http.MethodPost, endpoint, body, nil)
}

// AttachmentUpload is one staged file to include in a creation request.
type AttachmentUpload struct {
	Filename string
	Content  io.Reader
}

// CreateWorkOrderInput carries the creation form's serialized state. The
// customFields and intervenants lists travel as JSON-encoded multipart
// fields, matching the backend's contract.
type CreateWorkOrderInput struct {
	Title        string
	WorkPlace    string
	Action       string
	WorkDate     string
	ContactTT    string
	TeamID       string
	Impact       string
	Comment      string
	Priority     domain.Priority
	Intervenants []string
	CustomFields []domain.CustomField
	Attachments  []AttachmentUpload
}

// CreateWorkOrder submits a multipart creation request.
func (c *Client) CreateWorkOrder(ctx context.Context, in CreateWorkOrderInput) (domain.WorkOrder, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"title":     in.Title,
		"workPlace": in.WorkPlace,
		"action":    in.Action,
		"workDate":  in.WorkDate,
		"contactTT": in.ContactTT,
		"teamId":    in.TeamID,
		"impact":    in.Impact,
		"comment":   in.Comment,
		"priority":  string(in.Priority),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return domain.WorkOrder{}, fmt.Errorf("write field %s: %w", name, err)
		}
	}

	intervenants, err := json.Marshal(in.Intervenants)
	if err != nil {
		return domain.WorkOrder{}, fmt.Errorf("encode intervenants: %w", err)
	}
	if err := writer.WriteField("intervenants", string(intervenants)); err != nil {
		return domain.WorkOrder{}, fmt.Errorf("write intervenants: %w", err)
	}
	customFields, err := json.Marshal(in.CustomFields)
	if err != nil {
		return domain.WorkOrder{}, fmt.Errorf("encode custom fields: %w", err)
	}
	if err := writer.WriteField("customFields", string(customFields)); err != nil {
		return domain.WorkOrder{}, fmt.Errorf("write custom fields: %w", err)
	}

	for _, att := range in.Attachments {
		part, err := writer.CreateFormFile("attachments", att.Filename)
		if err != nil {
			return domain.WorkOrder{}, fmt.Errorf("create attachment part: %w", err)
		}
		if _, err := io.Copy(part, att.Content); err != nil {
			return domain.WorkOrder{}, fmt.Errorf("copy attachment %s: %w", att.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return domain.WorkOrder{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("ot-requests"), &body)
	if err != nil {
		return domain.WorkOrder{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp domain.WorkOrder
	if err := c.send(req, &resp); err != nil {
		return domain.WorkOrder{}, err
	}
	return resp, nil
}
