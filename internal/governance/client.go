// Package governance is the typed HTTP client for the access-governance
// backend. The backend owns all authority decisions (approvals, constraint
// enforcement, persistence); this client only fetches catalog records and
// submits membership mutations on behalf of the console.
package governance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/accessops/access-console/internal/domain"
)

// EndingAtFormat is the RFC-822-style timestamp format the backend expects
// for users_added_ending_at / groups_added_ending_at.
const EndingAtFormat = time.RFC1123

// FormatEndingAt renders an ending timestamp in the backend's wire format.
func FormatEndingAt(t time.Time) string {
	return t.UTC().Format(EndingAtFormat)
}

// MemberUpdate is the membership mutation payload for a group. Subject ids
// are user ids.
type MemberUpdate struct {
	MembersToAdd        []string `json:"members_to_add,omitempty"`
	OwnersToAdd         []string `json:"owners_to_add,omitempty"`
	MembersToRemove     []string `json:"members_to_remove,omitempty"`
	OwnersToRemove      []string `json:"owners_to_remove,omitempty"`
	MembersShouldExpire []string `json:"members_should_expire,omitempty"`
	OwnersShouldExpire  []string `json:"owners_should_expire,omitempty"`
	CreatedReason       string   `json:"created_reason,omitempty"`
	UsersAddedEndingAt  string   `json:"users_added_ending_at,omitempty"`
}

// RoleMemberUpdate is the mapping mutation payload for a role group. Subject
// ids are target group ids.
type RoleMemberUpdate struct {
	GroupsToAdd             []string `json:"groups_to_add,omitempty"`
	OwnerGroupsToAdd        []string `json:"owner_groups_to_add,omitempty"`
	GroupsToRemove          []string `json:"groups_to_remove,omitempty"`
	OwnerGroupsToRemove     []string `json:"owner_groups_to_remove,omitempty"`
	GroupsShouldExpire      []string `json:"groups_should_expire,omitempty"`
	OwnerGroupsShouldExpire []string `json:"owner_groups_should_expire,omitempty"`
	CreatedReason           string   `json:"created_reason,omitempty"`
	GroupsAddedEndingAt     string   `json:"groups_added_ending_at,omitempty"`
}

// Client defines the backend operations the console consumes.
type Client interface {
	SearchGroups(ctx context.Context, q string, page, perPage int) ([]*domain.Group, error)
	GetGroup(ctx context.Context, id string) (*domain.Group, error)
	SearchRoles(ctx context.Context, q string, page, perPage int) ([]*domain.Group, error)
	SearchTags(ctx context.Context, q string, page, perPage int) ([]*domain.Tag, error)
	UpdateGroupMembers(ctx context.Context, groupID string, update *MemberUpdate) (*domain.Group, error)
	UpdateRoleMembers(ctx context.Context, roleID string, update *RoleMemberUpdate) (*domain.Group, error)
}

// APIError is a structured error payload returned by the backend. The body is
// surfaced verbatim to the user.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return http.StatusText(e.StatusCode)
}

// HTTPClient talks to the backend REST API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// New creates a new backend client.
func New(baseURL, token string) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SearchGroups fetches a page of groups matching q.
func (c *HTTPClient) SearchGroups(ctx context.Context, q string, page, perPage int) ([]*domain.Group, error) {
	var groups []*domain.Group
	if err := c.get(ctx, "/api/groups", pageQuery(q, page, perPage), &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroup fetches a single group by id.
func (c *HTTPClient) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	var group domain.Group
	if err := c.get(ctx, "/api/groups/"+url.PathEscape(id), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// SearchRoles fetches a page of role groups matching q.
func (c *HTTPClient) SearchRoles(ctx context.Context, q string, page, perPage int) ([]*domain.Group, error) {
	var roles []*domain.Group
	if err := c.get(ctx, "/api/roles", pageQuery(q, page, perPage), &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// SearchTags fetches a page of tags matching q.
func (c *HTTPClient) SearchTags(ctx context.Context, q string, page, perPage int) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	if err := c.get(ctx, "/api/tags", pageQuery(q, page, perPage), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateGroupMembers submits a membership mutation for a group and returns
// the updated group.
func (c *HTTPClient) UpdateGroupMembers(ctx context.Context, groupID string, update *MemberUpdate) (*domain.Group, error) {
	var group domain.Group
	if err := c.put(ctx, "/api/groups/"+url.PathEscape(groupID)+"/members", update, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateRoleMembers submits a mapping mutation for a role group and returns
// the updated role.
func (c *HTTPClient) UpdateRoleMembers(ctx context.Context, roleID string, update *RoleMemberUpdate) (*domain.Group, error) {
	var role domain.Group
	if err := c.put(ctx, "/api/roles/"+url.PathEscape(roleID)+"/members", update, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func pageQuery(q string, page, perPage int) url.Values {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		v.Set("per_page", strconv.Itoa(perPage))
	}
	return v
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *HTTPClient) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
