package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TWRT/buildtrack/internal/client"
	"github.com/TWRT/buildtrack/internal/models"
	"golang.org/x/oauth2"
)

var _ client.RemoteTaskService = (*TaskAPIClient)(nil)

type TaskAPIClient struct {
	baseUrl    string
	httpClient *http.Client
}

// NewTaskAPIClient returns a client whose requests all carry the bearer token.
func NewTaskAPIClient(baseUrl string, token string) *TaskAPIClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 10 * time.Second

	return &TaskAPIClient{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		httpClient: httpClient,
	}
}

func (c *TaskAPIClient) ListTasks(ctx context.Context, criteria models.Criteria, sort models.SortConfig) ([]models.Task, error) {
	q := criteria.Query()
	sort.Query(q)

	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp TasksResponse
	if err := c.do(ctx, "list tasks", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *TaskAPIClient) GetAnalytics(ctx context.Context, criteria models.Criteria) (*models.Analytics, error) {
	path := "/tasks/analytics"
	if q := criteria.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var analytics models.Analytics
	if err := c.do(ctx, "get analytics", http.MethodGet, path, nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

func (c *TaskAPIClient) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	var resp TaskResponse
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", draft, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (c *TaskAPIClient) UpdateTask(ctx context.Context, id string, draft models.TaskDraft) (*models.Task, error) {
	var resp TaskResponse
	if err := c.do(ctx, "update task", http.MethodPut, "/tasks/"+url.PathEscape(id), draft, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (c *TaskAPIClient) UpdateTaskStatus(ctx context.Context, id string, status models.Status) (*models.Task, error) {
	var resp TaskResponse
	body := UpdateStatusRequest{Status: status}
	if err := c.do(ctx, "update task status", http.MethodPatch, "/tasks/"+url.PathEscape(id)+"/status", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

func (c *TaskAPIClient) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "delete task", http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *TaskAPIClient) GetUsers(ctx context.Context) ([]models.User, error) {
	var resp UsersResponse
	if err := c.do(ctx, "get users", http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// do sends one request and decodes a 2xx response into out. Any other
// status is turned into one of the typed errors in models.
func (c *TaskAPIClient) do(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.NetworkError{Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, responseBody)
	}

	if out == nil || len(responseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("parse %s response: %w", op, err)
	}
	return nil
}

func decodeError(statusCode int, body []byte) error {
	var apiErr ErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Message

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = fmt.Sprintf("API error status: %d", statusCode)
		}
		return &models.ValidationError{Message: msg}
	case http.StatusNotFound:
		return &models.NotFoundError{Message: msg}
	case http.StatusConflict:
		return &models.ConflictError{Message: msg}
	default:
		return &models.ServerError{StatusCode: statusCode, Message: msg}
	}
}
