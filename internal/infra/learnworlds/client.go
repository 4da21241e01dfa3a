package learnworlds

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

	"github.com/ImmigreatAI/Course-site-sub000/internal/config"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
)

var _ adapter.LearningPlatform = (*Client)(nil)

// Client talks to the LearnWorlds school API.
type Client struct {
	baseURL     string
	clientID    string
	accessToken string
	http        *http.Client
}

func NewClient(cfg *config.LearnWorldsConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		clientID:    cfg.ClientID,
		accessToken: cfg.AccessToken,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

type lwUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type lwUserList struct {
	Data []lwUser `json:"data"`
}

type lwError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Error string `json:"error"`
}

func (e *lwError) message() string {
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return e.Error
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (*adapter.PlatformUser, error) {
	u := c.baseURL + "/v2/users?email=" + url.QueryEscape(email)
	body, status, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, apiError("find user", status, body)
	}

	var list lwUserList
	if err := json.Unmarshal(body, &list); err != nil {
		// Some deployments return a single object instead of a list.
		var single lwUser
		if err2 := json.Unmarshal(body, &single); err2 != nil || single.ID == "" {
			return nil, fmt.Errorf("decode user response: %w", err)
		}
		return &adapter.PlatformUser{ID: single.ID, Email: single.Email, Name: single.Username}, nil
	}
	for _, u := range list.Data {
		if strings.EqualFold(u.Email, email) {
			return &adapter.PlatformUser{ID: u.ID, Email: u.Email, Name: u.Username}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *Client) CreateUser(ctx context.Context, email, name string) (*adapter.PlatformUser, error) {
	payload := map[string]interface{}{
		"email":    email,
		"username": name,
	}
	body, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/v2/users", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, apiError("create user", status, body)
	}
	var u lwUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode created user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("create user: response missing id")
	}
	return &adapter.PlatformUser{ID: u.ID, Email: u.Email, Name: u.Username}, nil
}

func (c *Client) Enroll(ctx context.Context, req adapter.EnrollRequest) error {
	payload := map[string]interface{}{
		"productId":     req.ProductID,
		"productType":   req.ProductType,
		"justification": "purchase",
		"price":         float64(req.Price) / 100,
	}
	u := c.baseURL + "/v2/users/" + url.PathEscape(req.UserID) + "/enrollment"
	body, status, err := c.do(ctx, http.MethodPost, u, payload)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}

	var le lwError
	_ = json.Unmarshal(body, &le)
	if msg := strings.ToLower(le.message()); strings.Contains(msg, "already") && strings.Contains(msg, "own") {
		return adapter.ErrAlreadyEnrolled
	}
	return apiError("enroll", status, body)
}

func (c *Client) do(ctx context.Context, method, u string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Lw-Client", c.clientID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("learnworlds request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func apiError(op string, status int, body []byte) error {
	var le lwError
	_ = json.Unmarshal(body, &le)
	if msg := le.message(); msg != "" {
		return fmt.Errorf("learnworlds %s: status %d: %s", op, status, msg)
	}
	return fmt.Errorf("learnworlds %s: status %d", op, status)
}
