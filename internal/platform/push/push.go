package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"attend/internal/platform/config"
)

// Result reports the outcome of one batched dispatch. InvalidTokens lists
// tokens the provider marked permanently dead; callers prune them.
type Result struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (Result, error)
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (Result, error) {
	return Result{SuccessCount: len(tokens)}, nil
}

type httpSender struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func New(cfg config.Config) Sender {
	if !cfg.PushEnabled || cfg.PushEndpoint == "" {
		return noopSender{}
	}
	return &httpSender{
		endpoint:  cfg.PushEndpoint,
		serverKey: cfg.PushServerKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    notification      `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type sendResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (s *httpSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (Result, error) {
	if len(tokens) == 0 {
		return Result{}, nil
	}

	payload, err := json.Marshal(sendRequest{
		RegistrationIDs: tokens,
		Notification:    notification{Title: title, Body: body},
		Data:            data,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.serverKey != "" {
		req.Header.Set("Authorization", "key="+s.serverKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{FailureCount: len(tokens)}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{FailureCount: len(tokens)}, fmt.Errorf("push provider returned %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{FailureCount: len(tokens)}, err
	}

	result := Result{SuccessCount: parsed.Success, FailureCount: parsed.Failure}
	for i, entry := range parsed.Results {
		if i >= len(tokens) {
			break
		}
		switch entry.Error {
		case "NotRegistered", "InvalidRegistration":
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		}
	}
	return result, nil
}
