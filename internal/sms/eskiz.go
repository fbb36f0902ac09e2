package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// errUnauthorized marks a rejected bearer token so Send can log in again.
var errUnauthorized = errors.New("eskiz: unauthorized")

// EskizSender sends messages through the Eskiz notify API. The bearer token
// obtained from /auth/login is cached and refreshed once when a send is
// rejected with 401.
type EskizSender struct {
	BaseURL  string // e.g. https://notify.eskiz.uz/api
	Email    string
	Password string
	From     string
	Client   *http.Client

	mu    sync.Mutex
	token string
}

// NewEskizSender returns a sender with a default HTTP client.
func NewEskizSender(baseURL, email, password, from string) *EskizSender {
	return &EskizSender{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Email:    email,
		Password: password,
		From:     from,
		Client:   &http.Client{},
	}
}

// Send implements Sender.
func (e *EskizSender) Send(ctx context.Context, phone, message string) error {
	token, err := e.bearer(ctx, false)
	if err != nil {
		return err
	}
	err = e.send(ctx, token, phone, message)
	if !errors.Is(err, errUnauthorized) {
		return err
	}
	if token, err = e.bearer(ctx, true); err != nil {
		return err
	}
	return e.send(ctx, token, phone, message)
}

func (e *EskizSender) bearer(ctx context.Context, renew bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token != "" && !renew {
		return e.token, nil
	}

	form := url.Values{"email": {e.Email}, "password": {e.Password}}
	resp, err := e.postForm(ctx, "/auth/login", "", form)
	if err != nil {
		return "", fmt.Errorf("eskiz login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("eskiz login: status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("eskiz login: decode: %w", err)
	}
	if body.Data.Token == "" {
		return "", errors.New("eskiz login: empty token")
	}
	e.token = body.Data.Token
	return e.token, nil
}

func (e *EskizSender) send(ctx context.Context, token, phone, message string) error {
	form := url.Values{
		"mobile_phone": {strings.TrimPrefix(phone, "+")},
		"message":      {message},
		"from":         {e.From},
	}
	resp, err := e.postForm(ctx, "/message/sms/send", token, form)
	if err != nil {
		return fmt.Errorf("eskiz send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errUnauthorized
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("eskiz send: status %d", resp.StatusCode)
	}
	return nil
}

func (e *EskizSender) postForm(ctx context.Context, path, token string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}
