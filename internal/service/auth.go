package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultIntrospectTimeout = 5 * time.Second

// Authenticator validates a bearer token and resolves the calling
// subject. Opaque to the orchestrator: how the token is verified is
// entirely this port's concern.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (subject string, ok bool, err error)
}

type introspectResponse struct {
	Active  bool   `json:"active"`
	Subject string `json:"sub"`
}

// HTTPIntrospectionAuthenticator validates tokens against an external
// introspection endpoint, consumed only through its HTTP contract —
// token issuance and verification live entirely outside this service.
type HTTPIntrospectionAuthenticator struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPIntrospectionAuthenticator(endpoint string) (*HTTPIntrospectionAuthenticator, error) {
	client := resty.New()
	client.SetTimeout(defaultIntrospectTimeout)
	client.SetRetryCount(0)

	return NewHTTPIntrospectionAuthenticatorWithClient(endpoint, client)
}

func NewHTTPIntrospectionAuthenticatorWithClient(endpoint string, client *resty.Client) (*HTTPIntrospectionAuthenticator, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("introspection endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid introspection endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultIntrospectTimeout)
	}

	return &HTTPIntrospectionAuthenticator{client: client, endpoint: trimmed}, nil
}

func (a *HTTPIntrospectionAuthenticator) Authenticate(ctx context.Context, bearerToken string) (string, bool, error) {
	token := strings.TrimSpace(bearerToken)
	if token == "" {
		return "", false, nil
	}

	var result introspectResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{"token": token}).
		SetResult(&result).
		ForceContentType("application/json").
		Post(a.endpoint)
	if err != nil {
		return "", false, fmt.Errorf("token introspection request failed: %w", err)
	}
	if response.StatusCode() != http.StatusOK {
		return "", false, nil
	}
	if !result.Active {
		return "", false, nil
	}

	return result.Subject, true, nil
}

// StaticBearerAuthenticator accepts an exact shared-secret match, for
// local development and tests.
type StaticBearerAuthenticator struct {
	token string
}

func NewStaticBearerAuthenticator(token string) *StaticBearerAuthenticator {
	return &StaticBearerAuthenticator{token: strings.TrimSpace(token)}
}

func (a *StaticBearerAuthenticator) Authenticate(_ context.Context, bearerToken string) (string, bool, error) {
	if a.token == "" {
		return "", false, nil
	}
	if strings.TrimSpace(bearerToken) != a.token {
		return "", false, nil
	}
	return "static", true, nil
}
