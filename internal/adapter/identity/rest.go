package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBodyBytes  = 64 << 10

	pathSignIn   = "accounts:signInWithPassword"
	pathSendCode = "accounts:sendOobCode"
	pathLookup   = "accounts:lookup"

	requestTypePasswordReset = "PASSWORD_RESET"
)

var _ domain.IdentityService = (*RESTClient)(nil)

// credential is the signed-in user as held in process memory. It is never written
// anywhere and is lost on restart.
type credential struct {
	principal domain.Principal
	idToken   string
	expiresAt time.Time
}

// RESTClient talks to the identity service over its JSON account API.
type RESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	clock   clockwork.Clock
	tracer  trace.Tracer

	mu   sync.RWMutex
	cred *credential
}

// NewRESTClient creates a client for baseURL (e.g. https://identitytoolkit.googleapis.com/v1).
// A zero timeout falls back to 10s.
func NewRESTClient(baseURL, apiKey string, timeout time.Duration, clock clockwork.Clock) *RESTClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
		tracer:  otel.Tracer("github.com/adala-wanyande/afyaone/internal/adapter/identity"),
	}
}

// CurrentPrincipal returns the signed-in principal, or nil if nobody is signed in or
// the held token has expired. A held token is confirmed with the service before use.
func (c *RESTClient) CurrentPrincipal(ctx context.Context) (*domain.Principal, error) {
	c.mu.RLock()
	cred := c.cred
	c.mu.RUnlock()

	if cred == nil {
		return nil, nil
	}
	if !c.clock.Now().Before(cred.expiresAt) {
		slog.InfoContext(ctx, "Held identity token expired", "principal_id", cred.principal.ID)
		c.forget(cred)
		return nil, nil
	}

	var resp struct {
		Users []struct {
			LocalID string `json:"localId"`
			Email   string `json:"email"`
		} `json:"users"`
	}
	err := c.call(ctx, pathLookup, map[string]any{"idToken": cred.idToken}, &resp)
	if err != nil {
		if _, ok := errors.AsType[*domain.ServiceError](err); ok {
			// The service no longer accepts the token.
			c.forget(cred)
		}
		return nil, err
	}
	if len(resp.Users) == 0 {
		c.forget(cred)
		return nil, nil
	}

	return &domain.Principal{ID: resp.Users[0].LocalID, Email: resp.Users[0].Email}, nil
}

// SignIn verifies the credentials with the service and holds the resulting token.
func (c *RESTClient) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	var resp struct {
		LocalID   string `json:"localId"`
		Email     string `json:"email"`
		IDToken   string `json:"idToken"`
		ExpiresIn string `json:"expiresIn"`
	}
	body := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	if err := c.call(ctx, pathSignIn, body, &resp); err != nil {
		return nil, err
	}
	if resp.LocalID == "" {
		return nil, fmt.Errorf("sign-in response carried no account id")
	}

	p := domain.Principal{ID: resp.LocalID, Email: resp.Email}
	c.mu.Lock()
	c.cred = &credential{
		principal: p,
		idToken:   resp.IDToken,
		expiresAt: c.tokenExpiry(resp.IDToken, resp.ExpiresIn),
	}
	c.mu.Unlock()

	return &p, nil
}

// SendPasswordReset asks the service to email a reset link. The service answers the
// same way whether or not the address is registered.
func (c *RESTClient) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]any{
		"requestType": requestTypePasswordReset,
		"email":       email,
	}
	return c.call(ctx, pathSendCode, body, nil)
}

// SignOut drops the held token. The account API has no server-side sign-out.
func (c *RESTClient) SignOut(_ context.Context) error {
	c.mu.Lock()
	c.cred = nil
	c.mu.Unlock()
	return nil
}

func (c *RESTClient) forget(cred *credential) {
	c.mu.Lock()
	if c.cred == cred {
		c.cred = nil
	}
	c.mu.Unlock()
}

// tokenExpiry reads exp from the ID token without verifying it (the service verifies on
// lookup) and falls back to the expiresIn seconds the sign-in response reported.
func (c *RESTClient) tokenExpiry(idToken, expiresIn string) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(idToken, jwt.MapClaims{})
	if err == nil {
		if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return c.clock.Now().Add(time.Duration(seconds) * time.Second)
}

func (c *RESTClient) call(ctx context.Context, path string, body any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "identity."+path, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrIdentityUnavailable, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s returned status %d", domain.ErrIdentityUnavailable, path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return decodeServiceError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func decodeServiceError(resp *http.Response) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_ = json.Unmarshal(raw, &errResp)
	return domain.NewServiceError(resp.StatusCode, errResp.Error.Message)
}
