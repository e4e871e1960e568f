package identity

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stevelaver/developer-portal-sub000/pkg/cache"
	"github.com/stevelaver/developer-portal-sub000/pkg/httpclient"
	"github.com/stevelaver/developer-portal-sub000/pkg/tracer"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type HTTPConfig struct {
	// BaseURL of the identity API, i.e: https://id.example.com/v1
	BaseURL string `validate:"required,url"`

	// ClientID and ClientSecret are the service credential used for membership changes,
	// exchanged at TokenURL with the client credentials grant.
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	TokenURL     string `validate:"required,url"`

	Cache    cache.Cache   `validate:"required"`
	CacheTTL time.Duration `validate:"-"`

	Timeout time.Duration `validate:"-"`
}

// HTTPProvider talks to the identity API over HTTP.
// Identify calls carry the caller's own token, membership calls carry the service token.
type HTTPProvider struct {
	Config  HTTPConfig
	base    *url.URL
	http    *http.Client
	service *http.Client
}

var _ Provider = (*HTTPProvider)(nil)

func NewHTTP(cfg HTTPConfig) (*HTTPProvider, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("identity base url: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	logged := httpclient.New(cfg.Timeout)
	service := cc.Client(context.WithValue(context.Background(), oauth2.HTTPClient, logged))
	service.Timeout = cfg.Timeout

	return &HTTPProvider{
		Config:  cfg,
		base:    base,
		http:    logged,
		service: service,
	}, nil
}

func (h *HTTPProvider) Identify(ctx context.Context, token string) (caller accessctl.Caller, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "identity.HTTPProvider.Identify")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		err = apperr.Unauthorized("missing bearer token")
		return
	}

	key := cache.Key("identity", tokenHash(token))
	if _err := h.Config.Cache.GetAs(ctx, key, &caller); _err == nil {
		return
	}

	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, h.http),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	)
	client.Timeout = h.http.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base.String()+"/me", nil)
	if err != nil {
		err = fmt.Errorf("prepare identify request: %w", err)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("identify request: %w", err)
		return
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		err = apperr.Unauthorized("invalid or expired token")
		return
	case resp.StatusCode != http.StatusOK:
		err = fmt.Errorf("identify request: unexpected status %d", resp.StatusCode)
		return
	}

	if err = json.NewDecoder(resp.Body).Decode(&caller); err != nil {
		err = fmt.Errorf("decode identity: %w", err)
		return
	}

	if caller.Email == "" {
		err = fmt.Errorf("identity response has no email")
		return
	}

	if h.Config.CacheTTL > 0 {
		if _err := h.Config.Cache.SetExp(ctx, key, caller, h.Config.CacheTTL); _err != nil {
			ylog.Error(ctx, "cannot cache identity", ylog.KV("error", _err))
		}
	}

	return
}

func (h *HTTPProvider) AddVendorMembership(ctx context.Context, email, vendor string) (err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "identity.HTTPProvider.AddVendorMembership")
	defer span.End()

	body, err := json.Marshal(map[string]string{"vendor": vendor})
	if err != nil {
		return
	}

	endpoint := fmt.Sprintf("%s/users/%s/vendors", h.base.String(), url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("prepare membership request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := h.service.Do(req)
	if err != nil {
		return fmt.Errorf("membership request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("membership request: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	// cached identities of email keep the old vendor list until CacheTTL
	return nil
}

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
