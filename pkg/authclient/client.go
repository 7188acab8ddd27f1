// Copyright 2023 s3bridge authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package authclient exchanges an API key for temporary credentials
// at the broker and caches the bundle, refreshing it ahead of expiry.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/aws/sts"
	"github.com/s3bridge/s3bridge/pkg/broker/web"
)

const (
	// DefaultRequestTimeout bounds the client-to-broker call.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultExpiryMargin is subtracted from the bundle's real
	// expiry: a bundle inside the margin is never served.
	DefaultExpiryMargin = 10 * time.Minute

	// DefaultSessionDuration is the fixed duration requested on each
	// exchange.
	DefaultSessionDuration = 3600 * time.Second
)

// bundle is an immutable snapshot: credentials plus their effective
// expiry, always swapped whole so callers never see a torn pair.
type bundle struct {
	credentials     *sts.Credentials
	effectiveExpiry time.Time
}

// AuthProvider holds the session state for one service identity: at
// most one cached bundle at a time. Not meant to be shared across
// services; create one per logical identity per process. Safe for
// concurrent use: the check-then-fetch sequence is serialized, so a
// refresh collapses to a single in-flight fetch.
type AuthProvider struct {
	serviceName string
	endpoint    string
	keys        APIKeySource
	httpClient  *http.Client
	margin      time.Duration
	duration    time.Duration
	now         func() time.Time

	mutex   sync.Mutex
	current *bundle
}

// Option adjusts an AuthProvider at construction.
type Option func(*AuthProvider)

// WithEndpoint sets the broker base URL explicitly instead of reading
// it from the deployment record.
func WithEndpoint(endpoint string) Option {
	return func(p *AuthProvider) { p.endpoint = endpoint }
}

// WithKeySource replaces the default API key chain.
func WithKeySource(keys APIKeySource) Option {
	return func(p *AuthProvider) { p.keys = keys }
}

// WithExpiryMargin replaces the refresh safety margin.
func WithExpiryMargin(margin time.Duration) Option {
	return func(p *AuthProvider) { p.margin = margin }
}

// WithHTTPClient replaces the HTTP client used for exchange calls.
func WithHTTPClient(client *http.Client) Option {
	return func(p *AuthProvider) { p.httpClient = client }
}

func NewAuthProvider(serviceName string, opts ...Option) *AuthProvider {
	p := &AuthProvider{
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: DefaultRequestTimeout},
		margin:      DefaultExpiryMargin,
		duration:    DefaultSessionDuration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.keys == nil {
		path, err := DefaultRecordPath()
		if err != nil {
			path = ""
		}
		p.keys = DefaultKeyChain(path)
	}
	return p
}

// GetCredentials returns the cached bundle when it's still inside its
// effective expiry, without any I/O. Otherwise it fetches a fresh one
// from the broker. It never retries; resilience belongs to the
// caller.
func (p *AuthProvider) GetCredentials(ctx context.Context) (*sts.Credentials, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.current != nil && p.now().Before(p.current.effectiveExpiry) {
		return p.current.credentials, nil
	}

	return p.fetch(ctx)
}

// Expired reports whether the next GetCredentials call would fetch.
func (p *AuthProvider) Expired() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current == nil || !p.now().Before(p.current.effectiveExpiry)
}

// Invalidate drops the cached bundle unconditionally; the next
// GetCredentials call fetches fresh credentials.
func (p *AuthProvider) Invalidate() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.current = nil
}

// fetch is called with the mutex held.
func (p *AuthProvider) fetch(ctx context.Context) (*sts.Credentials, error) {
	logger := log.WithField("credentials.service", p.serviceName)

	endpoint, err := p.exchangeURL()
	if err != nil {
		return nil, err
	}

	apiKey, err := p.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, &CredentialServiceError{Cause: err}
	}

	query := url.Values{}
	query.Set("service", p.serviceName)
	query.Set("duration", strconv.Itoa(int(p.duration.Seconds())))
	req.URL.RawQuery = query.Encode()
	req.Header.Set(web.APIKeyHeader, apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fetchErrors.Inc()
		return nil, &CredentialServiceError{Cause: err, timeout: isTimeout(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fetchErrors.Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &CredentialServiceError{Status: resp.StatusCode, Body: string(body)}
	}

	credentials := &sts.Credentials{}
	if err := json.NewDecoder(resp.Body).Decode(credentials); err != nil {
		fetchErrors.Inc()
		return nil, &CredentialServiceError{Cause: fmt.Errorf("malformed credentials body: %w", err)}
	}

	expiresAt, err := credentials.ExpiresAt()
	if err != nil {
		fetchErrors.Inc()
		return nil, &CredentialServiceError{Cause: fmt.Errorf("malformed expiration: %w", err)}
	}

	p.current = &bundle{
		credentials:     credentials,
		effectiveExpiry: expiresAt.Add(-p.margin),
	}

	fetches.Inc()
	logger.WithFields(sts.CredentialsFields(credentials, p.serviceName)).Infof("fetched fresh credentials")

	return credentials, nil
}

func (p *AuthProvider) exchangeURL() (string, error) {
	base := p.endpoint
	if base == "" {
		path, err := DefaultRecordPath()
		if err != nil {
			return "", ErrNotDeployed
		}
		record, err := LoadRecord(path)
		if err != nil {
			return "", err
		}
		if record == nil || record.APIGatewayURL == "" {
			return "", ErrNotDeployed
		}
		base = record.APIGatewayURL
	}
	return base + "/credentials", nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
