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
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"

	"github.com/s3bridge/s3bridge/pkg/aws/sts"
)

type fixedKey string

func (k fixedKey) APIKey(ctx context.Context) (string, error) {
	if k == "" {
		return "", ErrAPIKeyNotFound
	}
	return string(k), nil
}

// brokerStub serves the exchange endpoint, handing out a new session
// token per request so tests can tell a fetch from a cache hit.
type brokerStub struct {
	mutex    sync.Mutex
	requests int
	expiry   time.Duration
	lastKey  string
}

func (b *brokerStub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b.mutex.Lock()
	b.requests++
	n := b.requests
	b.lastKey = req.Header.Get("X-API-Key")
	b.mutex.Unlock()

	credentials := sts.NewCredentials("akid", "secret", fmt.Sprintf("token-%d", n), time.Now().Add(b.expiry))
	json.NewEncoder(w).Encode(credentials)
}

func (b *brokerStub) count() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.requests
}

func newProvider(t *testing.T, stub http.Handler, opts ...Option) *AuthProvider {
	t.Helper()
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	opts = append([]Option{WithEndpoint(server.URL), WithKeySource(fixedKey("test-key"))}, opts...)
	return NewAuthProvider("analytics", opts...)
}

func TestRepeatCallsServeFromCache(t *testing.T) {
	stub := &brokerStub{expiry: time.Hour}
	p := newProvider(t, stub)
	ctx := context.Background()

	first, err := p.GetCredentials(ctx)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	for i := 0; i < 4; i++ {
		credentials, err := p.GetCredentials(ctx)
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		if credentials.SessionToken != first.SessionToken {
			t.Error("expected the cached bundle, was", credentials.SessionToken)
		}
	}

	if stub.count() != 1 {
		t.Error("expected exactly one fetch, was", stub.count())
	}
}

func TestRefreshesInsideExpiryMargin(t *testing.T) {
	// real expiry is in the future but inside the 10 minute margin
	stub := &brokerStub{expiry: 5 * time.Minute}
	p := newProvider(t, stub)
	ctx := context.Background()

	first, err := p.GetCredentials(ctx)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	second, err := p.GetCredentials(ctx)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if first.SessionToken == second.SessionToken {
		t.Error("expected a fresh bundle inside the margin")
	}
	if stub.count() != 2 {
		t.Error("expected two fetches, was", stub.count())
	}
}

func TestInvalidateForcesFetch(t *testing.T) {
	stub := &brokerStub{expiry: time.Hour}
	p := newProvider(t, stub)
	ctx := context.Background()

	first, _ := p.GetCredentials(ctx)
	p.Invalidate()
	second, err := p.GetCredentials(ctx)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if first.SessionToken == second.SessionToken {
		t.Error("expected a fresh bundle after invalidation")
	}
}

func TestSendsAPIKeyAndDuration(t *testing.T) {
	var query string
	stub := &brokerStub{expiry: time.Hour}
	p := newProvider(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		query = req.URL.RawQuery
		stub.ServeHTTP(w, req)
	}))

	if _, err := p.GetCredentials(context.Background()); err != nil {
		t.Fatal("unexpected error:", err)
	}

	if stub.lastKey != "test-key" {
		t.Error("expected api key header, was", stub.lastKey)
	}
	if query != "duration=3600&service=analytics" {
		t.Error("unexpected query, was", query)
	}
}

func TestNon200IsCredentialServiceError(t *testing.T) {
	p := newProvider(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))

	_, err := p.GetCredentials(context.Background())

	var serviceErr *CredentialServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatal("expected CredentialServiceError, was", err)
	}
	if serviceErr.Status != http.StatusInternalServerError {
		t.Error("unexpected status, was", serviceErr.Status)
	}
	if serviceErr.Timeout() {
		t.Error("a 500 is not a timeout")
	}
}

func TestMalformedBodyIsCredentialServiceError(t *testing.T) {
	p := newProvider(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, "{not json")
	}))

	_, err := p.GetCredentials(context.Background())

	var serviceErr *CredentialServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatal("expected CredentialServiceError, was", err)
	}
}

func TestTimeoutIsCredentialServiceTimeout(t *testing.T) {
	stub := &brokerStub{expiry: time.Hour}
	p := newProvider(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(500 * time.Millisecond)
		stub.ServeHTTP(w, req)
	}), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))

	_, err := p.GetCredentials(context.Background())

	var serviceErr *CredentialServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatal("expected CredentialServiceError, was", err)
	}
	if !serviceErr.Timeout() {
		t.Error("expected a timeout classification")
	}
}

func TestMissingAPIKeyIsNotCachedNegatively(t *testing.T) {
	stub := &brokerStub{expiry: time.Hour}
	server := httptest.NewServer(stub)
	defer server.Close()

	keys := &switchableKey{}
	p := NewAuthProvider("analytics", WithEndpoint(server.URL), WithKeySource(keys))

	_, err := p.GetCredentials(context.Background())
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Fatal("expected ErrAPIKeyNotFound, was", err)
	}
	if stub.count() != 0 {
		t.Error("no exchange call should happen without a key")
	}

	keys.key = "late-key"
	if _, err := p.GetCredentials(context.Background()); err != nil {
		t.Error("expected success once the key is available, was", err)
	}
}

type switchableKey struct {
	key string
}

func (k *switchableKey) APIKey(ctx context.Context) (string, error) {
	if k.key == "" {
		return "", ErrAPIKeyNotFound
	}
	return k.key, nil
}

func TestConcurrentCallersCollapseToOneFetch(t *testing.T) {
	stub := &brokerStub{expiry: time.Hour}
	server := httptest.NewServer(stub)
	defer leaktest.Check(t)()
	defer server.Close()

	p := NewAuthProvider("analytics", WithEndpoint(server.URL), WithKeySource(fixedKey("test-key")))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.GetCredentials(context.Background()); err != nil {
				t.Error("unexpected error:", err)
			}
		}()
	}
	wg.Wait()

	if stub.count() != 1 {
		t.Error("expected concurrent callers to share one fetch, was", stub.count())
	}
}

func TestExpired(t *testing.T) {
	stub := &brokerStub{expiry: time.Hour}
	p := newProvider(t, stub)

	if !p.Expired() {
		t.Error("a fresh provider should report expired")
	}

	p.GetCredentials(context.Background())
	if p.Expired() {
		t.Error("a cached bundle inside its margin isn't expired")
	}

	p.Invalidate()
	if !p.Expired() {
		t.Error("invalidation should mark the provider expired")
	}
}
