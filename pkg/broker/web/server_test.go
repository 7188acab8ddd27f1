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
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/s3bridge/s3bridge/pkg/aws/sts"
	"github.com/s3bridge/s3bridge/pkg/broker"
)

type stubExchanger struct {
	credentials  *sts.Credentials
	err          error
	lastService  string
	lastDuration time.Duration
}

func (e *stubExchanger) Exchange(ctx context.Context, serviceName string, duration time.Duration) (*sts.Credentials, error) {
	e.lastService = serviceName
	e.lastDuration = duration
	return e.credentials, e.err
}

func newTestServer(e Exchanger, apiKey string) *httptest.Server {
	cfg := NewConfig(0)
	cfg.APIKey = apiKey
	return httptest.NewServer(NewWebServer(cfg, e).Handler())
}

func get(t *testing.T, url string, apiKey string) (*http.Response, map[string]string) {
	t.Helper()

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body := map[string]string{}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestCredentialsRequiresServiceParameter(t *testing.T) {
	server := newTestServer(&stubExchanger{}, "")
	defer server.Close()

	resp, body := get(t, server.URL+"/credentials", "")

	if resp.StatusCode != http.StatusBadRequest {
		t.Error("expected 400, was", resp.StatusCode)
	}
	if body["error"] != "service parameter required" {
		t.Error("unexpected error body, was", body["error"])
	}
}

func TestCredentialsUnknownService(t *testing.T) {
	exchanger := &stubExchanger{err: &broker.UnknownServiceError{ServiceName: "missing"}}
	server := newTestServer(exchanger, "")
	defer server.Close()

	resp, body := get(t, server.URL+"/credentials?service=missing", "")

	if resp.StatusCode != http.StatusBadRequest {
		t.Error("expected 400, was", resp.StatusCode)
	}
	if body["error"] != "Unknown service: missing" {
		t.Error("unexpected error body, was", body["error"])
	}
}

func TestCredentialsSuccess(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	exchanger := &stubExchanger{credentials: sts.NewCredentials("akid", "secret", "token", expiry)}
	server := newTestServer(exchanger, "")
	defer server.Close()

	resp, body := get(t, server.URL+"/credentials?service=analytics&duration=1200", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatal("expected 200, was", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Error("expected json content type, was", resp.Header.Get("Content-Type"))
	}

	if body["AccessKeyId"] != "akid" || body["SecretAccessKey"] != "secret" || body["SessionToken"] != "token" {
		t.Error("unexpected credentials body:", body)
	}
	if _, err := time.Parse(time.RFC3339, body["Expiration"]); err != nil {
		t.Error("expected RFC3339 expiration, was", body["Expiration"])
	}

	if exchanger.lastService != "analytics" {
		t.Error("unexpected service, was", exchanger.lastService)
	}
	if exchanger.lastDuration != 1200*time.Second {
		t.Error("unexpected duration, was", exchanger.lastDuration)
	}
}

func TestCredentialsRejectsMalformedDuration(t *testing.T) {
	server := newTestServer(&stubExchanger{}, "")
	defer server.Close()

	resp, _ := get(t, server.URL+"/credentials?service=analytics&duration=later", "")

	if resp.StatusCode != http.StatusBadRequest {
		t.Error("expected 400, was", resp.StatusCode)
	}
}

func TestCredentialsChecksAPIKey(t *testing.T) {
	exchanger := &stubExchanger{credentials: &sts.Credentials{}}
	server := newTestServer(exchanger, "sekrit")
	defer server.Close()

	resp, _ := get(t, server.URL+"/credentials?service=analytics", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Error("expected 401 for the wrong key, was", resp.StatusCode)
	}

	resp, _ = get(t, server.URL+"/credentials?service=analytics", "sekrit")
	if resp.StatusCode != http.StatusOK {
		t.Error("expected 200 with the right key, was", resp.StatusCode)
	}
}

func TestCredentialsInternalError(t *testing.T) {
	exchanger := &stubExchanger{err: errors.New("AccessDenied")}
	server := newTestServer(exchanger, "")
	defer server.Close()

	resp, body := get(t, server.URL+"/credentials?service=analytics", "")

	if resp.StatusCode != http.StatusInternalServerError {
		t.Error("expected 500, was", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Error("expected an error body")
	}
}

func TestPing(t *testing.T) {
	server := newTestServer(&stubExchanger{}, "")
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Error("expected 200, was", resp.StatusCode)
	}
}
