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
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/broker"
	khttp "github.com/s3bridge/s3bridge/pkg/http"
)

// APIKeyHeader authenticates exchange requests.
const APIKeyHeader = "X-API-Key"

type credentialsHandler struct {
	broker Exchanger
	apiKey string
}

func (h *credentialsHandler) Handle(ctx context.Context, w http.ResponseWriter, req *http.Request) (int, error) {
	if h.apiKey != "" && req.Header.Get(APIKeyHeader) != h.apiKey {
		return http.StatusUnauthorized, fmt.Errorf("invalid api key")
	}

	params := req.URL.Query()
	serviceName := params.Get("service")
	if serviceName == "" {
		return http.StatusBadRequest, fmt.Errorf("service parameter required")
	}

	var duration time.Duration
	if raw := params.Get("duration"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return http.StatusBadRequest, fmt.Errorf("duration must be an integer number of seconds")
		}
		duration = time.Duration(seconds) * time.Second
	}

	credentials, err := h.broker.Exchange(ctx, serviceName, duration)
	if err != nil {
		var unknown *broker.UnknownServiceError
		if errors.As(err, &unknown) {
			return http.StatusBadRequest, unknown
		}
		return http.StatusInternalServerError, err
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(credentials); err != nil {
		credentialEncodeError.WithLabelValues("credentials").Inc()
		return http.StatusInternalServerError, fmt.Errorf("error encoding credentials: %s", err.Error())
	}

	log.WithFields(khttp.RequestFields(req)).WithField("credentials.service", serviceName).Infof("exchanged credentials")
	return http.StatusOK, nil
}

type healthHandler struct{}

func (h *healthHandler) Handle(ctx context.Context, w http.ResponseWriter, req *http.Request) (int, error) {
	fmt.Fprint(w, "ok")
	return http.StatusOK, nil
}
