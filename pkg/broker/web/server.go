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

// Package web serves the broker's credential exchange endpoint.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/aws/sts"
	khttp "github.com/s3bridge/s3bridge/pkg/http"
)

// Exchanger is the broker-side operation the server exposes.
type Exchanger interface {
	Exchange(ctx context.Context, serviceName string, duration time.Duration) (*sts.Credentials, error)
}

type ServerConfig struct {
	ListenPort int
	// APIKey, when set, is required in the X-API-Key header of every
	// exchange request.
	APIKey string
}

func NewConfig(port int) *ServerConfig {
	return &ServerConfig{ListenPort: port}
}

type Server struct {
	cfg    *ServerConfig
	broker Exchanger
	mutex  sync.Mutex
	server *http.Server
}

func NewWebServer(config *ServerConfig, broker Exchanger) *Server {
	return &Server{cfg: config, broker: broker}
}

func (s *Server) listenAddress() string {
	return fmt.Sprintf(":%d", s.cfg.ListenPort)
}

func (s *Server) Serve() error {
	s.mutex.Lock()
	s.server = &http.Server{Addr: s.listenAddress(), Handler: khttp.LoggingHandler(s.Handler())}
	s.mutex.Unlock()

	log.Infof("listening %s", s.listenAddress())

	return s.server.ListenAndServe()
}

// Handler builds the route table. Exposed separately so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "pong") }))
	router.Handle("/health", adapt(withMeter("health", &healthHandler{})))
	router.Handle("/credentials", adapt(withMeter("credentials", &credentialsHandler{broker: s.broker, apiKey: s.cfg.APIKey})))
	return router
}

func (s *Server) Stop(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.server == nil {
		return
	}

	log.Infoln("starting server shutdown")
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.server.Shutdown(c)
	log.Infoln("gracefully shutdown server")
}

// handlers return a status with an error; the adapter renders errors
// as the JSON body the exchange protocol promises.
type handler interface {
	Handle(ctx context.Context, w http.ResponseWriter, req *http.Request) (int, error)
}

const handlerMaxDuration = 10 * time.Second

type handlerAdapter struct {
	h handler
}

func (a *handlerAdapter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), handlerMaxDuration)
	defer cancel()

	status, err := a.h.Handle(ctx, w, req)

	if err != nil {
		log.WithFields(khttp.RequestFields(req)).WithField("status", status).Errorf("error processing request: %s", err.Error())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	}
}

func adapt(h handler) *handlerAdapter {
	return &handlerAdapter{h: h}
}

type metricHandler struct {
	name string
	h    handler
}

func withMeter(name string, h handler) handler {
	return &metricHandler{name: name, h: h}
}

func (m *metricHandler) Handle(ctx context.Context, w http.ResponseWriter, r *http.Request) (int, error) {
	timer := prometheus.NewTimer(handlerTimer.WithLabelValues(m.name))
	defer timer.ObserveDuration()

	status, err := m.h.Handle(ctx, w, r)
	responses.WithLabelValues(m.name, fmt.Sprintf("%d", status)).Inc()
	return status, err
}
