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
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/aws/sts"
	"github.com/s3bridge/s3bridge/pkg/broker"
	"github.com/s3bridge/s3bridge/pkg/broker/web"
)

type serverCommand struct {
	logOptions
	telemetryOptions
	directoryOptions

	port        int
	apiKey      string
	maxDuration time.Duration
}

func (cmd *serverCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.telemetryOptions.bind(parser)
	cmd.directoryOptions.bind(parser)

	parser.Flag("port", "HTTP port to serve the exchange endpoint").Default("3100").IntVar(&cmd.port)
	parser.Flag("api-key", "Shared key required in the X-API-Key header; empty disables the check").Default("").StringVar(&cmd.apiKey)
	parser.Flag("max-duration", "Upper bound for requested session durations").Default("1h").DurationVar(&cmd.maxDuration)
}

func (cmd *serverCommand) Run() {
	cmd.configureLogger()

	dir, cfg, err := cmd.buildDirectory()
	if err != nil {
		log.Fatal("error building service directory: ", err.Error())
	}

	gateway, err := sts.DefaultGateway(cfg.Region)
	if err != nil {
		log.Fatal("error creating sts gateway: ", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd.telemetryOptions.start(ctx, "server")

	config := web.NewConfig(cmd.port)
	config.APIKey = cmd.apiKey
	server := web.NewWebServer(config, broker.NewBroker(dir, gateway, cmd.maxDuration))

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stopChan
		log.Infof("stopping server")
		server.Stop(ctx)
		cancel()
	}()

	log.Infof("starting server")
	if err := server.Serve(); err != nil && err != http.ErrServerClosed {
		log.Fatal("error serving: ", err.Error())
	}

	log.Infoln("stopped")
}
