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
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	log "github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/s3bridge/s3bridge/pkg/directory"
	"github.com/s3bridge/s3bridge/pkg/pprof"
	"github.com/s3bridge/s3bridge/pkg/prometheus"
	"github.com/s3bridge/s3bridge/pkg/statsd"
)

type parser interface {
	Flag(name, help string) *kingpin.FlagClause
	Arg(name, help string) *kingpin.ArgClause
}

type logOptions struct {
	jsonLog  bool
	logLevel string
}

func (o *logOptions) bind(parser parser) {
	parser.Flag("json-log", "Output log in JSON").BoolVar(&o.jsonLog)
	parser.Flag("level", "Log level: debug, info, warn, error.").Default("info").EnumVar(&o.logLevel, "debug", "info", "warn", "error")
}

func (o *logOptions) configureLogger() {
	if o.jsonLog {
		log.SetFormatter(&log.JSONFormatter{})
	}

	switch o.logLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}
}

type telemetryOptions struct {
	prometheusListen string
	pprofListen      string
	statsD           string
	statsDInterval   time.Duration
}

func (o *telemetryOptions) bind(parser parser) {
	parser.Flag("prometheus-listen-addr", "Prometheus HTTP listen address. e.g. localhost:9620").StringVar(&o.prometheusListen)
	parser.Flag("pprof-listen-addr", "Address to bind pprof HTTP server. e.g. localhost:9990").Default("").StringVar(&o.pprofListen)
	parser.Flag("statsd", "UDP address to publish StatsD metrics. e.g. 127.0.0.1:8125").Default("").StringVar(&o.statsD)
	parser.Flag("statsd-interval", "Interval to publish to StatsD").Default("10s").DurationVar(&o.statsDInterval)
}

func (o telemetryOptions) start(ctx context.Context, identifier string) {
	if err := statsd.New(o.statsD, fmt.Sprintf("s3bridge.%s.", identifier), o.statsDInterval); err != nil {
		log.Errorf("error configuring statsd: %s", err.Error())
	}

	if o.prometheusListen != "" {
		metrics := prometheus.NewServer(o.prometheusListen)
		metrics.Listen(ctx)
	}

	if o.pprofListen != "" {
		log.Infof("pprof listen address specified, will listen on %s", o.pprofListen)
		server := pprof.NewServer(o.pprofListen)
		go pprof.ListenAndWait(ctx, server)
	}
}

type directoryOptions struct {
	backend  string
	cacheTTL time.Duration

	cfg directory.Config
}

func (o *directoryOptions) bind(parser parser) {
	parser.Flag("directory", "Service directory backend: dynamodb or env").Default("dynamodb").EnumVar(&o.backend, "dynamodb", "env")
	parser.Flag("region", "AWS region").StringVar(&o.cfg.Region)
	parser.Flag("services-table", "DynamoDB table holding service records").StringVar(&o.cfg.TableName)
	parser.Flag("universal-role-arn", "Role assumed for the universal service").StringVar(&o.cfg.UniversalRoleARN)
	parser.Flag("directory-cache-ttl", "How long directory lookups are cached; 0 disables the cache").Default("0s").DurationVar(&o.cacheTTL)
}

// config merges environment configuration with any flags that were
// set; flags win.
func (o *directoryOptions) config() (*directory.Config, error) {
	cfg := directory.Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error reading environment configuration: %w", err)
	}

	if o.cfg.Region != "" {
		cfg.Region = o.cfg.Region
	}
	if o.cfg.TableName != "" {
		cfg.TableName = o.cfg.TableName
	}
	if o.cfg.UniversalRoleARN != "" {
		cfg.UniversalRoleARN = o.cfg.UniversalRoleARN
	}

	return &cfg, nil
}

func (o *directoryOptions) buildStore() (directory.Store, *directory.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}

	if o.backend != "dynamodb" {
		return nil, nil, fmt.Errorf("the %s directory backend is read-only; administrative commands need dynamodb", o.backend)
	}

	store, err := directory.NewDynamoDirectory(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func (o *directoryOptions) buildDirectory() (directory.Directory, *directory.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}

	var dir directory.Directory
	switch o.backend {
	case "env":
		dir = directory.NewEnvDirectory(cfg)
	default:
		dir, err = directory.NewDynamoDirectory(cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	if o.cacheTTL > 0 {
		dir = directory.NewCachedDirectory(dir, o.cacheTTL)
	}

	return dir, cfg, nil
}
