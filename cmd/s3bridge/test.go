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
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/authclient"
	"github.com/s3bridge/s3bridge/pkg/s3client"
)

// testCommand drives the whole path a consuming service would take:
// exchange an API key for credentials, then optionally round-trip an
// object through an authorized bucket. Retries live here, at the
// outermost caller, never inside the broker or the facade.
type testCommand struct {
	logOptions
	directoryOptions

	service  string
	bucket   string
	endpoint string
	timeout  time.Duration
}

func (cmd *testCommand) Bind(parser parser) {
	cmd.logOptions.bind(parser)
	cmd.directoryOptions.bind(parser)

	parser.Arg("service", "Service identity to test").Required().StringVar(&cmd.service)
	parser.Flag("bucket", "Bucket to round-trip a probe object through; empty skips the storage check").Default("").StringVar(&cmd.bucket)
	parser.Flag("endpoint", "Credential service base URL; empty uses the deployment record").Default("").StringVar(&cmd.endpoint)
	parser.Flag("timeout", "Overall test deadline").Default("2m").DurationVar(&cmd.timeout)
}

func (cmd *testCommand) Run() {
	cmd.configureLogger()

	ctx, cancel := context.WithTimeout(context.Background(), cmd.timeout)
	defer cancel()

	var opts []authclient.Option
	if cmd.endpoint != "" {
		opts = append(opts, authclient.WithEndpoint(cmd.endpoint))
	}
	auth := authclient.NewAuthProvider(cmd.service, opts...)

	op := func() error {
		credentials, err := auth.GetCredentials(ctx)
		if err != nil {
			// A missing record or key won't heal itself; retrying only
			// delays the verdict.
			var service *authclient.CredentialServiceError
			if errors.As(err, &service) && service.Status >= 400 && service.Status < 500 {
				return backoff.Permanent(err)
			}
			if errors.Is(err, authclient.ErrAPIKeyNotFound) || errors.Is(err, authclient.ErrNotDeployed) {
				return backoff.Permanent(err)
			}
			log.Warnf("error fetching credentials: %s", err.Error())
			return err
		}

		expiresAt, err := credentials.ExpiresAt()
		if err != nil {
			return backoff.Permanent(err)
		}
		log.Infof("credentials issued, expire %s", expiresAt.Format(time.RFC3339))
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		log.Fatalf("credential exchange failed: %s", err.Error())
	}

	if cmd.bucket == "" {
		fmt.Println("ok: credential exchange")
		return
	}

	if err := cmd.storageRoundTrip(ctx, auth); err != nil {
		log.Fatalf("storage check failed: %s", err.Error())
	}

	fmt.Println("ok: credential exchange and storage round trip")
}

func (cmd *testCommand) storageRoundTrip(ctx context.Context, auth *authclient.AuthProvider) error {
	dir, cfg, err := cmd.buildDirectory()
	if err != nil {
		return fmt.Errorf("error building service directory: %w", err)
	}

	client, err := s3client.Open(ctx, cmd.bucket, cmd.service, dir, cfg.Region, s3client.WithAuthProvider(auth))
	if err != nil {
		return err
	}

	key := fmt.Sprintf("s3bridge-test/%d", time.Now().UnixNano())
	if err := client.Write(ctx, key, []byte("probe")); err != nil {
		return err
	}
	data, err := client.Read(ctx, key)
	if err != nil {
		return err
	}
	if string(data) != "probe" {
		return fmt.Errorf("probe object came back altered: %q", data)
	}
	return client.Delete(ctx, key)
}
