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

// Package broker exchanges a service name for a temporary credential
// bundle by resolving the service's role in the directory and
// assuming it.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/aws/sts"
	"github.com/s3bridge/s3bridge/pkg/directory"
)

const (
	// DefaultMaxDuration caps requested session durations. Values
	// above it are silently clamped, never rejected.
	DefaultMaxDuration = 3600 * time.Second
)

// Broker holds no state between calls; concurrent exchanges for
// different services share nothing but the directory and gateway.
type Broker struct {
	directory   directory.Directory
	gateway     sts.STSGateway
	maxDuration time.Duration
}

func NewBroker(dir directory.Directory, gateway sts.STSGateway, maxDuration time.Duration) *Broker {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Broker{directory: dir, gateway: gateway, maxDuration: maxDuration}
}

// Exchange resolves serviceName and assumes its role for the clamped
// duration. It never retries: retry policy belongs to the caller, and
// a silent retry here would mask authorization failures as transient
// ones.
func (b *Broker) Exchange(ctx context.Context, serviceName string, duration time.Duration) (*sts.Credentials, error) {
	serviceName = directory.Normalize(serviceName)
	logger := log.WithField("credentials.service", serviceName)

	auth, err := b.directory.Lookup(ctx, serviceName)
	if err != nil {
		if errors.Is(err, directory.ErrServiceNotFound) {
			unknownService.Inc()
			return nil, &UnknownServiceError{ServiceName: serviceName}
		}
		logger.Errorf("error resolving service: %s", err.Error())
		return nil, err
	}

	if duration <= 0 || duration > b.maxDuration {
		duration = b.maxDuration
	}

	credentials, err := b.gateway.Issue(ctx, auth.RoleARN, sessionName(serviceName), duration)
	if err != nil {
		logger.Errorf("error assuming role %s: %s", auth.RoleARN, err.Error())
		return nil, err
	}

	logger.WithFields(sts.CredentialsFields(credentials, serviceName)).Infof("issued credentials")
	exchangeSuccess.Inc()

	return credentials, nil
}

// sessionName is unique per call so role-assumption audit trails can
// be tied back to individual exchanges.
func sessionName(serviceName string) string {
	return fmt.Sprintf("%s-session-%d-%s", serviceName, time.Now().Unix(), uuid.NewString()[:8])
}
