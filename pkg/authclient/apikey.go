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
	"errors"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	log "github.com/sirupsen/logrus"
)

const (
	// APIKeyEnvVar supplies the key directly and wins over every
	// other source.
	APIKeyEnvVar = "S3BRIDGE_API_KEY"

	// DefaultStackName is the deployed infrastructure stack holding
	// the ApiKey output.
	DefaultStackName = "s3bridge"

	apiKeyOutputKey = "ApiKey"
)

// APIKeySource produces an API key for the exchange call, or
// ErrAPIKeyNotFound when it has none to offer.
type APIKeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// EnvKeySource reads the key from the environment.
type EnvKeySource struct{}

func (s *EnvKeySource) APIKey(ctx context.Context) (string, error) {
	if key := os.Getenv(APIKeyEnvVar); key != "" {
		return key, nil
	}
	return "", ErrAPIKeyNotFound
}

// RecordKeySource reads the key from the local deployment record.
type RecordKeySource struct {
	Path string
}

func (s *RecordKeySource) APIKey(ctx context.Context) (string, error) {
	record, err := LoadRecord(s.Path)
	if err != nil {
		return "", err
	}
	if record == nil || record.APIKey == "" {
		return "", ErrAPIKeyNotFound
	}
	return record.APIKey, nil
}

// StackKeySource looks the key up in the deployed stack's outputs
// and, when found, persists it into the deployment record so the next
// call doesn't need the remote lookup.
type StackKeySource struct {
	StackName  string
	RecordPath string

	cf cloudformationiface.CloudFormationAPI
}

func (s *StackKeySource) client() (cloudformationiface.CloudFormationAPI, error) {
	if s.cf != nil {
		return s.cf, nil
	}
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	s.cf = cloudformation.New(sess)
	return s.cf, nil
}

func (s *StackKeySource) APIKey(ctx context.Context) (string, error) {
	cf, err := s.client()
	if err != nil {
		return "", err
	}

	out, err := cf.DescribeStacksWithContext(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(s.StackName),
	})
	if err != nil {
		return "", err
	}
	if len(out.Stacks) == 0 {
		return "", ErrAPIKeyNotFound
	}

	for _, output := range out.Stacks[0].Outputs {
		if aws.StringValue(output.OutputKey) != apiKeyOutputKey {
			continue
		}
		key := aws.StringValue(output.OutputValue)
		s.persist(key)
		return key, nil
	}

	return "", ErrAPIKeyNotFound
}

func (s *StackKeySource) persist(key string) {
	record, err := LoadRecord(s.RecordPath)
	if err != nil || record == nil {
		return
	}

	record.APIKey = key
	if err := record.Save(s.RecordPath); err != nil {
		log.Warnf("couldn't persist discovered api key: %s", err.Error())
	}
}

// ChainKeySource tries each source in order. A source failing, for
// any reason, falls through to the next; nothing is cached, so a key
// that appears later is picked up by the next call.
type ChainKeySource struct {
	sources []APIKeySource
}

func KeyChain(sources ...APIKeySource) *ChainKeySource {
	return &ChainKeySource{sources: sources}
}

// DefaultKeyChain is the fixed priority order: explicit environment
// key, then the local deployment record, then the deployed stack's
// outputs.
func DefaultKeyChain(recordPath string) *ChainKeySource {
	return KeyChain(
		&EnvKeySource{},
		&RecordKeySource{Path: recordPath},
		&StackKeySource{StackName: DefaultStackName, RecordPath: recordPath},
	)
}

func (c *ChainKeySource) APIKey(ctx context.Context) (string, error) {
	for _, source := range c.sources {
		key, err := source.APIKey(ctx)
		if err != nil {
			if !errors.Is(err, ErrAPIKeyNotFound) {
				log.Debugf("api key source failed, trying next: %s", err.Error())
			}
			continue
		}
		return key, nil
	}
	return "", ErrAPIKeyNotFound
}
