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

	"github.com/aws/aws-sdk-go/aws/credentials"
)

// ProviderName identifies bundles sourced through the auth client.
const ProviderName = "S3BridgeAuthProvider"

// awsProvider adapts an AuthProvider to the SDK's credentials.Provider
// interface so SDK clients refresh through the exchange transparently.
type awsProvider struct {
	auth *AuthProvider
}

// NewAWSCredentials wraps the provider for use in an aws.Config.
func NewAWSCredentials(auth *AuthProvider) *credentials.Credentials {
	return credentials.NewCredentials(&awsProvider{auth: auth})
}

func (p *awsProvider) Retrieve() (credentials.Value, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
	defer cancel()

	bundle, err := p.auth.GetCredentials(ctx)
	if err != nil {
		return credentials.Value{ProviderName: ProviderName}, err
	}

	return credentials.Value{
		AccessKeyID:     bundle.AccessKeyId,
		SecretAccessKey: bundle.SecretAccessKey,
		SessionToken:    bundle.SessionToken,
		ProviderName:    ProviderName,
	}, nil
}

func (p *awsProvider) IsExpired() bool {
	return p.auth.Expired()
}
