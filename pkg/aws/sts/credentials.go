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
package sts

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Credentials is one temporary credential bundle as served over the
// exchange endpoint. Expiration is the absolute expiry in RFC3339.
type Credentials struct {
	AccessKeyId     string
	SecretAccessKey string
	SessionToken    string
	Expiration      string
}

func NewCredentials(accessKey, secretKey, token string, expiry time.Time) *Credentials {
	return &Credentials{
		AccessKeyId:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    token,
		Expiration:      expiry.UTC().Format(time.RFC3339),
	}
}

// ExpiresAt parses the bundle's absolute expiry.
func (c *Credentials) ExpiresAt() (time.Time, error) {
	return time.Parse(time.RFC3339, c.Expiration)
}

func CredentialsFields(credentials *Credentials, service string) log.Fields {
	return log.Fields{
		"credentials.service":    service,
		"credentials.access.key": credentials.AccessKeyId,
		"credentials.expiration": credentials.Expiration,
	}
}
