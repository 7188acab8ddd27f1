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
	"errors"
	"fmt"
)

// ErrAPIKeyNotFound means no source produced an API key. Terminal for
// the call; never cached, so a later call succeeds once a key exists.
var ErrAPIKeyNotFound = errors.New("api key not found: set " + APIKeyEnvVar + " or redeploy infrastructure")

// ErrNotDeployed means no exchange endpoint could be resolved from
// configuration or the deployment record.
var ErrNotDeployed = errors.New("s3bridge not deployed: api gateway url not found")

// CredentialServiceError reports a failed exchange call: the broker
// was unreachable, returned a non-200 status, or sent a malformed
// body. Callers may retry with backoff; the client never retries
// internally.
type CredentialServiceError struct {
	// Status is the HTTP status, zero for transport-level failures.
	Status int
	// Body carries the response body of a non-200 response.
	Body string
	// Cause is the underlying transport or decoding error, if any.
	Cause error
	// timeout marks the bounded network call expiring.
	timeout bool
}

func (e *CredentialServiceError) Error() string {
	if e.timeout {
		return fmt.Sprintf("credential service timed out: %s", e.Cause.Error())
	}
	if e.Status != 0 {
		return fmt.Sprintf("credential service failed with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("credential service failed: %s", e.Cause.Error())
}

func (e *CredentialServiceError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was the network call exceeding
// its bound. Timeouts are a subtype of CredentialServiceError for
// retry classification.
func (e *CredentialServiceError) Timeout() bool {
	return e.timeout
}
