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
package directory

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

const envPrefix = "SERVICE_"

// EnvDirectory reads service records from process environment
// variables of the form SERVICE_<NAME>=<json>. This is how the
// credential service itself is configured when deployed as a
// function; records can't be mutated at runtime, so it implements
// Directory only.
type EnvDirectory struct {
	universalRoleARN string
	environ          func() []string
}

func NewEnvDirectory(cfg *Config) *EnvDirectory {
	return &EnvDirectory{universalRoleARN: cfg.UniversalRoleARN, environ: os.Environ}
}

func (d *EnvDirectory) Lookup(ctx context.Context, serviceName string) (*ServiceAuthorization, error) {
	serviceName = Normalize(serviceName)

	for _, auth := range d.scan() {
		if auth.ServiceName == serviceName {
			return auth, nil
		}
	}

	if serviceName == UniversalService {
		return universalAuthorization(d.universalRoleARN), nil
	}

	return nil, ErrServiceNotFound
}

func (d *EnvDirectory) Enumerate(ctx context.Context) ([]*ServiceAuthorization, error) {
	auths := d.scan()

	found := false
	for _, auth := range auths {
		if auth.ServiceName == UniversalService {
			found = true
		}
	}
	if !found {
		auths = append(auths, universalAuthorization(d.universalRoleARN))
	}

	sort.Slice(auths, func(i, j int) bool { return auths[i].ServiceName < auths[j].ServiceName })
	return auths, nil
}

func (d *EnvDirectory) scan() []*ServiceAuthorization {
	var auths []*ServiceAuthorization
	for _, kv := range d.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}

		auth := &ServiceAuthorization{Permissions: ReadWrite}
		if err := json.Unmarshal([]byte(value), auth); err != nil {
			log.WithField("service.env", name).Warnf("ignoring malformed service record: %s", err.Error())
			continue
		}
		auth.ServiceName = Normalize(strings.TrimPrefix(name, envPrefix))
		auths = append(auths, auth)
	}
	return auths
}
