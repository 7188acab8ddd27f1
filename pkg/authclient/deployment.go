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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ConfigPathEnvVar overrides where the deployment record lives.
const ConfigPathEnvVar = "S3BRIDGE_CONFIG"

// DeploymentRecord is the locally persisted output of an
// infrastructure deployment: where the broker lives and, once
// discovered, the API key to call it with.
type DeploymentRecord struct {
	APIGatewayURL string `json:"api_gateway_url"`
	AdminUsername string `json:"admin_username"`
	APIKey        string `json:"api_key,omitempty"`
}

// DefaultRecordPath is ~/.s3bridge/deployment.json unless overridden
// through the environment.
func DefaultRecordPath() (string, error) {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".s3bridge", "deployment.json"), nil
}

// LoadRecord reads the record permissively: a missing file is not an
// error, it returns (nil, nil) and callers fall through to remote
// lookup.
func LoadRecord(path string) (*DeploymentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading deployment record %s: %w", path, err)
	}

	record := &DeploymentRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("error parsing deployment record %s: %w", path, err)
	}
	return record, nil
}

// Save writes the record atomically: temp file then rename.
// Concurrent writers race but the value is idempotent, so
// last-write-wins is fine.
func (r *DeploymentRecord) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding deployment record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".deployment-*.json")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing deployment record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing deployment record: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error replacing deployment record: %w", err)
	}
	return nil
}
