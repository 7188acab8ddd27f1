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

// Package directory resolves service names to their authorization
// records: the role they may assume and the bucket patterns they may
// touch.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/s3bridge/s3bridge/pkg/patterns"
)

// UniversalService is the distinguished break-glass identity. It is
// the only service permitted a wildcard-only pattern list and always
// resolves, implicitly when no record is stored for it.
const UniversalService = "universal"

// ErrServiceNotFound is returned by Lookup when no record exists for
// the requested name. It is a normal negative result, distinct from
// the directory being unreachable.
var ErrServiceNotFound = errors.New("service not found")

// ErrWildcardReserved is returned by Put when a wildcard-only pattern
// list is assigned to anything but the universal service.
var ErrWildcardReserved = errors.New("wildcard-only bucket patterns are reserved for the universal service")

// PermissionLevel names the fixed action set a service's role is
// provisioned with.
type PermissionLevel string

const (
	ReadOnly  PermissionLevel = "read-only"
	ReadWrite PermissionLevel = "read-write"
	Admin     PermissionLevel = "admin"
)

// Actions returns the S3 actions granted at this level. Used by
// administrative role provisioning only; the broker never inspects it.
func (l PermissionLevel) Actions() []string {
	switch l {
	case ReadOnly:
		return []string{"s3:GetObject", "s3:ListBucket"}
	case ReadWrite:
		return []string{"s3:GetObject", "s3:PutObject", "s3:DeleteObject", "s3:ListBucket"}
	case Admin:
		return []string{"s3:*"}
	}
	return nil
}

// Valid reports whether the level is one of the known values.
func (l PermissionLevel) Valid() bool {
	switch l {
	case ReadOnly, ReadWrite, Admin:
		return true
	}
	return false
}

// ServiceAuthorization is one service's record: the role the broker
// assumes on its behalf and the bucket patterns gating its storage
// access. Pattern order is preserved for display but irrelevant for
// matching.
type ServiceAuthorization struct {
	ServiceName    string          `json:"service_name" dynamodbav:"service_name"`
	RoleARN        string          `json:"role" dynamodbav:"role_arn"`
	BucketPatterns []string        `json:"buckets" dynamodbav:"bucket_patterns"`
	Permissions    PermissionLevel `json:"permissions" dynamodbav:"permissions"`
}

// Directory is the read contract the broker and facade depend on.
type Directory interface {
	// Lookup resolves a service name to its record. Returns
	// ErrServiceNotFound when the service doesn't exist; any other
	// error is an infrastructure fault.
	Lookup(ctx context.Context, serviceName string) (*ServiceAuthorization, error)
	// Enumerate returns all registered services.
	Enumerate(ctx context.Context) ([]*ServiceAuthorization, error)
}

// Store extends Directory with the mutation operations used by
// administrative commands. The broker itself only ever reads.
type Store interface {
	Directory
	Put(ctx context.Context, auth *ServiceAuthorization) error
	Delete(ctx context.Context, serviceName string) error
}

// Config carries the construction-time settings shared by backends.
// Created once per process, immutable thereafter.
type Config struct {
	Region           string `env:"AWS_REGION"`
	TableName        string `env:"S3BRIDGE_SERVICES_TABLE"`
	UniversalRoleARN string `env:"S3BRIDGE_UNIVERSAL_ROLE_ARN"`
}

// Normalize lower-cases a service name. Names are case-insensitive
// everywhere; every entry point normalizes before lookup or storage.
func Normalize(serviceName string) string {
	return strings.ToLower(strings.TrimSpace(serviceName))
}

func universalAuthorization(roleARN string) *ServiceAuthorization {
	return &ServiceAuthorization{
		ServiceName:    UniversalService,
		RoleARN:        roleARN,
		BucketPatterns: []string{"*"},
		Permissions:    Admin,
	}
}

func validatePut(auth *ServiceAuthorization) error {
	if auth.ServiceName == "" {
		return fmt.Errorf("service name can't be empty")
	}
	if len(auth.BucketPatterns) == 0 {
		return fmt.Errorf("service %s needs at least one bucket pattern", auth.ServiceName)
	}
	if !auth.Permissions.Valid() {
		return fmt.Errorf("unknown permission level %q", auth.Permissions)
	}
	if Normalize(auth.ServiceName) != UniversalService && patterns.IsWildcardOnly(auth.BucketPatterns) {
		return ErrWildcardReserved
	}
	return nil
}
