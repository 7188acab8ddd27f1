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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

type stubSTS struct {
	stsiface.STSAPI

	lastInput *sts.AssumeRoleInput
	err       error
	expiry    time.Time
}

func (s *stubSTS) AssumeRoleWithContext(ctx aws.Context, in *sts.AssumeRoleInput, opts ...request.Option) (*sts.AssumeRoleOutput, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &sts.AssumeRoleOutput{
		Credentials: &sts.Credentials{
			AccessKeyId:     aws.String("A1"),
			SecretAccessKey: aws.String("S1"),
			SessionToken:    aws.String("T1"),
			Expiration:      aws.Time(s.expiry),
		},
	}, nil
}

func TestIssuePassesRoleAndDuration(t *testing.T) {
	stub := &stubSTS{expiry: time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)}
	gateway := &DefaultSTSGateway{svc: stub}

	credentials, err := gateway.Issue(context.Background(), "arn:aws:iam::123456789:role/analytics", "analytics-session-1", 900*time.Second)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if aws.StringValue(stub.lastInput.RoleArn) != "arn:aws:iam::123456789:role/analytics" {
		t.Error("unexpected role arn, was", aws.StringValue(stub.lastInput.RoleArn))
	}
	if aws.Int64Value(stub.lastInput.DurationSeconds) != 900 {
		t.Error("unexpected duration, was", aws.Int64Value(stub.lastInput.DurationSeconds))
	}
	if aws.StringValue(stub.lastInput.RoleSessionName) != "analytics-session-1" {
		t.Error("unexpected session name, was", aws.StringValue(stub.lastInput.RoleSessionName))
	}

	if credentials.AccessKeyId != "A1" {
		t.Error("unexpected access key, was", credentials.AccessKeyId)
	}
	expiresAt, err := credentials.ExpiresAt()
	if err != nil {
		t.Fatal("expiration should parse:", err)
	}
	if !expiresAt.Equal(stub.expiry) {
		t.Error("unexpected expiry, was", expiresAt)
	}
}

func TestIssueSurfacesError(t *testing.T) {
	stub := &stubSTS{err: errors.New("AccessDenied")}
	gateway := &DefaultSTSGateway{svc: stub}

	if _, err := gateway.Issue(context.Background(), "arn:aws:iam::123456789:role/analytics", "s", time.Hour); err == nil {
		t.Error("expected error")
	}
}
