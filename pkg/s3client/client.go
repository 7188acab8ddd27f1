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

// Package s3client is the authorizing storage facade: it validates the
// target bucket against the service's authorized patterns before any
// operation and plumbs broker-issued credentials into the S3 client.
package s3client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	log "github.com/sirupsen/logrus"

	"github.com/s3bridge/s3bridge/pkg/authclient"
	"github.com/s3bridge/s3bridge/pkg/directory"
	"github.com/s3bridge/s3bridge/pkg/patterns"
)

// UnauthorizedBucketError is the loud, construction-time refusal: the
// bucket matches none of the service's patterns. Security-relevant and
// never retried or downgraded to a per-operation failure.
type UnauthorizedBucketError struct {
	Bucket      string
	ServiceName string
}

func (e *UnauthorizedBucketError) Error() string {
	return fmt.Sprintf("service %s is not authorized for bucket %s", e.ServiceName, e.Bucket)
}

// Client operates on one bucket on behalf of one service. Operation
// failures come back as plain error values for the caller to branch
// on; the client never retries them.
type Client struct {
	bucketName  string
	serviceName string
	auth        *authclient.AuthProvider
	svc         s3iface.S3API
}

type Option func(*Client)

// WithAuthProvider supplies a pre-built auth provider, e.g. one with
// an explicit endpoint.
func WithAuthProvider(auth *authclient.AuthProvider) Option {
	return func(c *Client) { c.auth = auth }
}

// WithS3 replaces the S3 client; used by tests.
func WithS3(svc s3iface.S3API) Option {
	return func(c *Client) { c.svc = svc }
}

// Open validates bucketName against serviceName's authorized patterns
// and fails fast with UnauthorizedBucketError before any storage call
// is possible.
func Open(ctx context.Context, bucketName, serviceName string, dir directory.Directory, region string, opts ...Option) (*Client, error) {
	serviceName = directory.Normalize(serviceName)

	auth, err := dir.Lookup(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	if !patterns.Matches(bucketName, auth.BucketPatterns) {
		unauthorizedOpens.Inc()
		return nil, &UnauthorizedBucketError{Bucket: bucketName, ServiceName: serviceName}
	}

	c := &Client{bucketName: bucketName, serviceName: serviceName}
	for _, opt := range opts {
		opt(c)
	}

	if c.auth == nil {
		c.auth = authclient.NewAuthProvider(serviceName)
	}
	if c.svc == nil {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(region),
			Credentials: authclient.NewAWSCredentials(c.auth),
		})
		if err != nil {
			return nil, fmt.Errorf("error creating aws session: %w", err)
		}
		c.svc = s3.New(sess)
	}

	return c, nil
}

func (c *Client) Bucket() string {
	return c.bucketName
}

func (c *Client) logger(key string) *log.Entry {
	return log.WithFields(log.Fields{
		"storage.bucket":  c.bucketName,
		"storage.key":     key,
		"storage.service": c.serviceName,
	})
}

// Read fetches an object's contents.
func (c *Client) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := c.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		operationErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("error reading s3://%s/%s: %w", c.bucketName, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		operationErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("error reading s3://%s/%s: %w", c.bucketName, key, err)
	}
	return data, nil
}

// ReadJSON reads an object and decodes it into v.
func (c *Client) ReadJSON(ctx context.Context, key string, v interface{}) error {
	data, err := c.Read(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding s3://%s/%s: %w", c.bucketName, key, err)
	}
	return nil
}

// Write stores data under key.
func (c *Client) Write(ctx context.Context, key string, data []byte) error {
	_, err := c.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		operationErrors.WithLabelValues("write").Inc()
		return fmt.Errorf("error writing s3://%s/%s: %w", c.bucketName, key, err)
	}
	return nil
}

// WriteJSON encodes v and stores it under key.
func (c *Client) WriteJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding s3://%s/%s: %w", c.bucketName, key, err)
	}
	return c.Write(ctx, key, data)
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		operationErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("error deleting s3://%s/%s: %w", c.bucketName, key, err)
	}
	return nil
}

// List returns all object keys under prefix, fully materialized across
// pages. It returns an empty slice both when nothing matches and when
// the listing fails; the failure is logged but deliberately not
// distinguished in the return value.
func (c *Client) List(ctx context.Context, prefix string) []string {
	var keys []string

	err := c.svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucketName),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, object := range page.Contents {
			keys = append(keys, aws.StringValue(object.Key))
		}
		return true
	})
	if err != nil {
		operationErrors.WithLabelValues("list").Inc()
		c.logger(prefix).Errorf("error listing objects: %s", err.Error())
		return nil
	}

	return keys
}
