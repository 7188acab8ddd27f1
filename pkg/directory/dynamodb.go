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
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// DynamoDirectory stores one item per service in a DynamoDB table
// keyed by service_name. It implements the full Store contract and
// backs both the broker and the administrative commands.
type DynamoDirectory struct {
	db               dynamodbiface.DynamoDBAPI
	tableName        string
	universalRoleARN string
}

func NewDynamoDirectory(cfg *Config) (*DynamoDirectory, error) {
	if cfg.TableName == "" {
		return nil, fmt.Errorf("services table name can't be empty")
	}

	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
	if err != nil {
		return nil, fmt.Errorf("error creating aws session: %w", err)
	}

	return &DynamoDirectory{
		db:               dynamodb.New(sess),
		tableName:        cfg.TableName,
		universalRoleARN: cfg.UniversalRoleARN,
	}, nil
}

func (d *DynamoDirectory) key(serviceName string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"service_name": {S: aws.String(serviceName)},
	}
}

func (d *DynamoDirectory) Lookup(ctx context.Context, serviceName string) (*ServiceAuthorization, error) {
	serviceName = Normalize(serviceName)

	out, err := d.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            d.key(serviceName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("error reading service %s: %w", serviceName, err)
	}

	if len(out.Item) == 0 {
		if serviceName == UniversalService {
			return universalAuthorization(d.universalRoleARN), nil
		}
		return nil, ErrServiceNotFound
	}

	auth := &ServiceAuthorization{}
	if err := dynamodbattribute.UnmarshalMap(out.Item, auth); err != nil {
		return nil, fmt.Errorf("error decoding service %s: %w", serviceName, err)
	}

	return auth, nil
}

func (d *DynamoDirectory) Enumerate(ctx context.Context) ([]*ServiceAuthorization, error) {
	var auths []*ServiceAuthorization

	err := d.db.ScanPagesWithContext(ctx, &dynamodb.ScanInput{TableName: aws.String(d.tableName)},
		func(page *dynamodb.ScanOutput, lastPage bool) bool {
			for _, item := range page.Items {
				auth := &ServiceAuthorization{}
				if err := dynamodbattribute.UnmarshalMap(item, auth); err != nil {
					continue
				}
				auths = append(auths, auth)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("error scanning services table: %w", err)
	}

	return auths, nil
}

func (d *DynamoDirectory) Put(ctx context.Context, auth *ServiceAuthorization) error {
	auth.ServiceName = Normalize(auth.ServiceName)
	if err := validatePut(auth); err != nil {
		return err
	}

	item, err := dynamodbattribute.MarshalMap(auth)
	if err != nil {
		return fmt.Errorf("error encoding service %s: %w", auth.ServiceName, err)
	}

	_, err = d.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("error writing service %s: %w", auth.ServiceName, err)
	}

	return nil
}

func (d *DynamoDirectory) Delete(ctx context.Context, serviceName string) error {
	serviceName = Normalize(serviceName)

	_, err := d.db.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.key(serviceName),
	})
	if err != nil {
		return fmt.Errorf("error deleting service %s: %w", serviceName, err)
	}

	return nil
}
