package sts

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/prometheus/client_golang/prometheus"
)

// STSGateway issues temporary credentials by assuming a role.
type STSGateway interface {
	Issue(ctx context.Context, roleARN, sessionName string, duration time.Duration) (*Credentials, error)
}

type DefaultSTSGateway struct {
	svc stsiface.STSAPI
}

func DefaultGateway(region string) (*DefaultSTSGateway, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("error creating aws session: %w", err)
	}
	return &DefaultSTSGateway{svc: sts.New(sess)}, nil
}

func (g *DefaultSTSGateway) Issue(ctx context.Context, roleARN, sessionName string, duration time.Duration) (*Credentials, error) {
	timer := prometheus.NewTimer(assumeRole)
	defer timer.ObserveDuration()

	assumeRoleExecuting.Inc()
	defer assumeRoleExecuting.Dec()

	in := &sts.AssumeRoleInput{
		DurationSeconds: aws.Int64(int64(duration.Seconds())),
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
	}
	resp, err := g.svc.AssumeRoleWithContext(ctx, in)
	if err != nil {
		errorIssuing.Inc()
		return nil, err
	}

	return NewCredentials(*resp.Credentials.AccessKeyId, *resp.Credentials.SecretAccessKey, *resp.Credentials.SessionToken, *resp.Credentials.Expiration), nil
}
