// Package awsutil provides utilities for loading AWS configuration.
package awsutil

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
)

// Load loads the AWS configuration for region. When endpoint is set (for
// example http://localstack:4566) every service client is pointed at it.
func Load(ctx context.Context, region, endpoint string) (aws.Config, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, awsCfg.WithBaseEndpoint(endpoint))
	}
	return awsCfg.LoadDefaultConfig(ctx, opts...)
}

// PathStyle reports whether S3 clients should use path-style addressing,
// which LocalStack and most S3-compatible endpoints require.
func PathStyle(endpoint string) bool {
	return endpoint != ""
}

// ErrorCode returns the service error code carried by err, such as
// ConditionalCheckFailedException, or "" when err did not come from AWS.
func ErrorCode(err error) string {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode()
	}
	return ""
}
