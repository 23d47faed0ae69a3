package s3store

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// DefaultRegion is used when neither an option nor the environment names a region.
const DefaultRegion = "us-east-1"

// Option configures a Store.
type Option func(*options)

type options struct {
	region         string
	profile        string
	endpoint       string
	forcePathStyle bool
	awsConfig      *aws.Config
	logger         *slog.Logger
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithProfile selects a profile from the shared AWS config and credentials files.
func WithProfile(profile string) Option {
	return func(o *options) {
		o.profile = profile
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithForcePathStyle forces path-style addressing instead of virtual-hosted style.
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(o *options) {
		o.forcePathStyle = forcePathStyle
	}
}

// WithAWSConfig uses cfg instead of loading the default configuration.
func WithAWSConfig(cfg aws.Config) Option {
	return func(o *options) {
		o.awsConfig = &cfg
	}
}

// WithLogger sets the logger. SDK log output is forwarded to it at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
