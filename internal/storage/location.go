package storage

import (
	"fmt"
	"net/url"
	"strings"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

// Scheme identifies the storage backend of a Location.
type Scheme string

const (
	// SchemeS3 addresses an S3 bucket: s3://bucket/prefix
	SchemeS3 Scheme = "s3"

	// SchemeFile addresses a local directory: file:///path/to/repo
	SchemeFile Scheme = "file"
)

// Location is a parsed target repository location.
type Location struct {
	// Scheme selects the backend
	Scheme Scheme

	// Bucket is the S3 bucket name. Empty for file locations.
	Bucket string

	// Prefix is the key prefix, without leading or trailing slashes.
	Prefix string
}

// ParseLocation parses a storage URL. For s3 URLs the host is the bucket and the
// path is the key prefix; for file URLs the path is the key prefix relative to /.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, repoerrors.NewConfigError("location", fmt.Errorf("%w: %w", repoerrors.ErrInvalidURL, err))
	}

	prefix := strings.Trim(u.Path, "/")

	switch Scheme(u.Scheme) {
	case SchemeS3:
		if u.Hostname() == "" {
			return Location{}, repoerrors.NewConfigError("location", repoerrors.ErrMissingHost).WithMessage(raw)
		}
		if u.Port() != "" {
			return Location{}, repoerrors.NewConfigError("location",
				fmt.Errorf("%w: bucket %q has a port", repoerrors.ErrInvalidURL, u.Host))
		}
		return Location{Scheme: SchemeS3, Bucket: u.Hostname(), Prefix: prefix}, nil
	case SchemeFile:
		if u.Host != "" && u.Host != "localhost" {
			return Location{}, repoerrors.NewConfigError("location",
				fmt.Errorf("%w: file URL with remote host %q", repoerrors.ErrInvalidURL, u.Host))
		}
		if prefix == "" {
			return Location{}, repoerrors.NewConfigError("location",
				fmt.Errorf("%w: file URL must name a directory below /", repoerrors.ErrInvalidURL))
		}
		return Location{Scheme: SchemeFile, Prefix: prefix}, nil
	default:
		return Location{}, repoerrors.NewConfigError("location",
			fmt.Errorf("%w: unsupported scheme %q in %s", repoerrors.ErrInvalidURL, u.Scheme, raw))
	}
}

// Key joins name onto the location prefix.
func (l Location) Key(name string) string {
	if l.Prefix == "" {
		return name
	}
	return l.Prefix + "/" + name
}

// ListPrefix returns the prefix to list so that only keys inside this
// location match, never keys of a sibling prefix sharing the same leading text.
func (l Location) ListPrefix() string {
	if l.Prefix == "" {
		return ""
	}
	return l.Prefix + "/"
}

// String renders the location back into URL form.
func (l Location) String() string {
	switch l.Scheme {
	case SchemeFile:
		return "file:///" + l.Prefix
	default:
		if l.Prefix == "" {
			return fmt.Sprintf("%s://%s", l.Scheme, l.Bucket)
		}
		return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Prefix)
	}
}
