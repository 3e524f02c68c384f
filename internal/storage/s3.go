// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps generated images and chat attachments in
// S3-compatible object storage. Path-style addressing is forced so MinIO,
// CEPH and Hetzner buckets work the same as AWS.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// PrivateURLExpiry bounds presigned links to private objects.
const PrivateURLExpiry = time.Hour

// Options configure the client. PublicURL is an optional CDN origin for
// the public bucket; PrivateBucket defaults to PublicBucket.
type Options struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBucket  string
	PrivateBucket string
	PublicURL     string
}

// Client addresses a public bucket, served directly or through a CDN, and
// a private bucket reached only through presigned URLs.
type Client struct {
	api       *s3.Client
	presign   *s3.PresignClient
	public    string
	private   string
	publicURL string // base URL of public objects, no trailing slash
}

// New returns nil, nil when the endpoint or credentials are unset so the
// server can run without blob storage.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, nil
	}
	if opts.PublicBucket == "" {
		return nil, errors.New("storage: public bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.PrivateBucket == "" {
		opts.PrivateBucket = opts.PublicBucket
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	api := s3.New(s3.Options{
		Region:       opts.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	})

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = endpoint + "/" + opts.PublicBucket
	}
	return &Client{
		api:       api,
		presign:   s3.NewPresignClient(api),
		public:    opts.PublicBucket,
		private:   opts.PrivateBucket,
		publicURL: publicURL,
	}, nil
}

// Check verifies that both buckets exist and are reachable.
func (c *Client) Check(ctx context.Context) error {
	for _, bucket := range uniq(c.public, c.private) {
		if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return fmt.Errorf("s3 bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// PutPublic stores data world-readable and returns its URL.
func (c *Client) PutPublic(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.public),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s/%s: %w", c.public, key, err)
	}
	return c.FileURL(key), nil
}

// DeletePublic removes keys from the public bucket in one request.
func (c *Client) DeletePublic(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make([]s3types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = s3types.ObjectIdentifier{Key: aws.String(k)}
	}
	out, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(c.public),
		Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", c.public, err)
	}
	if len(out.Errors) > 0 {
		e := out.Errors[0]
		return fmt.Errorf("s3 delete %s/%s: %s", c.public, aws.ToString(e.Key), aws.ToString(e.Message))
	}
	return nil
}

// PutPrivate stores data in the private bucket.
func (c *Client) PutPrivate(ctx context.Context, key, contentType string, data []byte) error {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.private),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("private, max-age=3600"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", c.private, key, err)
	}
	return nil
}

// FileURL returns the public URL of key.
func (c *Client) FileURL(key string) string {
	return c.publicURL + "/" + strings.TrimPrefix(key, "/")
}

// URL resolves a storage ID. Generated images are public and uploads get
// a presigned link to the private bucket. Other keys are refused, so
// nothing outside those two prefixes is ever handed out.
func (c *Client) URL(ctx context.Context, storageID string) (string, error) {
	key := strings.TrimPrefix(storageID, "/")
	switch {
	case key == "":
		return "", errors.New("storage: empty storage id")
	case IsPublicKey(key):
		return c.FileURL(key), nil
	case !IsUploadKey(key):
		return "", fmt.Errorf("storage: %q is not a media key", key)
	}
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.private),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PrivateURLExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.private, key, err)
	}
	return req.URL, nil
}

func uniq(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
