// Package imagehost wraps the external image store: an S3-compatible
// bucket (Cloudflare R2) behind a public CDN base URL. It issues
// durable image URLs, deletes objects by public id, and recovers the
// public id from a previously issued URL. Display transformations
// (bounded size, automatic quality and format) are applied by the CDN
// fronting the base URL, not here.
package imagehost

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Every outbound call fails closed after this long.
const requestTimeout = 10 * time.Second

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	BaseURL   string
}

type Client struct {
	s3      *s3.Client
	bucket  string
	baseURL string
	log     zerolog.Logger
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			),
		),
		config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					if service == s3.ServiceID {
						return aws.Endpoint{
							URL:           cfg.Endpoint,
							SigningRegion: "auto",
						}, nil
					}
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				},
			),
		),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		s3:      s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log,
	}, nil
}

// Upload stores the image under folder and returns its public URL and
// id. The object key carries no extension; the issued URL keeps it so
// the CDN can negotiate the served format, and carries a version
// segment for cache busting.
func (c *Client) Upload(ctx context.Context, folder, filename string, body io.Reader) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	ext := strings.ToLower(filepath.Ext(filename))
	publicID := fmt.Sprintf("%s/%s", folder, uuid.New().String())

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &publicID,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", "", err
	}

	url := fmt.Sprintf("%s/upload/v%d/%s%s", c.baseURL, time.Now().Unix(), publicID, ext)
	c.log.Debug().Str("public_id", publicID).Msg("imagen subida")
	return url, publicID, nil
}

// Delete removes a previously uploaded image by its public id.
func (c *Client) Delete(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.bucket,
		Key:    &publicID,
	})
	return err
}

// ExtractID recovers the public id from a URL this client issued.
// Returns "" when the URL belongs to another host or is malformed.
func (c *Client) ExtractID(url string) string {
	return extractID(c.baseURL, url)
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

func extractID(baseURL, url string) string {
	if baseURL == "" || !strings.HasPrefix(url, baseURL+"/") {
		return ""
	}
	_, path, ok := strings.Cut(url, "/upload/")
	if !ok {
		return ""
	}
	if seg, rest, found := strings.Cut(path, "/"); found && versionSegment.MatchString(seg) {
		path = rest
	}
	if path == "" {
		return ""
	}
	if ext := filepath.Ext(path); ext != "" {
		path = strings.TrimSuffix(path, ext)
	}
	return path
}
