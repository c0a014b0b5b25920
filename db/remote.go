// Remote table import and export over S3, HTTP and local files.
package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nickyhof/JsonDB/core"
	"github.com/nickyhof/JsonDB/sql"
)

// MaxImportSize bounds the size of an imported table file.
const MaxImportSize = 64 << 20

// S3Config contains S3 authentication configuration. Empty fields fall
// back to the default AWS configuration chain.
type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // Optional: custom S3-compatible endpoint
}

// ExportTable copies the table file to url and returns the number of bytes
// written.
func (engine *Engine) ExportTable(ctx context.Context, table string, url string, cfg *S3Config) (int, error) {
	if !sql.IsValidName(table) {
		return 0, fmt.Errorf("%w: invalid table name %q", core.ErrIO, table)
	}

	data, err := engine.ReadTableFile(table)
	if err != nil {
		return 0, err
	}

	target, err := parseLocation(url)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	if err := target.store(ctx, cfg, data); err != nil {
		return 0, fmt.Errorf("%w: export %s: %w", core.ErrIO, table, err)
	}

	engine.logger.Info("table exported", "table", table, "url", url, "bytes", len(data))
	return len(data), nil
}

// ImportTable replaces the table with the JSON array read from url and
// returns the number of imported rows. Content that is not an array of
// objects is rejected with core.ErrMalformedStorage.
func (engine *Engine) ImportTable(ctx context.Context, table string, url string, cfg *S3Config) (int, error) {
	if !sql.IsValidName(table) {
		return 0, fmt.Errorf("%w: invalid table name %q", core.ErrIO, table)
	}

	source, err := parseLocation(url)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	data, err := source.fetch(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("%w: import %s: %w", core.ErrIO, table, err)
	}

	rows, err := engine.WriteTableFile(table, data, fmt.Sprintf("Importing %s from %s", table, url))
	if err != nil {
		return 0, err
	}

	engine.logger.Info("table imported", "table", table, "url", url, "rows", rows)
	return rows, nil
}

type urlScheme string

const (
	schemeLocal urlScheme = "local" // plain path or file://
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http" // http:// and https://
)

// location is a parsed import source or export target.
type location struct {
	scheme urlScheme
	path   string // local path or HTTP URL
	bucket string
	key    string
}

func parseLocation(url string) (location, error) {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		parts := strings.SplitN(url[len("s3://"):], "/", 2)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return location{}, fmt.Errorf("invalid S3 URL: %s", url)
		}
		return location{scheme: schemeS3, bucket: parts[0], key: parts[1]}, nil
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return location{scheme: schemeHTTP, path: url}, nil
	case strings.HasPrefix(lower, "file://"):
		return location{scheme: schemeLocal, path: url[len("file://"):]}, nil
	case url == "":
		return location{}, fmt.Errorf("empty location")
	default:
		return location{scheme: schemeLocal, path: url}, nil
	}
}

func (loc location) fetch(ctx context.Context, cfg *S3Config) ([]byte, error) {
	var body io.ReadCloser
	switch loc.scheme {
	case schemeS3:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		resp, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(loc.bucket),
			Key:    aws.String(loc.key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get S3 object: %w", err)
		}
		body = resp.Body
	case schemeHTTP:
		resp, err := httpGet(ctx, loc.path)
		if err != nil {
			return nil, err
		}
		body = resp
	default:
		file, err := os.Open(loc.path)
		if err != nil {
			return nil, err
		}
		body = file
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxImportSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("table file exceeds %d bytes", MaxImportSize)
	}
	return data, nil
}

func (loc location) store(ctx context.Context, cfg *S3Config, data []byte) error {
	switch loc.scheme {
	case schemeS3:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return err
		}
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(loc.bucket),
			Key:         aws.String(loc.key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload to S3: %w", err)
		}
		return nil
	case schemeHTTP:
		return fmt.Errorf("HTTP/HTTPS does not support writing")
	default:
		return os.WriteFile(loc.path, data, 0644)
	}
}

func httpGet(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: 5 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// newS3Client loads the default AWS configuration and applies the
// explicit settings of cfg on top.
func newS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	if cfg == nil {
		cfg = &S3Config{}
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
