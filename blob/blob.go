// Package blob stores event assets in S3: payment screenshots captured
// during self-service registration, per-event quiz documents, and general
// uploads served through the CDN.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("symphony: object not found")

// S3API captures the S3 operations the client depends on. The AWS SDK
// client satisfies it directly.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Object describes one stored object in a listing.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Client reads and writes event assets in a single bucket.
type Client struct {
	s3     S3API
	bucket string
}

// New creates a blob client for the given bucket.
func New(client S3API, bucket string) *Client {
	return &Client{
		s3:     client,
		bucket: bucket,
	}
}

// PutPaymentScreenshot stores a registration payment proof under the
// event's payments prefix and returns the generated key. The content type
// is sniffed from the payload; unrecognized payloads are assumed to be PNG.
func (c *Client) PutPaymentScreenshot(ctx context.Context, eventSlug string, data []byte) (string, error) {
	ext, mime := "png", "image/png"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		ext, mime = kind.Extension, kind.MIME.Value
	}

	key := fmt.Sprintf("%s/payments/%s.%s", eventSlug, uuid.NewString(), ext)
	if err := c.put(ctx, key, data, mime); err != nil {
		return "", fmt.Errorf("put payment screenshot: %w", err)
	}
	return key, nil
}

// PutQuiz stores the quiz document for an event, replacing any previous
// one. doc must already be serialized JSON.
func (c *Client) PutQuiz(ctx context.Context, eventSlug string, doc []byte) (string, error) {
	key := QuizKey(eventSlug)
	if err := c.put(ctx, key, doc, "application/json"); err != nil {
		return "", fmt.Errorf("put quiz: %w", err)
	}
	return key, nil
}

// GetQuiz returns the raw quiz document for an event, or ErrNotFound if
// none was uploaded.
func (c *Client) GetQuiz(ctx context.Context, eventSlug string) ([]byte, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(QuizKey(eventSlug)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	defer out.Body.Close()

	doc, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read quiz body: %w", err)
	}
	return doc, nil
}

// PutFile stores a general upload under a sanitized version of its
// original filename and returns the key. The extension falls back from
// the sniffed type to the original name to "bin".
func (c *Client) PutFile(ctx context.Context, originalName string, data []byte) (string, error) {
	ext, mime := "", "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		ext, mime = kind.Extension, kind.MIME.Value
	}
	if ext == "" {
		ext = extensionFromName(originalName)
	}
	if ext == "" {
		ext = "bin"
	}

	key := SanitizeFilename(originalName)
	if key == "" {
		key = "upload." + ext
	}

	if err := c.put(ctx, key, data, mime); err != nil {
		return "", fmt.Errorf("put file: %w", err)
	}
	return key, nil
}

// List returns the objects under the given key prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(c.bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	var objects []Object
	for {
		out, err := c.s3.ListObjectsV2(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, item := range out.Contents {
			obj := Object{Key: aws.ToString(item.Key)}
			if item.Size != nil {
				obj.Size = *item.Size
			}
			if item.LastModified != nil {
				obj.LastModified = *item.LastModified
			}
			objects = append(objects, obj)
		}
		if out.NextContinuationToken == nil {
			break
		}
		in.ContinuationToken = out.NextContinuationToken
	}
	return objects, nil
}

func (c *Client) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// QuizKey returns the object key holding an event's quiz document.
func QuizKey(eventSlug string) string {
	return eventSlug + "/quiz.json"
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w.-]`)

// SanitizeFilename strips any path prefix, replaces unsafe characters
// with underscores and lowercases the result.
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(unsafeFilenameChars.ReplaceAllString(name, "_"))
}

func extensionFromName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return ""
}
