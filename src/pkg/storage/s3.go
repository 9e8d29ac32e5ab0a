package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
S3Storage persists artifacts to an S3 bucket under an optional key prefix.
Region and credentials resolve through the standard AWS environment and
shared-config chain, nothing is configured here.
*/
type S3Storage struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

func NewS3Storage(bucket string, keyPrefix string) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 storage needs a bucket")
	}

	awsCfg, loadErr := awsconfig.LoadDefaultConfig(context.Background())
	if loadErr != nil {
		return nil, fmt.Errorf("load AWS configuration: %w", loadErr)
	}

	tl.Log(tl.Debug, palette.GreenDim, "%s s3 artifact storage in bucket '%s'", "Using", bucket)

	return &S3Storage{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}, nil
}

func (store *S3Storage) Save(name string, data []byte) (string, error) {
	key := store.key(name)

	_, putErr := store.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(name)),
	})
	if putErr != nil {
		return "", fmt.Errorf("put artifact '%s' to s3: %w", key, putErr)
	}

	location := fmt.Sprintf("s3://%s/%s", store.bucket, key)
	tl.Log(tl.Verbose, palette.GreenDim, "%s '%s' ('%d' bytes)", "Stored", location, len(data))

	return location, nil
}

func (store *S3Storage) Get(name string) ([]byte, error) {
	object, getErr := store.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.key(name)),
	})
	if getErr != nil {
		return nil, fmt.Errorf("get artifact '%s' from s3: %w", name, getErr)
	}
	defer func() {
		_ = object.Body.Close()
	}()

	data, readErr := io.ReadAll(object.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read artifact body: %w", readErr)
	}

	return data, nil
}

func (store *S3Storage) Delete(name string) error {
	_, deleteErr := store.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(store.key(name)),
	})
	if deleteErr != nil {
		return fmt.Errorf("delete artifact '%s' from s3: %w", name, deleteErr)
	}

	return nil
}

func (store *S3Storage) key(name string) string {
	if store.keyPrefix == "" {
		return name
	}

	return path.Join(store.keyPrefix, name)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	}

	return "application/octet-stream"
}
