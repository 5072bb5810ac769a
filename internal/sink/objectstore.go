package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/lineagelab/olgen/internal/openlineage"
)

// ObjectSink uploads the serialized batch document as a single object.
type ObjectSink struct {
	Client *minio.Client
	Bucket string
	Key    string
}

func NewObjectSink(client *minio.Client, bucket string, key string) (ObjectSink, error) {
	if client == nil {
		return ObjectSink{}, errors.New("client is required")
	}
	if bucket == "" {
		return ObjectSink{}, errors.New("bucket is required")
	}
	if key == "" {
		return ObjectSink{}, errors.New("object key is required")
	}
	return ObjectSink{Client: client, Bucket: bucket, Key: key}, nil
}

func (s ObjectSink) Write(ctx context.Context, events []openlineage.RunEvent) error {
	doc, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	_, err = s.Client.PutObject(
		ctx,
		s.Bucket,
		s.Key,
		bytes.NewReader(doc),
		int64(len(doc)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.Bucket, s.Key, err)
	}
	return nil
}
