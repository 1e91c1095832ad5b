package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const (
	// GCS object composition accepts at most 32 sources per call.
	gcsComposeLimit = 32

	// listBound caps a single List call, mirroring the provider's page size.
	listBound = 1000
)

// GCS implements Gateway on top of a Google Cloud Storage bucket.
type GCS struct {
	bucket *gcs.BucketHandle
}

func NewGCS(client *gcs.Client, bucket string) *GCS {
	return &GCS{bucket: client.Bucket(bucket)}
}

func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	it := g.bucket.Objects(ctx, &gcs.Query{Prefix: prefix})
	var names []string
	for len(names) < listBound {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (g *GCS) ReadAll(ctx context.Context, path string) ([]byte, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (g *GCS) Write(ctx context.Context, path, contentType string) (io.WriteCloser, error) {
	w := g.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	return w, nil
}

func (g *GCS) Copy(ctx context.Context, src, dst string) error {
	if _, err := g.bucket.Object(dst).CopierFrom(g.bucket.Object(src)).Run(ctx); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func (g *GCS) Compose(ctx context.Context, srcs []string, dst, contentType string) error {
	if len(srcs) == 0 {
		return fmt.Errorf("compose %s: no sources", dst)
	}
	if len(srcs) > gcsComposeLimit {
		return fmt.Errorf("compose %s: %d sources exceeds limit %d", dst, len(srcs), gcsComposeLimit)
	}
	handles := make([]*gcs.ObjectHandle, len(srcs))
	for i, src := range srcs {
		handles[i] = g.bucket.Object(src)
	}
	composer := g.bucket.Object(dst).ComposerFrom(handles...)
	composer.ContentType = contentType
	if _, err := composer.Run(ctx); err != nil {
		return fmt.Errorf("compose %s: %w", dst, err)
	}
	return nil
}

func (g *GCS) MaxCompose() int {
	return gcsComposeLimit
}
