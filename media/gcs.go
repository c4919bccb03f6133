package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSUploader struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewGCSUploader authenticates with a service account file when one is given,
// otherwise with application default credentials.
func NewGCSUploader(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*GCSUploader, error) {
	if bucket == "" {
		return nil, errors.New("missing GCS_BUCKET")
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, now: time.Now}, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func (u *GCSUploader) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	name, err := objectName(folder, fh, u.now())
	if err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType(fh)
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, name), nil
}
