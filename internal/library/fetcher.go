package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Fetcher reads one named file of the chart library
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// clean keeps a manifest name inside the library root
func clean(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

type DirFetcher struct {
	Dir string
}

func (d DirFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.Dir, filepath.FromSlash(clean(name))))
}

// HTTPFetcher reads from a static file server, e.g. https://host/beatmaps
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (h HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	client := h.Client
	if nil == client {
		client = http.DefaultClient
	}
	u := strings.TrimSuffix(h.BaseURL, "/") + "/" + url.PathEscape(clean(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if nil != err {
		return nil, err
	}
	res, err := client.Do(req)
	if nil != err {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to fetch %s: %s", u, res.Status)
	}
	return io.ReadAll(res.Body)
}

// MinioFetcher reads objects under Prefix in an S3 compatible bucket
type MinioFetcher struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func NewMinioFetcher(endpoint, accessKey, secretKey, bucket, prefix string, useSSL bool) (*MinioFetcher, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if nil != err {
		return nil, fmt.Errorf("unable to create minio client: %w", err)
	}
	return &MinioFetcher{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (m *MinioFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	object, err := m.Client.GetObject(ctx, m.Bucket, path.Join(m.Prefix, clean(name)), minio.GetObjectOptions{})
	if nil != err {
		return nil, err
	}
	defer object.Close()
	return io.ReadAll(object)
}
