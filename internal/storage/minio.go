package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumeForge/internal/config"
)

// Client 封装 MinIO 客户端，存放导出的 PDF 与缩略图。
// 内部客户端负责读写，公开客户端只用于签发浏览器可访问的链接。
type Client struct {
	internalClient *minio.Client
	publicClient   *minio.Client
	bucketName     string
}

// NewClient 根据配置初始化 MinIO 客户端，并确保目标 Bucket 存在。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	lookup, err := parseBucketLookup(cfg.BucketLookup)
	if err != nil {
		return nil, err
	}

	internalClient, err := newMinioClient(cfg, cfg.Endpoint, cfg.UseSSL, lookup)
	if err != nil {
		return nil, fmt.Errorf("init internal minio client: %w", err)
	}

	public, err := url.Parse(cfg.PublicEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse minio public endpoint: %w", err)
	}
	if public.Host == "" {
		return nil, errors.New("invalid minio public endpoint, host missing")
	}
	publicClient, err := newMinioClient(cfg, public.Host, public.Scheme == "https", lookup)
	if err != nil {
		return nil, fmt.Errorf("init public minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ensureBucket(ctx, internalClient, cfg); err != nil {
		return nil, err
	}

	return &Client{
		internalClient: internalClient,
		publicClient:   publicClient,
		bucketName:     cfg.Bucket,
	}, nil
}

func parseBucketLookup(value string) (minio.BucketLookupType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return minio.BucketLookupAuto, nil
	case "dns":
		return minio.BucketLookupDNS, nil
	case "path":
		return minio.BucketLookupPath, nil
	default:
		return minio.BucketLookupAuto, fmt.Errorf("invalid minio bucket lookup %q", value)
	}
}

func newMinioClient(cfg config.MinIOConfig, endpoint string, secure bool, lookup minio.BucketLookupType) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
}

// ensureBucket 在 Bucket 缺失时按配置创建；关闭自动创建时直接报错，避免导出时才发现。
func ensureBucket(ctx context.Context, client *minio.Client, cfg config.MinIOConfig) error {
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if !cfg.AutoCreateBucket {
		return fmt.Errorf("bucket %q does not exist (auto create disabled)", cfg.Bucket)
	}
	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
	}
	return nil
}

// UploadFile 将对象上传到私有 Bucket，并返回上传结果。
func (c *Client) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	info, err := c.internalClient.PutObject(ctx, c.bucketName, objectName, reader, size, opts)
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", objectName, err)
	}
	return &info, nil
}

// Exists 判断对象是否已存在，用于跳过重复的模板缩略图生成。
func (c *Client) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := c.internalClient.StatObject(ctx, c.bucketName, objectKey, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if IsNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %q: %w", objectKey, err)
}

// GeneratePresignedURL 生成对象的限时下载链接。
func (c *Client) GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error) {
	presignedURL, err := c.publicClient.PresignedGetObject(ctx, c.bucketName, objectKey, duration, nil)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", objectKey, err)
	}
	return presignedURL.String(), nil
}

// GeneratePresignedURLWithParams 生成带自定义响应参数的限时下载链接。
func (c *Client) GeneratePresignedURLWithParams(ctx context.Context, objectKey string, duration time.Duration, params map[string]string) (string, error) {
	var v url.Values
	if params != nil {
		v = url.Values{}
		for k, val := range params {
			v.Set(k, val)
		}
	}
	presignedURL, err := c.publicClient.PresignedGetObject(ctx, c.bucketName, objectKey, duration, v)
	if err != nil {
		return "", fmt.Errorf("generate presigned url with params for %q: %w", objectKey, err)
	}
	return presignedURL.String(), nil
}

// DeleteObject 删除指定对象。
// 若对象不存在会被视为成功（幂等）。
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil
	}
	if err := c.internalClient.RemoveObject(ctx, c.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		if IsNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %q: %w", objectKey, err)
	}
	return nil
}

// DeletePrefix 删除指定前缀下的所有对象，删除简历时清理其导出产物。
// 若某些对象已不存在会被忽略；其余错误会聚合返回。
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}

	objCh := c.internalClient.ListObjects(ctx, c.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	keys := make([]string, 0, 32)
	for object := range objCh {
		if object.Err != nil {
			if IsNoSuchBucket(object.Err) {
				return nil
			}
			return fmt.Errorf("list objects under %q: %w", prefix, object.Err)
		}
		if strings.TrimSpace(object.Key) != "" {
			keys = append(keys, object.Key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	var errs []error
	for _, key := range keys {
		if err := c.DeleteObject(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 1 {
		slog.Default().Error("delete minio objects under prefix failed",
			slog.String("prefix", prefix),
			slog.Int("failed_count", len(errs)),
		)
	}
	return errors.Join(errs...)
}
