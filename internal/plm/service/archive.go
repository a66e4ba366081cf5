package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

var ErrArchiveDisabled = errors.New("snapshot archive is not configured")

// SnapshotArchive 基线快照归档（MinIO），客户端为空时不可用
type SnapshotArchive struct {
	client *minio.Client
	bucket string
}

// NewSnapshotArchive 创建快照归档
func NewSnapshotArchive(client *minio.Client, bucket string) *SnapshotArchive {
	return &SnapshotArchive{client: client, bucket: bucket}
}

// Enabled 是否已配置对象存储
func (a *SnapshotArchive) Enabled() bool {
	return a != nil && a.client != nil
}

// ArchiveKey 基线快照对象路径
func ArchiveKey(projectID, baselineID string) string {
	if projectID == "" {
		projectID = "_"
	}
	return path.Join("baselines", projectID, baselineID+".json")
}

// Put 上传快照
func (a *SnapshotArchive) Put(ctx context.Context, key string, snapshot []byte) error {
	if !a.Enabled() {
		return ErrArchiveDisabled
	}
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(snapshot), int64(len(snapshot)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get 下载快照
func (a *SnapshotArchive) Get(ctx context.Context, key string) ([]byte, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Remove 删除快照
func (a *SnapshotArchive) Remove(ctx context.Context, key string) error {
	if !a.Enabled() {
		return ErrArchiveDisabled
	}
	return a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
}
