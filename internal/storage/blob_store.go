// Package storage は画像ファイルのオブジェクトストレージ操作を提供する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectExists は同名オブジェクトが既に存在する場合に返される。
// アップロードは上書きしない方針のため、既存パスへの書き込みは拒否される。
var ErrObjectExists = errors.New("object already exists")

// ErrPublicURLMissing はアップロード後に公開URLを組み立てられない場合に返される。
var ErrPublicURLMissing = errors.New("public URL could not be resolved")

// BlobStore は画像バケットへのアップロード機能のインターフェースを定義する。
type BlobStore interface {
	// Upload はオブジェクトをアップロードし、公開URLを返す。
	// 同名オブジェクトが既に存在する場合はErrObjectExistsを返す。
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error)

	// PublicURL は指定パスのオブジェクトの公開URLを返す。
	PublicURL(objectPath string) string
}

// MinioAPI はminioクライアントのうち本パッケージが使用する操作。
// テスト時のモック差し替えのために切り出している。
type MinioAPI interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioBlobStore はminioを使用したBlobStoreの実装。
type MinioBlobStore struct {
	client        MinioAPI
	bucket        string
	publicBaseURL string
}

const defaultContentType = "application/octet-stream"

// NewMinioBlobStore はminioクライアントを生成してMinioBlobStoreを返す。
// publicBaseURLは公開URLの組み立てに使う外部向けベースURL（末尾スラッシュなし）。
func NewMinioBlobStore(endpoint, accessKey, secretKey, bucket, publicBaseURL string, useSSL bool) (*MinioBlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &MinioBlobStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// NewMinioBlobStoreWithClient は既存のクライアントからMinioBlobStoreを生成する。
// テスト用。
func NewMinioBlobStoreWithClient(client MinioAPI, bucket, publicBaseURL string) *MinioBlobStore {
	return &MinioBlobStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload はオブジェクトをアップロードし、公開URLを返す。
// 既存オブジェクトの上書きを防ぐため、書き込み前に存在確認を行う。
func (s *MinioBlobStore) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = defaultContentType
	}

	_, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err == nil {
		return "", ErrObjectExists
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "" && resp.Code != "NoSuchKey" {
		return "", fmt.Errorf("failed to check object existence: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	url := s.PublicURL(objectPath)
	if url == "" {
		return "", ErrPublicURLMissing
	}
	return url, nil
}

// PublicURL は指定パスのオブジェクトの公開URLを返す。
// バケットは公開読み取り設定を前提とする。
func (s *MinioBlobStore) PublicURL(objectPath string) string {
	if s.publicBaseURL == "" || objectPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, objectPath)
}

// compile-time interface check
var _ BlobStore = (*MinioBlobStore)(nil)
