// Package memory は思い出（recuerdos）の管理機能を提供する。
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glockstar/fanpage/internal/metrics"
	"github.com/glockstar/fanpage/internal/model"
	"github.com/glockstar/fanpage/internal/repository"
	"github.com/glockstar/fanpage/internal/security"
	"github.com/glockstar/fanpage/internal/storage"
)

// Service は思い出の取得・作成・画像アップロードのサービス。
type Service struct {
	memoryRepo    repository.MemoryRepository
	blobStore     storage.BlobStore
	sanitizer     security.ContentSanitizerService
	collector     metrics.MetricsCollector
	defaultUserID string
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// sanitizerとcollectorはnil可（省略時はサニタイズなし・計測なし）。
func NewService(
	memoryRepo repository.MemoryRepository,
	blobStore storage.BlobStore,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	defaultUserID string,
) *Service {
	return &Service{
		memoryRepo:    memoryRepo,
		blobStore:     blobStore,
		sanitizer:     sanitizer,
		collector:     collector,
		defaultUserID: defaultUserID,
		now:           time.Now,
	}
}

// List は全ての思い出をcreated_at降順で返す。
// 取得に失敗した場合はエラーをログに残し、空のスライスを返す。
// 一覧表示はデータベース障害時も画面を壊さないことを優先する。
func (s *Service) List(ctx context.Context) []*model.Memory {
	memories, err := s.memoryRepo.List(ctx)
	if err != nil {
		slog.Error("failed to list memories",
			slog.String("error", err.Error()),
		)
		return []*model.Memory{}
	}
	if memories == nil {
		return []*model.Memory{}
	}
	return memories
}

// GetByID は指定IDの思い出を返す。
// 見つからない場合・取得に失敗した場合はログに残してnilを返す。
func (s *Service) GetByID(ctx context.Context, id string) *model.Memory {
	memory, err := s.memoryRepo.FindByID(ctx, id)
	if err != nil {
		slog.Error("failed to find memory",
			slog.String("memory_id", id),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if memory == nil {
		slog.Warn("memory not found", slog.String("memory_id", id))
		return nil
	}
	return memory
}

// Create は新しい思い出を作成する。
// 入力検証はI/Oの前に行い、失敗時はデータベースに触れない。
// 挿入前にProbeでテーブルへのアクセスを確認し、
// 権限エラーと挿入エラーを区別できるようにする。
func (s *Service) Create(ctx context.Context, input *model.NewMemoryInput) (*model.Memory, error) {
	titulo := strings.TrimSpace(input.Titulo)
	descripcion := strings.TrimSpace(input.Descripcion)
	if titulo == "" || descripcion == "" {
		return nil, model.NewMemoryValidationError()
	}

	if err := s.memoryRepo.Probe(ctx); err != nil {
		return nil, model.NewStorageAccessError(err.Error())
	}

	memory := &model.Memory{
		ID:          uuid.New().String(),
		Titulo:      titulo,
		Descripcion: s.sanitize(descripcion),
		ImagenURL:   strings.TrimSpace(input.ImagenURL),
		CreatedAt:   s.now(),
		UserID:      s.defaultUserID,
	}

	if err := s.memoryRepo.Create(ctx, memory); err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	if s.collector != nil {
		s.collector.RecordMemoryCreated()
	}
	slog.Info("memory created",
		slog.String("memory_id", memory.ID),
		slog.String("titulo", memory.Titulo),
	)
	return memory, nil
}

// UploadImage は画像をオブジェクトストレージにアップロードし、公開URLを返す。
// オブジェクトパスにはミリ秒タイムスタンプの接頭辞を付けて衝突を避ける。
func (s *Service) UploadImage(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, error) {
	filename = strings.TrimSpace(filename)
	if r == nil || size <= 0 || filename == "" {
		return "", model.NewEmptyUploadError()
	}

	objectPath := fmt.Sprintf("%d_%s", s.now().UnixMilli(), filename)

	url, err := s.blobStore.Upload(ctx, objectPath, r, size, contentType)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectExists):
			return "", model.NewUploadFailedError("同名のファイルが既に存在します")
		case errors.Is(err, storage.ErrPublicURLMissing):
			return "", model.NewPublicURLMissingError()
		default:
			return "", model.NewUploadFailedError(err.Error())
		}
	}

	if s.collector != nil {
		s.collector.RecordUploadBytes(size)
	}
	slog.Info("image uploaded",
		slog.String("object_path", objectPath),
		slog.Int64("size_bytes", size),
	)
	return url, nil
}

// sanitize は説明文のHTMLをサニタイズする。sanitizer未設定の場合はそのまま返す。
func (s *Service) sanitize(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}
