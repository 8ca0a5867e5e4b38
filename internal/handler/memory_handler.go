package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glockstar/fanpage/internal/middleware"
	"github.com/glockstar/fanpage/internal/model"
)

// maxUploadBytes は画像アップロードで受け付ける最大サイズ（10MB）。
const maxUploadBytes = 10 << 20

// MemoryServiceInterface は思い出ハンドラーが必要とするサービスインターフェース。
type MemoryServiceInterface interface {
	List(ctx context.Context) []*model.Memory
	GetByID(ctx context.Context, id string) *model.Memory
	Create(ctx context.Context, input *model.NewMemoryInput) (*model.Memory, error)
	UploadImage(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, error)
}

// MemoryHandler は思い出（recuerdos）管理のHTTPハンドラー。
type MemoryHandler struct {
	service MemoryServiceInterface
}

// NewMemoryHandler はMemoryHandlerを生成する。
func NewMemoryHandler(service MemoryServiceInterface) *MemoryHandler {
	return &MemoryHandler{service: service}
}

// List は思い出一覧をcreated_at降順で返す。
// GET /api/recuerdos
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	memories := h.service.List(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(memories)
}

// Get は思い出の詳細を返す。
// GET /api/recuerdos/{id}
func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	memory := h.service.GetByID(r.Context(), id)
	if memory == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewMemoryNotFoundError(id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(memory)
}

// Create は新しい思い出を作成する。
// POST /api/recuerdos
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.NewMemoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	memory, err := h.service.Create(r.Context(), &input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(memory)
}

// UploadImage は画像をmultipart/form-dataで受け取りアップロードする。
// フォームフィールド名は "imagen"。成功時はアップロード先の公開URLを返す。
// POST /api/recuerdos/imagen
func (h *MemoryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyUploadError())
		return
	}

	file, header, err := r.FormFile("imagen")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyUploadError())
		return
	}
	defer file.Close()

	url, err := h.service.UploadImage(
		r.Context(),
		file,
		header.Size,
		header.Filename,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

// --- ヘルパー関数 ---

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeNotAuthenticated, model.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case model.ErrCodeMissingFields,
		model.ErrCodeInvalidPostKind,
		model.ErrCodeLinkURLRequired,
		model.ErrCodeInvalidSubreddit,
		model.ErrCodeMemoryValidation,
		model.ErrCodeEmptyUpload:
		return http.StatusBadRequest
	case model.ErrCodeRedditAPI:
		return http.StatusBadGateway
	case model.ErrCodeMemoryNotFound:
		return http.StatusNotFound
	case model.ErrCodeUploadFailed:
		return http.StatusBadGateway
	case model.ErrCodeStorageAccess, model.ErrCodePublicURLMissing:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
