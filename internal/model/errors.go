// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, reddit, storage, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeSessionExpired   = "SESSION_EXPIRED"
	ErrCodeMissingFields    = "MISSING_FIELDS"
	ErrCodeInvalidPostKind  = "INVALID_POST_KIND"
	ErrCodeLinkURLRequired  = "LINK_URL_REQUIRED"
	ErrCodeInvalidSubreddit = "INVALID_SUBREDDIT"
	ErrCodeRedditAPI        = "REDDIT_API_ERROR"
	ErrCodeMemoryValidation = "MEMORY_VALIDATION"
	ErrCodeMemoryNotFound   = "MEMORY_NOT_FOUND"
	ErrCodeStorageAccess    = "STORAGE_ACCESS"
	ErrCodeEmptyUpload      = "EMPTY_UPLOAD"
	ErrCodeUploadFailed     = "UPLOAD_FAILED"
	ErrCodePublicURLMissing = "PUBLIC_URL_MISSING"
)

// NewNotAuthenticatedError は未認証エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "Redditにログインしていません。",
		Category: "auth",
		Action:   "Redditでログインしてから再度お試しください。",
	}
}

// NewSessionExpiredError はセッション期限切れエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "必須フィールドが入力されていません。",
		Category: "validation",
		Action:   "subredditとtitleを入力してください。",
	}
}

// NewInvalidPostKindError は投稿種別が無効な場合のエラーを生成する。
func NewInvalidPostKindError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPostKind,
		Message:  fmt.Sprintf("無効な投稿種別です: %s", kind),
		Category: "validation",
		Action:   "投稿種別には text または link を指定してください。",
	}
}

// NewLinkURLRequiredError はリンク投稿にURLがない場合のエラーを生成する。
func NewLinkURLRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeLinkURLRequired,
		Message:  "リンク投稿にはURLが必要です。",
		Category: "validation",
		Action:   "URLを入力するか、投稿種別をtextに変更してください。",
	}
}

// NewInvalidSubredditError はサブレディット名が無効な場合のエラーを生成する。
func NewInvalidSubredditError(subreddit string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubreddit,
		Message:  fmt.Sprintf("無効なサブレディット名です: %s", subreddit),
		Category: "validation",
		Action:   "英数字とアンダースコアのみのサブレディット名を指定してください。",
	}
}

// NewRedditAPIError はReddit API呼び出し失敗のエラーを生成する。
// detailには上流が返したエラー内容をそのまま含める。
func NewRedditAPIError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeRedditAPI,
		Message:  detail,
		Category: "reddit",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewMemoryValidationError は思い出作成の入力検証エラーを生成する。
func NewMemoryValidationError() *APIError {
	return &APIError{
		Code:     ErrCodeMemoryValidation,
		Message:  "タイトルと説明は必須です。",
		Category: "validation",
		Action:   "tituloとdescripcionを入力してください。",
	}
}

// NewMemoryNotFoundError は思い出が見つからない場合のエラーを生成する。
func NewMemoryNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeMemoryNotFound,
		Message:  fmt.Sprintf("指定された思い出が見つかりません: %s", id),
		Category: "storage",
		Action:   "IDを確認してください。",
	}
}

// NewStorageAccessError はテーブルへのアクセスに失敗した場合のエラーを生成する。
// 挿入エラーと区別するため、書き込み前の存在確認で失敗した場合に使用する。
func NewStorageAccessError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeStorageAccess,
		Message:  fmt.Sprintf("データベースへのアクセスに失敗しました: %s", detail),
		Category: "storage",
		Action:   "接続設定とテーブルの権限を確認してください。",
	}
}

// NewEmptyUploadError はアップロード入力が空の場合のエラーを生成する。
func NewEmptyUploadError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyUpload,
		Message:  "アップロードするファイルが指定されていません。",
		Category: "validation",
		Action:   "画像ファイルを選択してください。",
	}
}

// NewUploadFailedError は画像アップロード失敗のエラーを生成する。
func NewUploadFailedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeUploadFailed,
		Message:  fmt.Sprintf("画像のアップロードに失敗しました: %s", detail),
		Category: "storage",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPublicURLMissingError はアップロード後に公開URLを解決できない場合のエラーを生成する。
func NewPublicURLMissingError() *APIError {
	return &APIError{
		Code:     ErrCodePublicURLMissing,
		Message:  "アップロードした画像の公開URLを取得できませんでした。",
		Category: "storage",
		Action:   "バケットの公開設定を確認してください。",
	}
}
