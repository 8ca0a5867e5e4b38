package model

// AuthState は認証状態の照会結果を表す。
// ページロードごとに導出される一時的な値で、永続化しない。
type AuthState struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// RedditPost はサブレディット一覧に表示する投稿のビューモデル。
// 上流データの読み取り専用プロジェクションで、取得→表示→破棄のライフサイクルを持つ。
type RedditPost struct {
	Subreddit   string `json:"subreddit"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	URL         string `json:"url,omitempty"`
	IsSelf      bool   `json:"is_self"`
	Ups         int    `json:"ups"`
	NumComments int    `json:"num_comments"`
}

// PostKind は投稿種別を表す。
type PostKind string

const (
	// PostKindText はテキスト投稿（Reddit APIのkind="self"）。
	PostKindText PostKind = "text"
	// PostKindLink はリンク投稿（Reddit APIのkind="link"）。
	PostKindLink PostKind = "link"
)

// PostSubmission はユーザー入力から構築される投稿リクエスト。
// 送信後は破棄され、再利用されない。
type PostSubmission struct {
	Subreddit string   `json:"subreddit"`
	Title     string   `json:"title"`
	Kind      PostKind `json:"type"`
	Content   string   `json:"content,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// Validate は必須フィールド（subreddit, title）の存在を検証する。
// ネットワーク呼び出しの前に必ず実行される。
func (s *PostSubmission) Validate() *APIError {
	if s.Subreddit == "" || s.Title == "" {
		return NewMissingFieldsError()
	}

	switch s.Kind {
	case PostKindText:
		// contentは任意（本文なしのテキスト投稿は許可される）
	case PostKindLink:
		if s.URL == "" {
			return NewLinkURLRequiredError()
		}
	default:
		return NewInvalidPostKindError(string(s.Kind))
	}

	return nil
}
