// Package controller はソーシャル投稿ページのUI状態遷移を管理する。
// 画面の状態はすべて単一のViewStateに集約し、遷移のたびにRendererへ渡す。
// グローバルな表示状態は持たない。
package controller

import (
	"time"

	"github.com/glockstar/fanpage/internal/model"
)

// PostListPhase は投稿一覧の表示フェーズ。
type PostListPhase string

const (
	// PostListIdle は初期状態（まだ取得していない）。
	PostListIdle PostListPhase = "idle"
	// PostListLoading は取得中のプレースホルダー表示。
	PostListLoading PostListPhase = "loading"
	// PostListLoaded は取得済み。
	PostListLoaded PostListPhase = "loaded"
	// PostListError は取得失敗の終端状態。再取得まで遷移しない。
	PostListError PostListPhase = "error"
)

// FormPhase は投稿フォームの状態。
type FormPhase string

const (
	// FormIdle は入力受付中。
	FormIdle FormPhase = "idle"
	// FormSubmitting は送信中（進行インジケーター表示、再送信不可）。
	FormSubmitting FormPhase = "submitting"
)

// BannerKind はバナーの種別。
type BannerKind string

const (
	// BannerSuccess は成功通知。
	BannerSuccess BannerKind = "success"
	// BannerError はエラー通知。
	BannerError BannerKind = "error"
)

// Banner は画面上部に一定時間表示される通知。
// スロットは1つだけで、新しいバナーは古いバナーを上書きする。
type Banner struct {
	Kind BannerKind
	Text string
}

// ViewState はソーシャル投稿ページの表示状態のスナップショット。
type ViewState struct {
	Auth       model.AuthState
	PostList   PostListPhase
	Posts      []model.RedditPost
	PostsError string
	Form       FormPhase
	Banner     *Banner
}

// Renderer はViewStateを画面に反映する。
// 状態遷移のたびに最新のスナップショットを受け取る。
type Renderer interface {
	Render(state ViewState)
}

// Navigator はブラウザのアドレス遷移を抽象化する。
type Navigator interface {
	// Redirect は指定URLへ遷移する。
	Redirect(url string)
}

// Timer は停止可能なタイマー。
type Timer interface {
	Stop() bool
}

// Clock はバナーのタイマーを抽象化する。テストではフェイククロックに差し替える。
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewRealClock はtime.AfterFuncによる実クロックを返す。
func NewRealClock() Clock {
	return realClock{}
}
