package model

import "time"

// Memory は「recuerdos」テーブルの1レコード（思い出）を表す。
// カラム名はStorage Service側のスキーマ（スペイン語）に合わせている。
type Memory struct {
	ID          string    `json:"id"`
	Titulo      string    `json:"titulo"`
	Descripcion string    `json:"descripcion"`
	ImagenURL   string    `json:"imagen_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id"`
}

// NewMemoryInput は思い出作成時の入力。
// ID・作成日時・user_idはサーバー側で付与される。
type NewMemoryInput struct {
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
	ImagenURL   string `json:"imagen_url,omitempty"`
}
