package model

import (
	"time"
)

// BaseModel 进度/台账类表只增不删，不携带软删除列，
// 软删除会破坏承载幂等语义的唯一索引。
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
