package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray 用于 JSON 数组字段
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// RepoList 可复用的目标仓库清单，提交变体分析时引用
type RepoList struct {
	ID        int64       `gorm:"primaryKey" json:"id"`
	UserID    int64       `gorm:"not null;index" json:"user_id"`
	Name      string      `gorm:"size:200;not null" json:"name"`
	Repos     StringArray `gorm:"type:json" json:"repos"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (RepoList) TableName() string {
	return "repo_lists"
}
