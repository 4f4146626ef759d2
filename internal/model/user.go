package model

import (
	"time"
)

type UserRole string

const (
	Staff UserRole = "staff"
	Admin UserRole = "admin"
)

// User 后台账号（管理员/工作人员）
// swagger:model User
type User struct {
	BaseModel
	Username  string     `gorm:"size:100;uniqueIndex:idx_user_username;not null" json:"username"`
	Email     string     `gorm:"size:100" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;not null" json:"role"`
	IsActive  bool       `gorm:"not null" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
