package model

import "time"

type User struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Email       string `gorm:"uniqueIndex;not null"`
	IsSuperuser bool   `gorm:"not null;default:false"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
