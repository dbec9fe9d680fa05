package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a studio customer record.
type Client struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID  uuid.UUID  `gorm:"column:studio_id;type:uuid;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	Phone     string     `gorm:"column:phone;not null"`
	Email     *string    `gorm:"column:email"`
	BirthDate *time.Time `gorm:"column:birth_date;type:date"`
	Instagram *string    `gorm:"column:instagram"`
	Notes     *string    `gorm:"column:notes"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Client) TableName() string {
	return "clients"
}
