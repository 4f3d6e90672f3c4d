package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/floragems/floragems-backend/pkg/enums"
)

// User represents a storefront account, local or Google-provisioned.
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Email        string             `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	AuthProvider enums.AuthProvider `gorm:"column:auth_provider;type:text;not null;default:'local'"`
	PasswordSet  bool               `gorm:"column:password_set;not null;default:true"`
	Blocked      bool               `gorm:"column:blocked;not null;default:false"`
	Phone        string             `gorm:"column:phone;not null;default:''"`
	Address      string             `gorm:"column:address;not null;default:''"`
	AvatarURL    string             `gorm:"column:avatar_url;not null;default:''"`
	CartItems    []CartItem         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
