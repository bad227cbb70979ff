package users

import "time"

// User is the canonical account record. Identity fields are immutable from the
// point of view of other packages; profile fields change through Update only.
type User struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null"`
	Username     string    `gorm:"column:username;size:190;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:190;not null"`
	Bio          string    `gorm:"column:bio;type:text;not null;default:''"`
	ImageURL     string    `gorm:"column:image_url;size:512;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}
