package models

import (
	"time"
)

// Post is a single diary entry. ImagePath is empty until the user confirms a
// generated image; it then holds the path served under the static directory,
// named {user_id}_{post_id}.png so entries can never collide across users.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ImagePath string    `gorm:"size:200" json:"image_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasImage reports whether a confirmed image is attached to the post.
func (p *Post) HasImage() bool {
	return p.ImagePath != ""
}
