package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(120);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(140);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Post is a blog article. Content is markdown; ContentHTML is rendered on write.
type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string         `gorm:"type:varchar(280);uniqueIndex;not null" json:"slug"`
	Summary     string         `gorm:"type:text" json:"summary"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	ContentHTML string         `gorm:"column:content_html;type:text" json:"content_html"`
	CoverURL    string         `gorm:"type:text" json:"cover_url"`
	CategoryID  *uuid.UUID     `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category      `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;" json:"category,omitempty"`
	Published   bool           `gorm:"not null;default:false;index" json:"published"`
	PublishedAt *time.Time     `json:"published_at"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
