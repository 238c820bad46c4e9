package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is the aggregate root: the row carries the whole discussion thread
// as an embedded JSON document, so one read or write always covers the post
// together with its comments and replies.
type Post struct {
	ID          uint                         `gorm:"primaryKey" json:"id"`
	Title       string                       `gorm:"size:100;not null" json:"title"`
	Content     string                       `gorm:"type:text;not null" json:"content"`
	Image       string                       `gorm:"size:255;not null" json:"image"`
	Slug        string                       `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Excerpt     string                       `gorm:"size:200" json:"excerpt,omitempty"`
	AuthorID    *uint                        `gorm:"index" json:"author_id,omitempty"`
	Author      *User                        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"author,omitempty"`
	CategoryID  uint                         `gorm:"index;not null" json:"category_id"`
	Category    Category                     `gorm:"constraint:OnUpdate:CASCADE;" json:"category"`
	Tags        datatypes.JSONSlice[string]  `json:"tags"`
	IsPublished bool                         `gorm:"default:false" json:"is_published"`
	ViewCount   uint                         `gorm:"default:0" json:"view_count"`
	Comments    datatypes.JSONSlice[Comment] `json:"comments"`
	// Version guards the whole-document write: a save only lands when the
	// stored row still carries the version the aggregate was loaded with.
	Version   uint      `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is an owned child of exactly one Post. Username is a snapshot of
// the author's display name at creation time and is never re-synced.
type Comment struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Replies   []Reply   `json:"replies"`
}

// Reply has the same shape as Comment minus nested children.
type Reply struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LatestComment returns the tail of the comment sequence, or nil when the
// post has none. Insertion order is chronological, so the tail is always
// the most recent.
func (p *Post) LatestComment() *Comment {
	if len(p.Comments) == 0 {
		return nil
	}
	return &p.Comments[len(p.Comments)-1]
}
