package models

import "time"

// DefaultBlogCategory is used when a post is submitted with a blank category.
const DefaultBlogCategory = "General"

// BlogPost represents a blog article with its publication state
type BlogPost struct {
	ID        int64     `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" db:"title" gorm:"type:text;not null"`
	Content   string    `json:"content" db:"content" gorm:"type:text;not null"`
	Excerpt   string    `json:"excerpt" db:"excerpt" gorm:"type:text;not null"`
	ImageURL  *string   `json:"imageUrl" db:"image_url" gorm:"column:image_url;type:text"`
	Category  string    `json:"category" db:"category" gorm:"type:text;not null"`
	Published bool      `json:"published" db:"published" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

func (BlogPost) TableName() string { return "blog_posts" }

// BlogPostPatch carries a partial update. Nil fields keep their stored value.
type BlogPostPatch struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Excerpt   *string `json:"excerpt,omitempty"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	Category  *string `json:"category,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

// Apply merges the patch onto post.
func (p BlogPostPatch) Apply(post *BlogPost) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Excerpt != nil {
		post.Excerpt = *p.Excerpt
	}
	if p.ImageURL != nil {
		// an empty url clears the image
		if *p.ImageURL == "" {
			post.ImageURL = nil
		} else {
			url := *p.ImageURL
			post.ImageURL = &url
		}
	}
	if p.Category != nil {
		post.Category = *p.Category
	}
	if p.Published != nil {
		post.Published = *p.Published
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p BlogPostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		p.ImageURL == nil && p.Category == nil && p.Published == nil
}
