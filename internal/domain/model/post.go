package model

import "time"

type Post struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FileURL   *string   `json:"file_url,omitempty"`
	LinkURL   *string   `json:"link_url,omitempty"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorName *string `json:"author_name,omitempty"` // For display
}
