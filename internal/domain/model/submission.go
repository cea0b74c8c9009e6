package model

import "time"

type Submission struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	UserID      string    `json:"user_id"`
	FileURL     string    `json:"file_url"`
	Comment     *string   `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	UserName  *string `json:"user_name,omitempty"`  // For display
	PostTitle *string `json:"post_title,omitempty"` // For display
}
