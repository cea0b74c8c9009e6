package model

import "time"

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Capacity    *int      `json:"capacity,omitempty"` // nil means unlimited
	IsArchived  bool      `json:"is_archived"`
	CreatedByID *string   `json:"created_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	CreatedByName *string `json:"created_by_name,omitempty"` // For display
	EnrolledCount int     `json:"enrolled_count"`
}
