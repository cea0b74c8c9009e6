package model

import "time"

type Enrollment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	Role      string    `json:"role"` // student or instructor within the course
	CreatedAt time.Time `json:"created_at"`

	UserName    *string `json:"user_name,omitempty"`    // For display
	UserEmail   *string `json:"user_email,omitempty"`   // For display
	CourseTitle *string `json:"course_title,omitempty"` // For display
	CourseSlug  *string `json:"course_slug,omitempty"`  // For display
}
