package model

import "time"

const (
	MetricLogins        = "logins"
	MetricRegistrations = "registrations"
	MetricEnrollments   = "enrollments"
	MetricSubmissions   = "submissions"
)

type MetricCount struct {
	Name      string    `json:"name"`
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DashboardStats is the admin dashboard aggregation.
type DashboardStats struct {
	UsersByRole      map[string]int   `json:"users_by_role"`
	UsersByStatus    map[string]int   `json:"users_by_status"`
	TotalCourses     int              `json:"total_courses"`
	ArchivedCourses  int              `json:"archived_courses"`
	TotalEnrollments int              `json:"total_enrollments"`
	TotalSubmissions int              `json:"total_submissions"`
	Metrics          map[string]int64 `json:"metrics"`
}
