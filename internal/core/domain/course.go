package domain

import "time"

// EnrollmentStatus is the lifecycle state of a student's enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment links a student to a course. Read-only from the portal.
type Enrollment struct {
	StudentID  string           `json:"student_id" bson:"student_id"`
	CourseID   string           `json:"course_id" bson:"course_id"`
	EnrolledAt time.Time        `json:"enrolled_at" bson:"enrolled_at"`
	Status     EnrollmentStatus `json:"status" bson:"status"`
}

// MaterialType classifies course material.
type MaterialType string

const (
	MaterialPDF    MaterialType = "pdf"
	MaterialSlides MaterialType = "slides"
	MaterialNotes  MaterialType = "notes"
)

// Material is a downloadable resource attached to a course.
type Material struct {
	ID    string       `json:"id" bson:"id"`
	Title string       `json:"title" bson:"title"`
	Type  MaterialType `json:"type" bson:"type"`
	URL   string       `json:"url" bson:"url"`
}

// Course holds the descriptive fields shown on dashboards.
type Course struct {
	ID           string     `json:"id" bson:"_id"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description" bson:"description"`
	InstructorID string     `json:"instructor_id" bson:"instructor_id"`
	VideoURL     string     `json:"video_url,omitempty" bson:"video_url,omitempty"`
	Materials    []Material `json:"materials,omitempty" bson:"materials,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}
