package models

import "time"

// Profile holds the per-student details shown in the admin user list.
// Profiles are keyed by the 10 digit phone number.
type Profile struct {
	Phone        string    `bson:"_id" json:"phone"`
	UID          string    `bson:"uid" json:"uid"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	NameCI       string    `bson:"name_ci" json:"-"` // folded for search
	CourseName   string    `bson:"course_name" json:"courseName"`
	CourseNameCI string    `bson:"course_name_ci" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}
