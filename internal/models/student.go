package models

import "time"

// Student is the academic profile tracked for attendance. It is paired 1:1
// with a User by email for authentication, but owned independently.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	Department   string    `db:"department" json:"department"`
	Course       string    `db:"course" json:"course"`
	AcademicYear int       `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter scopes student listing queries.
type StudentFilter struct {
	Department string
	Course     string
	Semester   int
	Active     *bool
	Search     string
	Page       int
	PageSize   int
}
