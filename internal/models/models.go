package models

import "time"

const DefaultReportStatus = "Pending"

type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Report.UserID is nil once the owning user row is gone.
type Report struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id"`
	Site      string    `json:"site"`
	Note      *string   `json:"note"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportWithReporter struct {
	Report
	Reporter *string `json:"reporter"`
}
