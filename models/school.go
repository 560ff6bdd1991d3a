package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// School is a full row of the schools table.
type School struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	City      string         `json:"city"`
	State     string         `json:"state"`
	Contact   int64          `json:"contact"`
	EmailID   string         `json:"email_id"`
	Image     sql.NullString `json:"image"`
	CreatedAt time.Time      `json:"created_at"`
}

// SchoolSummary is the reduced projection returned by the listing endpoint.
type SchoolSummary struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Address string         `json:"address"`
	City    string         `json:"city"`
	Image   sql.NullString `json:"-"`
}

// MarshalJSON writes image as a string, or null when no image was uploaded.
func (s SchoolSummary) MarshalJSON() ([]byte, error) {
	var image *string
	if s.Image.Valid {
		image = &s.Image.String
	}
	return json.Marshal(struct {
		ID      int64   `json:"id"`
		Name    string  `json:"name"`
		Address string  `json:"address"`
		City    string  `json:"city"`
		Image   *string `json:"image"`
	}{s.ID, s.Name, s.Address, s.City, image})
}

// SchoolForm holds the text fields of a submission after trimming.
type SchoolForm struct {
	Name    string `form:"name" validate:"required"`
	Address string `form:"address" validate:"required"`
	City    string `form:"city" validate:"required"`
	State   string `form:"state" validate:"required"`
	Contact string `form:"contact" validate:"required,contact"`
	EmailID string `form:"email_id" validate:"required,email"`
}

// CreatedResponse is the body of a successful creation.
type CreatedResponse struct {
	Message  string `json:"message"`
	SchoolID int64  `json:"schoolId"`
}

// Error is the JSON body of every error response.
type Error struct {
	Message string `json:"message"`
}
