package repository

import (
	"context"
	"database/sql"

	"school-directory/models"
)

// SchoolRepository reads and writes the schools table through a shared pool.
type SchoolRepository struct {
	db *sql.DB
}

func NewSchoolRepository(db *sql.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

const insertSchool = `INSERT INTO schools (name, address, city, state, contact, image, email_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// Insert stores school and returns the id assigned by the database.
// ID and CreatedAt on the argument are ignored.
func (r *SchoolRepository) Insert(ctx context.Context, school models.School) (int64, error) {
	result, err := r.db.ExecContext(ctx, insertSchool,
		school.Name,
		school.Address,
		school.City,
		school.State,
		school.Contact,
		school.Image,
		school.EmailID,
	)
	if err != nil {
		return 0, &models.StorageError{Op: "insert school", Err: err}
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, &models.StorageError{Op: "read inserted id", Err: err}
	}
	return id, nil
}

const listRecentSchools = `SELECT id, name, address, city, image FROM schools
	ORDER BY created_at DESC, id DESC`

// ListRecent returns every school, newest first. An empty table yields an
// empty, non-nil slice.
func (r *SchoolRepository) ListRecent(ctx context.Context) ([]models.SchoolSummary, error) {
	rows, err := r.db.QueryContext(ctx, listRecentSchools)
	if err != nil {
		return nil, &models.StorageError{Op: "list schools", Err: err}
	}
	defer rows.Close()

	schools := make([]models.SchoolSummary, 0)
	for rows.Next() {
		var s models.SchoolSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.Image); err != nil {
			return nil, &models.StorageError{Op: "scan school", Err: err}
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list schools", Err: err}
	}
	return schools, nil
}
