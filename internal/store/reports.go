package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitereports/internal/models"
)

func (s *Store) CreateReport(ctx context.Context, userID, site, note string) (models.Report, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return models.Report{}, ErrMissingField
	}
	owner := userID
	r := models.Report{
		ID:        uuid.NewString(),
		UserID:    &owner,
		Site:      site,
		Status:    models.DefaultReportStatus,
		CreatedAt: time.Now().UTC(),
	}
	if note = strings.TrimSpace(note); note != "" {
		r.Note = &note
	}
	_, err := s.exec(ctx,
		`INSERT INTO reports(id,user_id,site,note,status,created_at) VALUES(?,?,?,?,?,?)`,
		r.ID, owner, r.Site, r.Note, r.Status, r.CreatedAt,
	)
	if err != nil {
		return models.Report{}, err
	}
	return r, nil
}

func (s *Store) ListReportsByUser(ctx context.Context, userID string) ([]models.Report, error) {
	rows, err := s.query(ctx,
		`SELECT id,user_id,site,note,status,created_at FROM reports WHERE user_id=? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Report{}
	for rows.Next() {
		var r models.Report
		var owner, note sql.NullString
		if err := rows.Scan(&r.ID, &owner, &r.Site, &note, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.UserID = nullStringPtr(owner)
		r.Note = nullStringPtr(note)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAllReports keeps reports whose owner no longer exists; their
// Reporter is nil.
func (s *Store) ListAllReports(ctx context.Context) ([]models.ReportWithReporter, error) {
	rows, err := s.query(ctx,
		`SELECT r.id,r.user_id,r.site,r.note,r.status,r.created_at,u.name
		 FROM reports r LEFT JOIN users u ON u.id = r.user_id
		 ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ReportWithReporter{}
	for rows.Next() {
		var r models.ReportWithReporter
		var owner, note, reporter sql.NullString
		if err := rows.Scan(&r.ID, &owner, &r.Site, &note, &r.Status, &r.CreatedAt, &reporter); err != nil {
			return nil, err
		}
		r.UserID = nullStringPtr(owner)
		r.Note = nullStringPtr(note)
		r.Reporter = nullStringPtr(reporter)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateReportStatus stores any non-empty status verbatim; an empty status
// puts the report back to Pending.
func (s *Store) UpdateReportStatus(ctx context.Context, id, status string) error {
	if strings.TrimSpace(status) == "" {
		status = models.DefaultReportStatus
	}
	res, err := s.exec(ctx, `UPDATE reports SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReport succeeds whether or not the report exists.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	_, err := s.exec(ctx, `DELETE FROM reports WHERE id=?`, id)
	return err
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	sv := v.String
	return &sv
}
