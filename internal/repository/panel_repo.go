package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
)

// PanelRepository provides data access for panel records.
type PanelRepository struct {
	db *sql.DB
}

// NewPanelRepository creates a new PanelRepository.
func NewPanelRepository(db *sql.DB) *PanelRepository {
	return &PanelRepository{db: db}
}

// Create inserts a new panel record.
func (r *PanelRepository) Create(ctx context.Context, panel *model.Panel) error {
	query := `
		INSERT INTO panels (id, target_url, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		panel.ID,
		panel.TargetURL,
		panel.Title,
		panel.Status,
		panel.CreatedAt,
		panel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}

	return nil
}

// GetByID retrieves a panel record by its ID.
func (r *PanelRepository) GetByID(ctx context.Context, id string) (*model.Panel, error) {
	query := `
		SELECT id, target_url, title, status, dispose_reason, created_at, updated_at, disposed_at
		FROM panels
		WHERE id = ?
	`

	panel := &model.Panel{}
	var title sql.NullString
	var disposeReason sql.NullString
	var disposedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&panel.ID,
		&panel.TargetURL,
		&title,
		&panel.Status,
		&disposeReason,
		&panel.CreatedAt,
		&panel.UpdatedAt,
		&disposedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrPanelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}

	if title.Valid {
		panel.Title = title.String
	}

	if disposeReason.Valid {
		panel.DisposeReason = disposeReason.String
	}

	if disposedAt.Valid {
		t := disposedAt.Time
		panel.DisposedAt = &t
	}

	return panel, nil
}

// List retrieves all panel records, newest first.
func (r *PanelRepository) List(ctx context.Context) ([]*model.Panel, error) {
	query := `
		SELECT id, target_url, title, status, dispose_reason, created_at, updated_at, disposed_at
		FROM panels
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	defer rows.Close()

	var panels []*model.Panel
	for rows.Next() {
		panel := &model.Panel{}
		var title sql.NullString
		var disposeReason sql.NullString
		var disposedAt sql.NullTime

		err := rows.Scan(
			&panel.ID,
			&panel.TargetURL,
			&title,
			&panel.Status,
			&disposeReason,
			&panel.CreatedAt,
			&panel.UpdatedAt,
			&disposedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan panel: %w", err)
		}

		if title.Valid {
			panel.Title = title.String
		}

		if disposeReason.Valid {
			panel.DisposeReason = disposeReason.String
		}

		if disposedAt.Valid {
			t := disposedAt.Time
			panel.DisposedAt = &t
		}

		panels = append(panels, panel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating panels: %w", err)
	}

	return panels, nil
}

// MarkDisposed transitions a panel record to the disposed state.
func (r *PanelRepository) MarkDisposed(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE panels
		SET status = ?, dispose_reason = ?, disposed_at = ?, updated_at = ?
		WHERE id = ?
	`

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, model.PanelStatusDisposed, reason, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark panel disposed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrPanelNotFound
	}

	return nil
}

// Delete removes a panel record.
func (r *PanelRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM panels WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete panel: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrPanelNotFound
	}

	return nil
}

// CountActive returns the number of active panel records.
func (r *PanelRepository) CountActive(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM panels
		WHERE status = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, model.PanelStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active panels: %w", err)
	}

	return count, nil
}
