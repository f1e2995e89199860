package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

// DefectRepository persists defects, their satellite rows and the audit
// trail. Every mutation that carries a history entry runs in one transaction
// so the audit log can never drift from the data it describes.
type DefectRepository struct {
	pool *pgxpool.Pool
}

func NewDefectRepository(pool *pgxpool.Pool) *DefectRepository {
	return &DefectRepository{pool: pool}
}

// selectDefect joins the denormalized display names the list, detail and
// export views need, so callers never fan out per-row lookups.
const selectDefect = `
	SELECT d.id, d.project_id, d.stage_id, d.title, d.description, d.priority, d.status,
	       d.assignee_id, d.due_date, d.created_by, d.created_at, d.updated_at,
	       p.name, COALESCE(s.name, ''), COALESCE(a.username, ''), u.username
	FROM defects d
	JOIN projects p ON p.id = d.project_id
	LEFT JOIN stages s ON s.id = d.stage_id
	LEFT JOIN users a ON a.id = d.assignee_id
	JOIN users u ON u.id = d.created_by`

// sortColumns maps the service-validated sort keys to ORDER BY clauses.
// Priority sorts by severity rank, not alphabetically.
var sortColumns = map[string]string{
	"created_at":  "d.created_at ASC",
	"-created_at": "d.created_at DESC",
	"due_date":    "d.due_date ASC NULLS LAST",
	"-due_date":   "d.due_date DESC NULLS LAST",
	"priority":    priorityRank + " ASC",
	"-priority":   priorityRank + " DESC",
	"status":      "d.status ASC",
	"-status":     "d.status DESC",
}

const priorityRank = `CASE d.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'critical' THEN 4 END`

func scanDefect(row pgx.Row) (*domain.Defect, error) {
	var d domain.Defect
	err := row.Scan(
		&d.ID, &d.ProjectID, &d.StageID, &d.Title, &d.Description, &d.Priority, &d.Status,
		&d.AssigneeID, &d.DueDate, &d.CreatedByID, &d.CreatedAt, &d.UpdatedAt,
		&d.ProjectName, &d.StageName, &d.AssigneeUsername, &d.CreatedByUsername,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, entry *domain.HistoryEntry) error {
	var changes []byte
	if len(entry.Changes) > 0 {
		var err error
		changes, err = json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
	}
	return tx.QueryRow(ctx, `
		INSERT INTO defect_history (defect_id, actor_id, action, from_status, to_status, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		entry.DefectID, entry.ActorID, entry.Action, entry.FromStatus, entry.ToStatus, changes, entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *DefectRepository) Create(ctx context.Context, d *domain.Defect, entry *domain.HistoryEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO defects (project_id, stage_id, title, description, priority, status,
			                     assignee_id, due_date, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			d.ProjectID, d.StageID, d.Title, d.Description, d.Priority, d.Status,
			d.AssigneeID, d.DueDate, d.CreatedByID, d.CreatedAt, d.UpdatedAt,
		).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("insert defect: %w", err)
		}
		entry.DefectID = d.ID
		return insertHistory(ctx, tx, entry)
	})
}

func (r *DefectRepository) GetByID(ctx context.Context, id int64) (*domain.Defect, error) {
	d, err := scanDefect(r.pool.QueryRow(ctx, selectDefect+" WHERE d.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDefectNotFound
		}
		return nil, fmt.Errorf("select defect: %w", err)
	}
	return d, nil
}

func (r *DefectRepository) Update(ctx context.Context, d *domain.Defect, entry *domain.HistoryEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE defects
			SET project_id = $1, stage_id = $2, title = $3, description = $4,
			    priority = $5, assignee_id = $6, due_date = $7, updated_at = $8
			WHERE id = $9`,
			d.ProjectID, d.StageID, d.Title, d.Description,
			d.Priority, d.AssigneeID, d.DueDate, d.UpdatedAt, d.ID)
		if err != nil {
			return fmt.Errorf("update defect: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrDefectNotFound
		}
		if entry == nil {
			return nil
		}
		return insertHistory(ctx, tx, entry)
	})
}

func (r *DefectRepository) UpdateStatus(ctx context.Context, id int64, to domain.DefectStatus, entry *domain.HistoryEntry, comment *domain.Comment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE defects SET status = $1, updated_at = $2 WHERE id = $3`,
			to, entry.CreatedAt, id)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrDefectNotFound
		}
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
		if comment == nil {
			return nil
		}
		return tx.QueryRow(ctx, `
			INSERT INTO defect_comments (defect_id, author_id, body, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			comment.DefectID, comment.AuthorID, comment.Body, comment.CreatedAt,
		).Scan(&comment.ID)
	})
}

func (r *DefectRepository) List(ctx context.Context, f ports.DefectFilter) ([]*domain.Defect, int64, error) {
	where, args := buildFilter(f)

	var total int64
	countQuery := `
		SELECT count(*)
		FROM defects d` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count defects: %w", err)
	}

	orderBy, ok := sortColumns[f.Sort]
	if !ok {
		orderBy = sortColumns["-created_at"]
	}
	query := selectDefect + where + " ORDER BY " + orderBy
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, (f.Page-1)*f.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list defects: %w", err)
	}
	defer rows.Close()

	var defects []*domain.Defect
	for rows.Next() {
		d, err := scanDefect(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan defect: %w", err)
		}
		defects = append(defects, d)
	}
	return defects, total, rows.Err()
}

// buildFilter renders the WHERE clause shared by the count and page queries.
// Only parameter placeholders reach the SQL text; sort keys go through the
// sortColumns map, so no user input is ever spliced in raw.
func buildFilter(f ports.DefectFilter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActorID > 0 {
		p := arg(f.ActorID)
		conds = append(conds, fmt.Sprintf("(d.created_by = %s OR d.assignee_id = %s)", p, p))
	}
	if f.Status != "" {
		conds = append(conds, "d.status = "+arg(f.Status))
	}
	if f.Priority != "" {
		conds = append(conds, "d.priority = "+arg(f.Priority))
	}
	if f.ProjectID > 0 {
		conds = append(conds, "d.project_id = "+arg(f.ProjectID))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(d.title ILIKE %s OR d.description ILIKE %s)", p, p))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *DefectRepository) CountByStatus(ctx context.Context) (map[domain.DefectStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM defects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.DefectStatus]int64)
	for rows.Next() {
		var status domain.DefectStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *DefectRepository) AddComment(ctx context.Context, c *domain.Comment, entry *domain.HistoryEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO defect_comments (defect_id, author_id, body, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			c.DefectID, c.AuthorID, c.Body, c.CreatedAt,
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return insertHistory(ctx, tx, entry)
	})
}

func (r *DefectRepository) AddAttachment(ctx context.Context, a *domain.Attachment, entry *domain.HistoryEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO defect_attachments (defect_id, uploaded_by, file_name, stored_path, size_bytes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			a.DefectID, a.UploadedByID, a.FileName, a.StoredPath, a.SizeBytes, a.CreatedAt,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
		return insertHistory(ctx, tx, entry)
	})
}

func (r *DefectRepository) GetAttachment(ctx context.Context, defectID, attachmentID int64) (*domain.Attachment, error) {
	var a domain.Attachment
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, t.defect_id, t.uploaded_by, u.username, t.file_name, t.stored_path, t.size_bytes, t.created_at
		FROM defect_attachments t
		JOIN users u ON u.id = t.uploaded_by
		WHERE t.defect_id = $1 AND t.id = $2`,
		defectID, attachmentID,
	).Scan(&a.ID, &a.DefectID, &a.UploadedByID, &a.UploaderUsername, &a.FileName, &a.StoredPath, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("select attachment: %w", err)
	}
	return &a, nil
}

// ListComments returns comments oldest-first, the order a discussion reads in.
func (r *DefectRepository) ListComments(ctx context.Context, defectID int64) ([]*domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.defect_id, c.author_id, u.username, c.body, c.created_at
		FROM defect_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.defect_id = $1
		ORDER BY c.created_at ASC, c.id ASC`,
		defectID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.DefectID, &c.AuthorID, &c.AuthorUsername, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *DefectRepository) ListAttachments(ctx context.Context, defectID int64) ([]*domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.defect_id, t.uploaded_by, u.username, t.file_name, t.stored_path, t.size_bytes, t.created_at
		FROM defect_attachments t
		JOIN users u ON u.id = t.uploaded_by
		WHERE t.defect_id = $1
		ORDER BY t.created_at DESC, t.id DESC`,
		defectID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.DefectID, &a.UploadedByID, &a.UploaderUsername, &a.FileName, &a.StoredPath, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, &a)
	}
	return attachments, rows.Err()
}

// ListHistory returns audit entries newest-first.
func (r *DefectRepository) ListHistory(ctx context.Context, defectID int64) ([]*domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.id, h.defect_id, h.actor_id, COALESCE(u.username, ''), h.action,
		       h.from_status, h.to_status, h.changes, h.created_at
		FROM defect_history h
		LEFT JOIN users u ON u.id = h.actor_id
		WHERE h.defect_id = $1
		ORDER BY h.created_at DESC, h.id DESC`,
		defectID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var changes []byte
		if err := rows.Scan(&e.ID, &e.DefectID, &e.ActorID, &e.ActorUsername, &e.Action,
			&e.FromStatus, &e.ToStatus, &changes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal changes: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
