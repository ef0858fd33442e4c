package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/apperr"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, platform, external_user_id, name, phone, email,
	budget_range, timeline, preferred_type, preferred_size, payment_plan,
	interested_projects, status, notes, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MergeOutcome reports what one extraction pass did to the stored lead.
type MergeOutcome struct {
	Lead    Lead
	Created bool
	// PriorStatus is empty when the lead was created by this pass.
	PriorStatus Status
	// WentHot marks the edge into hot; only this edge triggers a
	// notification, never a re-classification that stays hot.
	WentHot bool
}

// ApplyExtraction merges one extraction into the lead for (platform,
// externalUserID) inside a single transaction. The row is locked for the
// read-modify-write so concurrent deliveries for the same customer cannot
// lose updates. A nil outcome with nil error means the extraction was held:
// no lead exists yet and the extraction lacks name+phone.
func (r *Repository) ApplyExtraction(ctx context.Context, platform messaging.Platform, externalUserID string, partial Extraction, auto Status) (*MergeOutcome, error) {
	const op = "lead.Repository.ApplyExtraction"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to begin lead merge transaction", err).WithOp(op)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE platform = $1 AND external_user_id = $2
		FOR UPDATE`,
		platform, externalUserID,
	)
	existing, err := scanLead(row)

	var outcome MergeOutcome
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if !partial.Ready() {
			return nil, nil // held until name and phone are both known
		}
		created, err := insertLead(ctx, tx, platform, externalUserID, partial, auto)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to create lead", err).WithOp(op)
		}
		outcome = MergeOutcome{
			Lead:    created,
			Created: true,
			WentHot: wentHot("", created.Status),
		}

	case err != nil:
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead for merge", err).WithOp(op)

	default:
		prior := existing.Status
		changed := mergeInto(&existing, partial)
		if applyAutoStatus(&existing, auto) {
			changed = true
		}
		if changed {
			if err := updateLead(ctx, tx, &existing); err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "failed to update lead", err).WithOp(op)
			}
		}
		outcome = MergeOutcome{
			Lead:        existing,
			PriorStatus: prior,
			WentHot:     wentHot(prior, existing.Status),
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to commit lead merge", err).WithOp(op)
	}
	return &outcome, nil
}

func insertLead(ctx context.Context, tx pgx.Tx, platform messaging.Platform, externalUserID string, partial Extraction, auto Status) (Lead, error) {
	projects := partial.InterestedProjects
	if projects == nil {
		projects = []string{}
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO leads (
			platform, external_user_id, name, phone, email, budget_range,
			timeline, preferred_type, preferred_size, payment_plan,
			interested_projects, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+leadColumns,
		platform, externalUserID, deref(partial.Name), deref(partial.Phone),
		partial.Email, partial.BudgetRange, partial.Timeline,
		partial.PreferredType, partial.PreferredSize, partial.PaymentPlan,
		projects, auto,
	)
	return scanLead(row)
}

func updateLead(ctx context.Context, tx pgx.Tx, lead *Lead) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads SET
			name = $1, phone = $2, email = $3, budget_range = $4,
			timeline = $5, preferred_type = $6, preferred_size = $7,
			payment_plan = $8, interested_projects = $9, status = $10,
			updated_at = now()
		WHERE id = $11`,
		lead.Name, lead.Phone, lead.Email, lead.BudgetRange, lead.Timeline,
		lead.PreferredType, lead.PreferredSize, lead.PaymentPlan,
		lead.InterestedProjects, lead.Status, lead.ID,
	)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	const op = "lead.Repository.GetByID"

	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(op)
	}
	return lead, nil
}

func (r *Repository) GetByUser(ctx context.Context, platform messaging.Platform, externalUserID string) (Lead, error) {
	const op = "lead.Repository.GetByUser"

	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE platform = $1 AND external_user_id = $2`,
		platform, externalUserID,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(op)
	}
	return lead, nil
}

// ListParams filter and page the dashboard lead listing.
type ListParams struct {
	Status      Status
	Platform    messaging.Platform
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	const op = "lead.Repository.List"

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if params.Status != "" {
		args = append(args, params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Platform != "" {
		args = append(args, params.Platform)
		where = append(where, fmt.Sprintf("platform = $%d", len(args)))
	}
	if params.CreatedFrom != nil {
		args = append(args, *params.CreatedFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.CreatedTo != nil {
		args = append(args, *params.CreatedTo)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM leads"+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to count leads", err).WithOp(op)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(
		"SELECT "+leadColumns+" FROM leads%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		clause, len(args)-1, len(args),
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp(op)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to scan lead", err).WithOp(op)
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to iterate leads", rows.Err()).WithOp(op)
	}
	return leads, total, nil
}

// UpdateParams is the operator patch from the admin surface. Nil fields are
// left untouched. This is the only path allowed to write notes or to set the
// terminal statuses.
type UpdateParams struct {
	Name        *string
	Phone       *string
	Email       *string
	BudgetRange *string
	Timeline    *string
	Status      *Status
	Notes       *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Lead, error) {
	const op = "lead.Repository.Update"

	set := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Phone != nil {
		add("phone", *params.Phone)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.BudgetRange != nil {
		add("budget_range", *params.BudgetRange)
	}
	if params.Timeline != nil {
		add("timeline", *params.Timeline)
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.Notes != nil {
		add("notes", *params.Notes)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	set = append(set, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE id = $%d RETURNING "+leadColumns,
		strings.Join(set, ", "), len(args),
	)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead", err).WithOp(op)
	}
	return lead, nil
}

// CountByStatus powers the dashboard tier breakdown.
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	const op = "lead.Repository.CountByStatus"

	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to count leads by status", err).WithOp(op)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan lead counts", err).WithOp(op)
		}
		counts[status] = n
	}
	if rows.Err() != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to iterate lead counts", rows.Err()).WithOp(op)
	}
	return counts, nil
}

// ProjectCount is one row of the top-projects dashboard breakdown.
type ProjectCount struct {
	Project string
	Count   int
}

// Stats are the dashboard aggregates over the lead table.
type Stats struct {
	Total       int
	Today       int
	ThisWeek    int
	ThisMonth   int
	ByPlatform  map[messaging.Platform]int
	TopProjects []ProjectCount
	Recent      []Lead
}

const recentLeadsLimit = 5

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	const op = "lead.Repository.Stats"

	stats := Stats{ByPlatform: make(map[messaging.Platform]int)}

	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE created_at >= date_trunc('day', now())),
			count(*) FILTER (WHERE created_at >= date_trunc('week', now())),
			count(*) FILTER (WHERE created_at >= date_trunc('month', now()))
		FROM leads`,
	).Scan(&stats.Total, &stats.Today, &stats.ThisWeek, &stats.ThisMonth)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to load lead totals", err).WithOp(op)
	}

	rows, err := r.pool.Query(ctx, `SELECT platform, count(*) FROM leads GROUP BY platform`)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to count leads by platform", err).WithOp(op)
	}
	defer rows.Close()
	for rows.Next() {
		var platform messaging.Platform
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to scan platform counts", err).WithOp(op)
		}
		stats.ByPlatform[platform] = n
	}
	if rows.Err() != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to iterate platform counts", rows.Err()).WithOp(op)
	}

	projectRows, err := r.pool.Query(ctx, `
		SELECT project, count(*)
		FROM leads, jsonb_array_elements_text(interested_projects) AS project
		GROUP BY project
		ORDER BY count(*) DESC, project
		LIMIT 5`,
	)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to rank interested projects", err).WithOp(op)
	}
	defer projectRows.Close()
	for projectRows.Next() {
		var pc ProjectCount
		if err := projectRows.Scan(&pc.Project, &pc.Count); err != nil {
			return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to scan project counts", err).WithOp(op)
		}
		stats.TopProjects = append(stats.TopProjects, pc)
	}
	if projectRows.Err() != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to iterate project counts", projectRows.Err()).WithOp(op)
	}

	recentRows, err := r.pool.Query(ctx,
		"SELECT "+leadColumns+" FROM leads ORDER BY created_at DESC LIMIT $1",
		recentLeadsLimit,
	)
	if err != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to load recent leads", err).WithOp(op)
	}
	defer recentRows.Close()
	for recentRows.Next() {
		lead, err := scanLead(recentRows)
		if err != nil {
			return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to scan recent lead", err).WithOp(op)
		}
		stats.Recent = append(stats.Recent, lead)
	}
	if recentRows.Err() != nil {
		return Stats{}, apperr.Wrap(apperr.KindInternal, "failed to iterate recent leads", recentRows.Err()).WithOp(op)
	}

	return stats, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Platform, &lead.ExternalUserID, &lead.Name,
		&lead.Phone, &lead.Email, &lead.BudgetRange, &lead.Timeline,
		&lead.PreferredType, &lead.PreferredSize, &lead.PaymentPlan,
		&lead.InterestedProjects, &lead.Status, &lead.Notes,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}
