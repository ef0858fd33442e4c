package knowledge

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AliMahmood99/real-estate-chatbot/platform/apperr"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadCatalog reads every project with its units. The catalog is small by
// construction (a sales portfolio, not an inventory system), so loading it
// whole is the right trade.
func (r *Repository) LoadCatalog(ctx context.Context) ([]Project, error) {
	const op = "knowledge.Repository.LoadCatalog"

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, developer, location, area, description, amenities, delivery_status
		FROM projects
		ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load projects", err).WithOp(op)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Developer, &p.Location, &p.Area,
			&p.Description, &p.Amenities, &p.DeliveryStatus); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan project", err).WithOp(op)
		}
		byID[p.ID] = len(projects)
		projects = append(projects, p)
	}
	if rows.Err() != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to iterate projects", rows.Err()).WithOp(op)
	}

	unitRows, err := r.pool.Query(ctx, `
		SELECT id, project_id, unit_type, size_from, size_to, price_from, price_to,
			floor_options, views, payment_plans, availability_status
		FROM units
		ORDER BY project_id, unit_type`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load units", err).WithOp(op)
	}
	defer unitRows.Close()

	for unitRows.Next() {
		var u Unit
		if err := unitRows.Scan(&u.ID, &u.ProjectID, &u.UnitType, &u.SizeFrom,
			&u.SizeTo, &u.PriceFrom, &u.PriceTo, &u.FloorOptions, &u.Views,
			&u.PaymentPlans, &u.AvailabilityStatus); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan unit", err).WithOp(op)
		}
		if idx, ok := byID[u.ProjectID]; ok {
			projects[idx].Units = append(projects[idx].Units, u)
		}
	}
	if unitRows.Err() != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to iterate units", unitRows.Err()).WithOp(op)
	}

	return projects, nil
}
