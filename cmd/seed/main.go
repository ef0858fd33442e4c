package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AliMahmood99/real-estate-chatbot/migrations"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/db"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

type seedFile struct {
	CompanyName string        `json:"company_name"`
	Projects    []seedProject `json:"projects"`
}

type seedProject struct {
	Name           string     `json:"name"`
	Developer      string     `json:"developer"`
	Location       string     `json:"location"`
	Area           string     `json:"area"`
	Description    *string    `json:"description"`
	Amenities      []string   `json:"amenities"`
	DeliveryStatus *string    `json:"delivery_status"`
	PaymentPlans   []string   `json:"payment_plans"`
	Units          []seedUnit `json:"units"`
}

type seedUnit struct {
	Type      string   `json:"type"`
	SizeFrom  *float64 `json:"size_from"`
	SizeTo    *float64 `json:"size_to"`
	PriceFrom *float64 `json:"price_from"`
	PriceTo   *float64 `json:"price_to"`
	Floors    *string  `json:"floors"`
	Views     []string `json:"views"`
}

func main() {
	path := flag.String("file", "data/properties.json", "path to the properties JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting property seeder", "file", *path)

	ctx := context.Background()

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Error("failed to read properties file", "error", err)
		panic("failed to read properties file: " + err.Error())
	}

	var file seedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		log.Error("failed to parse properties file", "error", err)
		panic("failed to parse properties file: " + err.Error())
	}

	log.Info("seeding catalog", "company", file.CompanyName, "projects", len(file.Projects))

	if err := seed(ctx, pool, file); err != nil {
		log.Error("failed to seed properties", "error", err)
		panic("failed to seed properties: " + err.Error())
	}

	log.Info("catalog seeded", "projects", len(file.Projects))
}

// seed upserts projects by name and replaces their units, so re-running
// against an already-seeded database converges instead of failing on the
// unique name constraint.
func seed(ctx context.Context, pool *pgxpool.Pool, file seedFile) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, project := range file.Projects {
		if err := seedProjectRow(ctx, tx, project); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedProjectRow(ctx context.Context, tx pgx.Tx, project seedProject) error {
	amenities := project.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	var projectID string
	err := tx.QueryRow(ctx, `
		INSERT INTO projects (name, developer, location, area, description, amenities, delivery_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			developer = EXCLUDED.developer,
			location = EXCLUDED.location,
			area = EXCLUDED.area,
			description = EXCLUDED.description,
			amenities = EXCLUDED.amenities,
			delivery_status = EXCLUDED.delivery_status
		RETURNING id`,
		project.Name, project.Developer, project.Location, project.Area,
		project.Description, amenities, project.DeliveryStatus,
	).Scan(&projectID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM units WHERE project_id = $1`, projectID); err != nil {
		return err
	}

	for _, unit := range project.Units {
		views := unit.Views
		if views == nil {
			views = []string{}
		}
		// Payment plans are declared per project in the source file but
		// stored per unit, matching how the grounding text renders them.
		plans := project.PaymentPlans
		if plans == nil {
			plans = []string{}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO units (
				project_id, unit_type, size_from, size_to, price_from,
				price_to, floor_options, views, payment_plans, availability_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'available')`,
			projectID, unit.Type, unit.SizeFrom, unit.SizeTo,
			unit.PriceFrom, unit.PriceTo, unit.Floors, views, plans,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
