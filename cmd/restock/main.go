package main

import (
	"context"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/servicepack/restock-backend/internal/export"
	"github.com/servicepack/restock-backend/internal/ingest"
	"github.com/servicepack/restock-backend/internal/recommend"
	"github.com/servicepack/restock-backend/internal/repository"
	"github.com/servicepack/restock-backend/internal/repository/postgres"
	"github.com/servicepack/restock-backend/internal/service"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newWindowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "recent-window",
			Usage: "Window tag holding the recent sales export",
			Value: "recent-30d",
		},
		&cli.StringFlag{
			Name:  "total-window",
			Usage: "Window tag holding the full-period sales export",
			Value: "full-period",
		},
	}
}

func newDBService(c *cli.Context) (*service.RestockService, error) {
	db, err := postgres.NewDBFromURL("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(c.Context); err != nil {
		return nil, err
	}
	store := postgres.NewStore(db)
	return service.NewRestockService(store, c.String("recent-window"), c.String("total-window")), nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "restock",
		Usage: "Import catalogs and stock movements, compute reorder recommendations",
		Commands: []*cli.Command{
			{
				Name:  "import-catalog",
				Usage: "Import a product catalog spreadsheet into the database",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Catalog file (.xlsx or .csv)",
						Required: true,
					},
				}, newWindowFlags()...),
				Action: runImportCatalog,
			},
			{
				Name:  "import-movements",
				Usage: "Import one window's stock movement export into the database",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Movement export (.xlsx or .csv)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "window",
						Usage:    "Window tag for this export (e.g. recent-30d)",
						Required: true,
					},
				}, newWindowFlags()...),
				Action: runImportMovements,
			},
			{
				Name:  "recommend",
				Usage: "One-shot run: read catalog and movement files, write the recommendation XLSX",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "catalog",
						Usage:    "Catalog file (.xlsx or .csv)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "recent",
						Usage:    "Recent-window movement export",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "full",
						Usage:    "Full-period movement export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output XLSX path",
						Value: "recomandari.xlsx",
					},
					&cli.Float64Flag{
						Name:  "coef-recent",
						Usage: "Weight applied to recent sales",
						Value: 1.5,
					},
					&cli.Float64Flag{
						Name:  "coef-total",
						Usage: "Weight applied to full-period sales",
						Value: 0.2,
					},
				}, newWindowFlags()...),
				Action: runRecommend,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runImportCatalog(c *cli.Context) error {
	svc, err := newDBService(c)
	if err != nil {
		return err
	}

	rows, err := ingest.ReadTableFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.String("file"), err)
	}

	result, err := svc.ImportCatalog(c.Context, rows)
	if err != nil {
		return fmt.Errorf("catalog import failed: %w", err)
	}

	log.Printf("Imported %d products (%d rows skipped)", result.RowsImported, result.RowsSkipped)
	return nil
}

func runImportMovements(c *cli.Context) error {
	svc, err := newDBService(c)
	if err != nil {
		return err
	}

	rows, err := ingest.ReadTableFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.String("file"), err)
	}

	result, err := svc.ImportMovements(c.Context, rows, c.String("window"))
	if err != nil {
		return fmt.Errorf("movement import failed: %w", err)
	}

	log.Printf("Imported %d consolidated movements into window %s", result.RowsImported, result.WindowTag)
	if len(result.NewCodes) > 0 {
		log.Printf("%d movement codes are not in the catalog yet", len(result.NewCodes))
	}
	if len(result.ConflictCodes) > 0 {
		log.Printf("Closing stock conflicts on codes: %v", result.ConflictCodes)
	}
	return nil
}

// runRecommend is the offline path: everything happens in memory, nothing
// is persisted, and the report lands in a local XLSX.
func runRecommend(c *cli.Context) error {
	store := repository.NewMemoryStore()
	svc := service.NewRestockService(store, c.String("recent-window"), c.String("total-window"))
	ctx := context.Background()

	catalogRows, err := ingest.ReadTableFile(c.String("catalog"))
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if _, err := svc.ImportCatalog(ctx, catalogRows); err != nil {
		return fmt.Errorf("catalog import failed: %w", err)
	}

	for _, src := range []struct{ flag, window string }{
		{"recent", c.String("recent-window")},
		{"full", c.String("total-window")},
	} {
		rows, err := ingest.ReadTableFile(c.String(src.flag))
		if err != nil {
			return fmt.Errorf("failed to read %s movements: %w", src.flag, err)
		}
		if _, err := svc.ImportMovements(ctx, rows, src.window); err != nil {
			return fmt.Errorf("%s movement import failed: %w", src.flag, err)
		}
	}

	coef := recommend.Coefficients{
		Recent: c.Float64("coef-recent"),
		Total:  c.Float64("coef-total"),
	}
	recs, err := svc.Recommend(ctx, coef)
	if err != nil {
		return fmt.Errorf("recommendation run failed: %w", err)
	}

	outPath := c.String("out")
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := export.WriteXLSX(f, recs); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	log.Printf("Wrote %d recommendations to %s", len(recs), outPath)
	return nil
}
