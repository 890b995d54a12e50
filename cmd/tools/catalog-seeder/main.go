// cmd/tools/catalog-seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"program-matching/internal/catalog"
	"program-matching/internal/common/config"
	"program-matching/internal/common/database"
	"program-matching/internal/models"
	"program-matching/internal/repository"
	"program-matching/pkg/catalogfile"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	loadCmd := flag.NewFlagSet("load", flag.ExitOnError)
	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)

	validatePath := validateCmd.String("path", "configs/catalog.json", "Path to catalog file")
	loadPath := loadCmd.String("path", "configs/catalog.json", "Path to catalog file")
	migrate := loadCmd.Bool("migrate", true, "Apply schema migrations before loading")
	indexPath := indexCmd.String("path", "configs/catalog.json", "Path to catalog file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = validateCatalog(*validatePath)
	case "load":
		loadCmd.Parse(os.Args[2:])
		err = loadCatalog(ctx, *loadPath, *migrate)
	case "index":
		indexCmd.Parse(os.Args[2:])
		err = indexCatalog(ctx, *indexPath)
	case "help":
		help()
		return
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func validateCatalog(path string) error {
	f, err := catalogfile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	fmt.Printf("Catalog validation passed: %d institutions, %d programs.\n", len(f.Institutions), len(f.Programs))
	return nil
}

func loadCatalog(ctx context.Context, path string, migrate bool) error {
	institutions, programs, err := resolve(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	if migrate {
		if err := repository.RunMigrations(ctx, pg.DB); err != nil {
			return err
		}
	}
	if err := repository.NewProgramRepository(pg.DB).UpsertCatalog(ctx, institutions, programs); err != nil {
		return err
	}
	fmt.Printf("Loaded %d institutions and %d programs into postgres.\n", len(institutions), len(programs))
	return nil
}

func indexCatalog(ctx context.Context, path string) error {
	_, programs, err := resolve(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}

	indexer := catalog.NewIndexer(es.Client, cfg.Matching.CatalogIndex)
	created, err := indexer.EnsureIndex(ctx)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created index %s.\n", cfg.Matching.CatalogIndex)
	}

	n, err := indexer.IndexPrograms(ctx, programs)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d programs into %s.\n", n, cfg.Matching.CatalogIndex)
	return nil
}

func resolve(path string) ([]models.Institution, []models.Program, error) {
	f, err := catalogfile.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return f.Resolve()
}

func help() {
	fmt.Println("Usage: catalog-seeder <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  validate -path <file>           Check a catalog file")
	fmt.Println("  load     -path <file> -migrate  Upsert the catalog into postgres")
	fmt.Println("  index    -path <file>           Bulk index programs into elasticsearch")
	fmt.Println("  help                            Show this help message")
}
