// seed loads the internship catalog: from -csv when given, otherwise a built-in sample set.
// Skips when the catalog already has rows unless -append is set.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"internship-portal/backend/internal/config"
	"internship-portal/backend/internal/db"
	"internship-portal/backend/internal/internship/domain"
	"internship-portal/backend/internal/internship/importer"
	internshiprepo "internship-portal/backend/internal/internship/repository"
)

func main() {
	csvPath := flag.String("csv", "", "CSV file with internship rows (header: name,domains,skills,...)")
	appendRows := flag.Bool("append", false, "insert even if the catalog already has rows")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	repo := internshiprepo.NewPostgresRepository(pool)

	if !*appendRows {
		existing, err := repo.List(ctx)
		if err != nil {
			log.Fatalf("seed check: %v", err)
		}
		if len(existing) > 0 {
			log.Printf("seed: catalog already has %d internships, skipping (use -append to add more)", len(existing))
			return
		}
	}

	rows, err := loadRows(*csvPath)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	n, err := repo.BulkInsert(ctx, rows)
	if err != nil {
		log.Fatalf("seed: insert: %v", err)
	}
	log.Printf("seed: inserted %d internships", n)
}

func loadRows(path string) ([]domain.Internship, error) {
	if path == "" {
		log.Printf("seed: no CSV given, inserting sample internships")
		return importer.Samples(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := importer.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		log.Printf("seed: %s has no rows, inserting sample internships", path)
		return importer.Samples(), nil
	}
	log.Printf("seed: importing %d internships from %s", len(rows), path)
	return rows, nil
}
