package main

import (
	"context"
	"flag"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/niyyah-app/niyyah-api/internal/config"
	"github.com/niyyah-app/niyyah-api/internal/database"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/niyyah-app/niyyah-api/internal/repository"
	"github.com/niyyah-app/niyyah-api/internal/service"
	"github.com/niyyah-app/niyyah-api/migrations"
	"gorm.io/gorm/logger"
)

const defaultPhones = "+221770000001,+221770000002,+221770000003"

func main() {
	phones := flag.String("phones", defaultPhones, "comma-separated phone numbers to create unclaimed licenses for")
	list := flag.Bool("list", false, "list the most recent licenses instead of seeding")
	limit := flag.Int("limit", 10, "number of licenses to list (1-100)")
	migrateDown := flag.Bool("migrate-down", false, "roll back the last applied schema migration (postgres only)")
	schemaVersion := flag.Bool("schema-version", false, "print the applied schema version (postgres only)")
	flag.Parse()

	cfg := config.Load()

	if *migrateDown || *schemaVersion {
		cmd := schemaCommand{rollback: migrations.Rollback, version: migrations.Version}
		if err := cmd.run(cfg.DB, *migrateDown, os.Stdout); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	// Force DB logging off to avoid noise
	db, err := database.Open(cfg.DB, logger.Default.LogMode(logger.Silent))
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close(db)
	log.Println("✅ Connected to Database")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}

	svc := service.NewActivationService(repository.NewLicenseRepository(db), nil, nil)
	ctx := context.Background()

	if *list {
		listLicenses(ctx, svc, *limit)
		return
	}

	log.Println("🌱 Seeding demo licenses...")
	for i, phone := range strings.Split(*phones, ",") {
		phone = strings.TrimSpace(phone)
		if phone == "" {
			continue
		}

		license, created, err := svc.CreateLicense(ctx, service.SourceSeeder, service.NewLicense{
			Phone:        phone,
			OrderID:      fmt.Sprintf("SEED-%03d", i+1),
			CustomerName: fmt.Sprintf("Demo Customer %d", i+1),
		})
		switch {
		case err != nil:
			log.Printf("❌ Failed to create license for %s: %v", phone, err)
		case created:
			log.Printf("✅ Created license: %s | Order: %s", license.Phone, license.OrderID)
		default:
			log.Printf("🔄 License already exists: %s", license.Phone)
		}
	}

	log.Println("🎉 Seeding completed!")
}

func listLicenses(ctx context.Context, svc *service.ActivationService, limit int) {
	licenses, err := svc.ListLicenses(ctx, limit)
	if err != nil {
		log.Fatalf("❌ Failed to list licenses: %v", err)
	}

	log.Printf("📋 %d most recent licenses", len(licenses))
	for _, l := range licenses {
		fmt.Println(formatLicense(l))
	}
}

func formatLicense(l model.License) string {
	status := "unclaimed"
	if l.IsClaimed() {
		status = fmt.Sprintf("claimed by %s at %s", *l.DeviceID, l.UsedAt.Format("2006-01-02 15:04"))
	}
	name := "-"
	if l.CustomerName != nil {
		name = *l.CustomerName
	}
	return fmt.Sprintf("%-16s %-24s %-20s %s", l.Phone, l.OrderID, name, status)
}

var errSchemaNeedsPostgres = errors.New("schema commands need DB_DRIVER=postgres; sqlite is migrated by AutoMigrate")

type schemaCommand struct {
	rollback func(dbURL string) error
	version  func(dbURL string) (uint, bool, error)
}

// run rolls back one migration when down is set, then prints the schema version
func (s schemaCommand) run(db config.DBConfig, down bool, out io.Writer) error {
	if db.IsSQLite() {
		return errSchemaNeedsPostgres
	}

	if down {
		if err := s.rollback(db.URL()); err != nil {
			return err
		}
	}

	version, dirty, err := s.version(db.URL())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Fprintf(out, "schema version: %d (dirty: %v)\n", version, dirty)
	return nil
}
