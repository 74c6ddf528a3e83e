package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/lineaetica/etica-backend/internal/config"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/internal/migration"
	"github.com/lineaetica/etica-backend/pkg/database"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "config file path (default configs/config.$APP_ENV.yaml)")
	verify := flag.Bool("verify", false, "print row counts after migrating")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	config.LoadDotEnv()

	path := *configPath
	if path == "" {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "local"
		}
		path = "configs/config." + env + ".yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	open := database.MySQLOpener(cfg.Database.GetDSN(), database.PoolConfig{
		MaxIdleConns:    1,
		MaxOpenConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logLevel)

	db, err := open()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	start := time.Now()
	err = migration.Run(db, migration.AdminSeed{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		Name:     cfg.Admin.Name,
	})
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migration completed in %v", time.Since(start).Round(time.Millisecond))

	if *verify {
		runVerify(db)
	}
}

// runVerify prints row counts per table and per report status
func runVerify(db *gorm.DB) {
	var reports, users, audits int64
	db.Model(&domain.Report{}).Count(&reports)
	db.Model(&domain.User{}).Count(&users)
	db.Model(&domain.AuditLog{}).Count(&audits)

	log.Printf("%-12s %8d", "feedback", reports)
	log.Printf("%-12s %8d", "users", users)
	log.Printf("%-12s %8d", "audit_logs", audits)

	var byStatus []domain.CountByKey
	if err := db.Model(&domain.Report{}).
		Select("estado AS `key`, COUNT(*) AS count").
		Group("estado").
		Order("estado").
		Scan(&byStatus).Error; err != nil {
		log.Printf("status breakdown failed: %v", err)
		return
	}
	for _, row := range byStatus {
		log.Printf("  %-10s %8d", domain.StatusLabel(row.Key), row.Count)
	}
}
