package main

import (
	"flag"
	"log"
	"os"

	"github.com/fieldsense/fieldsense-backend/internal/config"
	"github.com/fieldsense/fieldsense-backend/internal/migration"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	// CLI flags
	configPath := flag.String("config", "configs/config."+env+".yaml", "config file path")
	reset := flag.Bool("reset", false, "drop every service table before migrating")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if loaded := config.LoadDotEnv(env); len(loaded) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	if *reset {
		log.Println("Dropping service tables...")
		if err := migration.Drop(db); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrated %d tables on %s/%s", len(migration.Models()), cfg.Database.Host, cfg.Database.DBName)
}
