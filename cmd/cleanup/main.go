// Command cleanup is a one-shot janitor: it prunes expired files from the
// media upload directory and force-fails jobs stuck in RUNNING past the
// hard time limit (a crashed worker can leave both behind).
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/database"
	"github.com/sendit2sri/artifact-os/internal/model"
)

var (
	dryRun       = flag.Bool("dry-run", true, "Report what would be removed without removing it")
	uploadExpire = flag.Int("upload-expire", 24, "Hours to keep uploaded media files")
	failStale    = flag.Bool("fail-stale", true, "Force-fail jobs stuck in RUNNING past the hard time limit")
)

func main() {
	flag.Parse()

	log.Printf("Starting cleanup, dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	removed := cleanExpiredUploads(cfg.Ingest.UploadDir, *uploadExpire)
	log.Printf("Upload cleanup: %d files removed", removed)

	if *failStale {
		failed := failStaleJobs(db, cfg.Ingest.HardTimeLimitSeconds)
		log.Printf("Stale jobs: %d force-failed", failed)
	}
}

func cleanExpiredUploads(dir string, expireHours int) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		log.Printf("Failed to read upload dir %s: %v", dir, err)
		return 0
	}

	cutoff := time.Now().Add(-time.Duration(expireHours) * time.Hour)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if *dryRun {
			log.Printf("Would remove %s (%d bytes, modified %s)", path, info.Size(), info.ModTime().Format(time.RFC3339))
			removed++
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("Failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed
}

func failStaleJobs(db *gorm.DB, hardLimitSeconds int) int {
	cutoff := time.Now().Add(-time.Duration(hardLimitSeconds) * time.Second)
	query := db.Model(&model.Job{}).
		Where("status = ? AND started_at < ?", model.JobStatusRunning, cutoff)

	if *dryRun {
		var count int64
		if err := query.Count(&count).Error; err != nil {
			log.Printf("Failed to count stale jobs: %v", err)
			return 0
		}
		return int(count)
	}

	// Pollers expect FAILED jobs to carry {error_code, error_message}, same
	// shape JobRepository.MarkFailed writes.
	result := query.Updates(map[string]interface{}{
		"status":       model.JobStatusFailed,
		"current_step": model.StepFailed,
		"result_summary": model.JSONMap{
			"error_code":    model.ErrCodeNetwork,
			"error_message": "Job exceeded its time limit.",
		},
		"completed_at": time.Now(),
	})
	if result.Error != nil {
		log.Printf("Failed to fail stale jobs: %v", result.Error)
		return 0
	}
	return int(result.RowsAffected)
}
