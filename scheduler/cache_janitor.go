package scheduler

import (
	"context"
	"log"
	"time"

	"wishgrab/repository"

	"github.com/robfig/cron/v3"
)

// CacheJanitor periodically sweeps expired rows out of the metadata
// cache so the table doesn't grow without bound.
type CacheJanitor struct {
	cron *cron.Cron
	repo *repository.MetadataRepository
}

func NewCacheJanitor(repo *repository.MetadataRepository) *CacheJanitor {
	return &CacheJanitor{
		cron: cron.New(cron.WithSeconds()),
		repo: repo,
	}
}

// Start schedules the hourly sweep and runs one immediately
func (cj *CacheJanitor) Start() {
	_, err := cj.cron.AddFunc("0 0 * * * *", cj.sweep)
	if err != nil {
		log.Printf("Failed to schedule cache janitor: %v", err)
		return
	}

	go cj.sweep()

	cj.cron.Start()
	log.Println("Cache janitor scheduled to run every hour")
}

// Stop stops the scheduled sweeps
func (cj *CacheJanitor) Stop() {
	if cj.cron != nil {
		cj.cron.Stop()
	}
}

func (cj *CacheJanitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := cj.repo.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Cache sweep failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Cache sweep removed %d expired entries", purged)
	}
}
