package jobs

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// CleanupJob prunes scratch files (downloaded uploads and enhanced
// intermediates) past their retention window. Public output graphics
// are append-only artifacts and are never touched here.
type CleanupJob struct {
	dirs      []string
	retention time.Duration
	interval  time.Duration
	stopChan  chan bool
}

// NewCleanupJob creates a cleanup job for the given scratch dirs.
func NewCleanupJob(dirs ...string) *CleanupJob {
	return &CleanupJob{
		dirs:      dirs,
		retention: 24 * time.Hour,
		interval:  time.Hour,
		stopChan:  make(chan bool),
	}
}

// Start begins the periodic cleanup routine.
func (j *CleanupJob) Start() {
	go j.run()
	log.Println("🧹 Scratch-file cleanup job started")
}

// Stop stops the cleanup routine.
func (j *CleanupJob) Stop() {
	j.stopChan <- true
	log.Println("🧹 Scratch-file cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			return
		}
	}
}

func (j *CleanupJob) sweep() {
	cutoff := time.Now().Add(-j.retention)
	removed := 0

	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // dir may not exist yet
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
					removed++
				}
			}
		}
	}

	if removed > 0 {
		log.Printf("🧹 Cleaned up %d expired scratch files", removed)
	}
}
