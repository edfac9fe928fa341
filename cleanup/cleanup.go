package cleanup

import (
	"os"
	"path/filepath"
	"strings"

	"vodforge/lease"
	"vodforge/logger"
	"vodforge/models"
)

// Coordinator removes everything a job left on local disk.
type Coordinator struct {
	Layout models.Layout
	// Leases, when set, protects files belonging to other running jobs
	// whose ids contain jobID.
	Leases *lease.Manager
}

// Run deletes the source file, the job's HLS tree and scratch tree, then
// sweeps residual top-level files of the root whose name contains jobID.
// Directories are never swept: another job's scratch dir may contain jobID
// in its name. Failures are logged and never returned; running it twice is
// harmless.
func (c *Coordinator) Run(jobID, sourcePath string) {
	log := logger.With(map[string]any{"job": jobID})

	if sourcePath != "" {
		remove(log, sourcePath)
	}
	if jobID == "" {
		return
	}
	remove(log, c.Layout.HLSDir(jobID))
	remove(log, c.Layout.JobDir(jobID))

	entries, err := os.ReadDir(c.Layout.Root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("Failed to list %s for cleanup: %v", c.Layout.Root, err)
		}
		return
	}
	others := c.otherHeld(jobID)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || models.Reserved(name) || !strings.Contains(name, jobID) {
			continue
		}
		if owner, ok := ownedBy(name, others); ok {
			log.Debugf("Skipping %s, held by job %s", name, owner)
			continue
		}
		remove(log, filepath.Join(c.Layout.Root, name))
	}
	log.Debugf("Cleanup finished")
}

func remove(log logger.Entry, p string) {
	if _, err := os.Lstat(p); os.IsNotExist(err) {
		return
	}
	if err := os.RemoveAll(p); err != nil {
		log.Errorf("Failed to remove %s: %v", p, err)
		return
	}
	log.Debugf("Removed %s", p)
}

func (c *Coordinator) otherHeld(jobID string) []string {
	if c.Leases == nil {
		return nil
	}
	var ids []string
	for _, id := range c.Leases.HeldIDs() {
		if id != jobID && strings.Contains(id, jobID) {
			ids = append(ids, id)
		}
	}
	return ids
}

func ownedBy(name string, ids []string) (string, bool) {
	for _, id := range ids {
		if strings.Contains(name, id) {
			return id, true
		}
	}
	return "", false
}
