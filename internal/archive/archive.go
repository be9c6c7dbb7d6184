// Package archive moves pipeline output directories aside with a timestamp
// so a fresh run starts from empty translation and graph directories.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveDir moves dir to <parent>/archive/<name>-<timestamp> and returns
// the new path
func ArchiveDir(dir string) (string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}

	archiveDir := filepath.Join(filepath.Dir(dir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(dir)
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405")))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405.000000")))
	}

	if err := os.Rename(dir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	fmt.Printf("%s archived to: %s\n", dir, archivePath)
	return archivePath, nil
}

// ArchiveOutputs archives each existing directory in dirs and skips the
// missing ones
func ArchiveOutputs(dirs ...string) ([]string, error) {
	var archived []string
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		path, err := ArchiveDir(dir)
		if err != nil {
			return archived, err
		}
		archived = append(archived, path)
	}
	return archived, nil
}
