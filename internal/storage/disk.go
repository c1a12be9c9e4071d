package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskUsageBytes returns the combined size of the database file, its WAL side files
// and any index directories given. Missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		for _, candidate := range []string{p, p + "-wal", p + "-shm"} {
			n, err := pathSize(candidate)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

func pathSize(p string) (int64, error) {
	var total int64
	err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return total, err
}
