package storage

import (
	"fmt"
	"io"
	"os"
	"time"
)

// BackupDaily copies the database file to <path>.backup.YYYY-MM-DD before
// the first open of each local day. Subsequent runs on the same day are
// no-ops, as is a missing database (first launch).
func BackupDaily(path string, now time.Time) error {
	dst := fmt.Sprintf("%s.backup.%s", path, now.Local().Format("2006-01-02"))
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
