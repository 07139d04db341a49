// Package config parses the store's page-size configuration file
// (spec.md §6): a text file whose first integer token is PAGE_SIZE.
package config

import (
	"bufio"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
)

// minPageSize is the floor on PAGE_SIZE; it leaves room for the node header
// plus at least 2*(L_min+1) key slots with L_min=2, per spec.md §6.
const minPageSize = 128

// Config is the validated store configuration.
type Config struct {
	PageSize int
}

// Load reads path and extracts PAGE_SIZE as its first whitespace-separated
// integer token. A missing or malformed page size is a fatal configuration
// error (spec.md §7).
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: open %s", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	if !sc.Scan() {
		return Config{}, errors.Newf("config: %s has no PAGE_SIZE token", path)
	}
	pageSize, err := strconv.Atoi(sc.Text())
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: PAGE_SIZE %q is not an integer", sc.Text())
	}
	if pageSize < minPageSize {
		return Config{}, errors.Newf("config: PAGE_SIZE %d is too small (minimum %d)", pageSize, minPageSize)
	}
	return Config{PageSize: pageSize}, nil
}
