package params

import (
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

var (
	CacheLastKnownTTL = 7 * 24 * time.Hour
)

var DefaultBatchSize = 100_000

// MetricsEnabled gates the go-ethereum metrics package, which is inert
// until its global switch is flipped.
var MetricsEnabled = true

// DatadirRoot is where run reports land unless overridden.
var DatadirRoot = func() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".trajkit"
	}
	return filepath.Join(home, ".trajkit")
}()
