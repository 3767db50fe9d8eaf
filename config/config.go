// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: config.go — CLI flags and validation (§6)
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/codewanderer/wsingest/wsurl"
)

// Config holds every value the CLI accepts, already parsed and validated.
type Config struct {
	URL     wsurl.Endpoint
	Num     int
	Out     string
	Mode    string
	Seconds int
}

const (
	defaultURL  = "wss://fstream.binance.com/ws/btcusdt@bookTicker"
	defaultNum  = 2
	defaultOut  = "stream.ndjson"
	defaultMode = "async"
)

// Parse reads args (typically os.Args[1:]) into a validated Config.
// Returns an error for a bad URL or an unrecognized mode, both of which
// the caller must turn into exit code 1 (§6).
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("wsingest", pflag.ContinueOnError)

	url := fs.StringP("url", "u", defaultURL, "wss:// endpoint to connect to")
	num := fs.IntP("num", "n", defaultNum, "number of simultaneous connections")
	out := fs.StringP("out", "o", defaultOut, "merged NDJSON output path")
	mode := fs.StringP("mode", "m", defaultMode, "session mode: async|sync")
	seconds := fs.IntP("seconds", "t", 0, "run duration in seconds (0 = until signaled)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	ep, err := wsurl.Parse(*url)
	if err != nil {
		return Config{}, err
	}

	if *mode != "async" && *mode != "sync" {
		return Config{}, fmt.Errorf("config: invalid --mode %q, want async or sync", *mode)
	}

	if *num < 1 {
		return Config{}, fmt.Errorf("config: --num must be >= 1, got %d", *num)
	}

	if *seconds < 0 {
		return Config{}, fmt.Errorf("config: --seconds must be >= 0, got %d", *seconds)
	}

	return Config{
		URL:     ep,
		Num:     *num,
		Out:     *out,
		Mode:    *mode,
		Seconds: *seconds,
	}, nil
}

// Deadline returns the wall-clock time the runner should shut down at, or
// the zero Time if Seconds is 0 (run until signaled).
func (c Config) Deadline(from time.Time) time.Time {
	if c.Seconds == 0 {
		return time.Time{}
	}
	return from.Add(time.Duration(c.Seconds) * time.Second)
}
