package pipeline

import (
	"errors"
	"fmt"
)

// Stage failures. Causes are wrapped next to them, so errors.Is works on both.
var (
	ErrExportInitiation     = errors.New("export initiation failed")
	ErrMissingParameter     = errors.New("crawl target path missing")
	ErrCrawlerStart         = errors.New("crawler start failed")
	ErrQuerySubmission      = errors.New("query submission failed")
	ErrQueryExecutionFailed = errors.New("query execution failed")
	ErrQueryTimeout         = errors.New("query did not finish in time")
	ErrConfiguration        = errors.New("missing configuration")
)

// requireSettings fails with ErrConfiguration naming the first empty setting.
// Pairs are name, value.
func requireSettings(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s", ErrConfiguration, pairs[i])
		}
	}
	return nil
}
