package health

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nimburion/querykit/pkg/query"
)

// NewFiltersChecker reports whether the named filter file at path decodes into
// valid criteria. Named filters are optional, so an empty path is healthy.
func NewFiltersChecker(name, path string) *CustomChecker {
	return NewCustomChecker(name, func(context.Context) (Status, string, error) {
		if strings.TrimSpace(path) == "" {
			return StatusHealthy, "no filters file configured", nil
		}
		f, err := os.Open(path)
		if err != nil {
			return StatusUnhealthy, "", fmt.Errorf("open filters: %w", err)
		}
		defer f.Close()

		filters, err := query.LoadFilters(f)
		if err != nil {
			return StatusUnhealthy, "", err
		}
		return StatusHealthy, fmt.Sprintf("%d named filter(s)", len(filters)), nil
	})
}
