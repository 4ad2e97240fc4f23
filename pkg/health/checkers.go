package health

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const defaultCheckTimeout = 5 * time.Second

// Checkable is implemented by store adapters.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// AdapterChecker pings a store adapter within a timeout.
type AdapterChecker struct {
	name    string
	adapter Checkable
	timeout time.Duration
}

// NewAdapterChecker checks adapter, bounding each ping by timeout (5s when zero).
func NewAdapterChecker(name string, adapter Checkable, timeout time.Duration) *AdapterChecker {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &AdapterChecker{name: name, adapter: adapter, timeout: timeout}
}

func (c *AdapterChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res := CheckResult{Name: c.name, Status: StatusHealthy, Message: "OK"}
	if err := c.adapter.HealthCheck(ctx); err != nil {
		res.Status, res.Message, res.Error = StatusUnhealthy, "", err.Error()
	}
	res.Timestamp = time.Now()
	res.Duration = time.Since(start)
	return res
}

func (c *AdapterChecker) Name() string {
	return c.name
}

// CompositeChecker reports the worst status of its sub-checks under one name.
type CompositeChecker struct {
	name     string
	checkers []Checker
}

// NewCompositeChecker groups checkers. An empty group is healthy.
func NewCompositeChecker(name string, checkers ...Checker) *CompositeChecker {
	return &CompositeChecker{name: name, checkers: checkers}
}

func (c *CompositeChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	status := StatusHealthy
	var failed, notes []string
	for _, checker := range c.checkers {
		res := checker.Check(ctx)
		status = worse(status, res.Status)
		switch {
		case res.Error != "":
			failed = append(failed, res.Name+": "+res.Error)
		case res.Status == StatusDegraded && res.Message != "":
			notes = append(notes, res.Name+": "+res.Message)
		}
	}

	res := CheckResult{Name: c.name, Status: status, Timestamp: time.Now(), Duration: time.Since(start)}
	switch {
	case len(failed) > 0:
		res.Error = strings.Join(failed, "; ")
	case len(notes) > 0:
		res.Message = strings.Join(notes, "; ")
	default:
		res.Message = fmt.Sprintf("%d check(s) passed", len(c.checkers))
	}
	return res
}

func (c *CompositeChecker) Name() string {
	return c.name
}

// CheckFunc reports a status, a message and an optional error.
type CheckFunc func(ctx context.Context) (Status, string, error)

// CustomChecker adapts a CheckFunc to Checker.
type CustomChecker struct {
	name string
	fn   CheckFunc
}

func NewCustomChecker(name string, fn CheckFunc) *CustomChecker {
	return &CustomChecker{name: name, fn: fn}
}

func (c *CustomChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	status, message, err := c.fn(ctx)
	res := CheckResult{Name: c.name, Status: status, Message: message}
	if err != nil {
		res.Error = err.Error()
	}
	res.Timestamp = time.Now()
	res.Duration = time.Since(start)
	return res
}

func (c *CustomChecker) Name() string {
	return c.name
}
