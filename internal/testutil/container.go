// Package testutil starts throwaway backing services for integration tests.
//
// Each container is started at most once per test binary and reaped by
// testcontainers when the binary exits. Tests are skipped under -short and
// when no container runtime is available.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// startupTimeout is generous for CI environments.
const startupTimeout = 3 * time.Minute

type sharedContainer struct {
	once     sync.Once
	endpoint string
	err      error
}

// get starts the container on first use and returns its endpoint.
// build receives the host:port endpoint and shapes it into a DSN.
func (c *sharedContainer) get(t *testing.T, image string, opts []testcontainers.ContainerCustomizer, build func(string) string) string {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s integration test in short mode", image)
	}

	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		container, err := testcontainers.Run(ctx, image, opts...)
		if err != nil {
			c.err = err
			return
		}
		endpoint, err := container.Endpoint(ctx, "")
		if err != nil {
			_ = container.Terminate(context.Background())
			c.err = err
			return
		}
		c.endpoint = build(endpoint)
	})

	if c.err != nil {
		t.Skipf("%s container unavailable: %v", image, c.err)
	}
	return c.endpoint
}
