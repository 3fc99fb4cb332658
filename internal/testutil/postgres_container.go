package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var postgres sharedContainer

// GetPostgresDSN returns a pgx DSN for a shared PostgreSQL 16 container.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	return postgres.get(t, "postgres:16",
		[]testcontainers.ContainerCustomizer{
			testcontainers.WithExposedPorts("5432/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForAll(
					wait.ForListeningPort("5432/tcp"),
					wait.ForLog("ready to accept connections"),
					// Actively verify SQL connectivity using the mapped host:port.
					wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
						return fmt.Sprintf("postgres://nodeflux:nodeflux@%s:%s/nodeflux_test?sslmode=disable", host, port.Port())
					}).WithQuery("SELECT 1"),
				).WithDeadline(2 * time.Minute),
			),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_USER":     "nodeflux",
				"POSTGRES_PASSWORD": "nodeflux",
				"POSTGRES_DB":       "nodeflux_test",
			}),
		},
		func(endpoint string) string {
			return fmt.Sprintf("postgres://nodeflux:nodeflux@%s/nodeflux_test?sslmode=disable", endpoint)
		},
	)
}
