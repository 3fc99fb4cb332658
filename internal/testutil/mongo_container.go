package testutil

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var mongoC sharedContainer

// GetMongoURI returns a mongodb:// URI for a shared MongoDB 7 container.
func GetMongoURI(t *testing.T) string {
	t.Helper()
	return mongoC.get(t, "mongo:7",
		[]testcontainers.ContainerCustomizer{
			testcontainers.WithExposedPorts("27017/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("27017/tcp"),
				wait.ForLog("mongod startup complete"),
			),
		},
		func(endpoint string) string { return "mongodb://" + endpoint },
	)
}
