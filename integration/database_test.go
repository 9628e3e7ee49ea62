//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestAnalyzeWithMySQL tests the devanalytics CLI with a MySQL snapshot store.
func TestAnalyzeWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "devanalytics",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/devanalytics?parseTime=true", host, port.Port())
	runStoreScenario(t, "mysql", connStr)
}

// TestAnalyzeWithPostgres tests the devanalytics CLI with a PostgreSQL snapshot store.
func TestAnalyzeWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runStoreScenario(t, "postgresql", connStr)
}

// runStoreScenario exercises cache and analyze commands against one backend.
func runStoreScenario(t *testing.T, backend, connStr string) {
	t.Helper()
	_ = os.Setenv("DEVANALYTICS_STORE_BACKEND", backend)
	_ = os.Setenv("DEVANALYTICS_STORE_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("DEVANALYTICS_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("DEVANALYTICS_STORE_CONNECT") }()

	repoDir := seedGitRepo(t)

	require.NoError(t, runCommand(t, "cache", "migrate"))
	require.NoError(t, runCommand(t, "cache", "clear"))
	require.NoError(t, runCommand(t, "analyze", repoDir, "--output", "json"))
	require.NoError(t, runCommand(t, "cache", "status"))

	// Second run hits the stored snapshots.
	require.NoError(t, runCommand(t, "analyze", repoDir, "--output", "json"))
	require.NoError(t, runCommand(t, "cache", "clear"))
}

func runCommand(t *testing.T, args ...string) error {
	binaryPath := getBinary()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
