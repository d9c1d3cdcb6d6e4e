//go:build integration

package postgres

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

var testPool *pgxpool.Pool

// TestMain uses TEST_DATABASE_URL when set; otherwise it starts a throwaway
// postgres container on the host network.
func TestMain(m *testing.M) {
	os.Exit(runIntegration(m))
}

func runIntegration(m *testing.M) int {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("component", "pg_it").Logger()
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		id, url, err := startContainer()
		if err != nil {
			log.Error().Err(err).Msg("could not start postgres container; is docker running?")
			return 1
		}
		defer func() {
			if err := exec.Command("docker", "stop", id).Run(); err != nil {
				log.Warn().Err(err).Str("container", id).Msg("could not stop container")
			}
		}()
		dsn = url
	}

	var err error
	for attempt := 1; attempt <= 15; attempt++ {
		testPool, err = Connect(ctx, dsn)
		if err == nil {
			break
		}
		log.Info().Int("attempt", attempt).Msg("waiting for database")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Error().Err(err).Msg("database never became ready")
		return 1
	}
	defer testPool.Close()

	if err := Migrate(ctx, testPool); err != nil {
		log.Error().Err(err).Msg("migrate")
		return 1
	}
	return m.Run()
}

func startContainer() (id, dsn string, err error) {
	const (
		db   = "humaine_test"
		user = "humaine"
		pass = "humaine"
	)
	cmd := exec.Command("docker", "run", "-d", "--rm", "--network", "host",
		"-e", "POSTGRES_DB="+db,
		"-e", "POSTGRES_USER="+user,
		"-e", "POSTGRES_PASSWORD="+pass,
		"postgres:16-alpine",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", "", err
	}
	id = strings.TrimSpace(out.String())
	if len(id) > 12 {
		id = id[:12]
	}
	return id, fmt.Sprintf("postgres://%s:%s@localhost:5432/%s?sslmode=disable", user, pass, db), nil
}

func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE user_profiles, session_reports`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
