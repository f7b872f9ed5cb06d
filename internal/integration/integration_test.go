package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/meisofts/BrainStorm/internal/infra/postgres"
	pgmigrations "github.com/meisofts/BrainStorm/internal/infra/postgres/migrations"
	infraredis "github.com/meisofts/BrainStorm/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestScoringEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	store := postgres.NewStore(pgURL)
	defer store.Close()

	if err := postgres.Seed(ctx, store,
		domain.Quiz{Title: "Integration Quiz", QuizDate: time.Now().Add(time.Hour), IsActive: true, AdminID: 1},
		[]domain.Question{
			{Text: "Q1", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", CorrectOption: domain.OptionC},
			{Text: "Q2", OptionA: "1", OptionB: "2", OptionC: "3", OptionD: "4", CorrectOption: domain.OptionB},
		},
		[]domain.Contestant{{Name: "Alice"}, {Name: "Bob"}},
	); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	quizID := fetchID(t, ctx, pool, `SELECT id FROM quizzes LIMIT 1`)
	questionIDs := fetchIDs(t, ctx, pool, `SELECT id FROM questions ORDER BY id ASC`)
	contestantIDs := fetchIDs(t, ctx, pool, `SELECT id FROM contestants ORDER BY id ASC`)
	if len(questionIDs) != 2 || len(contestantIDs) != 2 {
		t.Fatalf("unexpected seed shape: questions=%v contestants=%v", questionIDs, contestantIDs)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cache := infraredis.NewLeaderboardCache(redisClient, 5*time.Minute)
	service := app.NewSessionService(app.NewEngine(store), cache)

	alice, bob := contestantIDs[0], contestantIDs[1]

	// Alice: one correct, one incorrect, then corrects the second.
	result, err := service.RecordAnswer(ctx, alice, questionIDs[0], domain.OptionC)
	if err != nil || result.NewScore != 1 {
		t.Fatalf("alice q1: score=%d err=%v", result.NewScore, err)
	}
	result, err = service.RecordAnswer(ctx, alice, questionIDs[1], domain.OptionA)
	if err != nil || result.NewScore != 1 {
		t.Fatalf("alice q2 wrong: score=%d err=%v", result.NewScore, err)
	}
	result, err = service.RecordAnswer(ctx, alice, questionIDs[1], domain.OptionB)
	if err != nil || result.NewScore != 2 {
		t.Fatalf("alice q2 corrected: score=%d err=%v", result.NewScore, err)
	}

	// Bob double-submits the same answer; the delta applies once.
	for i := 0; i < 3; i++ {
		result, err = service.RecordAnswer(ctx, bob, questionIDs[0], domain.OptionC)
		if err != nil || result.NewScore != 1 {
			t.Fatalf("bob resubmit %d: score=%d err=%v", i, result.NewScore, err)
		}
	}

	if _, err := service.CompleteContestant(ctx, alice); err != nil {
		t.Fatalf("complete alice: %v", err)
	}

	lb, err := service.Leaderboard(ctx, quizID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 2 || lb.TotalQuestions != 2 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
	if lb.Entries[0].Name != "Alice" || lb.Entries[0].Rank != 1 || lb.Entries[0].Score != 2 {
		t.Fatalf("expected Alice leading with 2, got %+v", lb.Entries[0])
	}
	if lb.Entries[0].Status != domain.StatusCompleted || lb.Entries[1].Status != domain.StatusInProgress {
		t.Fatalf("unexpected statuses: %+v", lb.Entries)
	}

	// Persisted score matches the scoreboard.
	var aliceScore int
	if err := pool.QueryRow(ctx, `SELECT score FROM contestants WHERE id=$1`, alice).Scan(&aliceScore); err != nil {
		t.Fatalf("query score: %v", err)
	}
	if aliceScore != 2 {
		t.Fatalf("expected persisted score 2, got %d", aliceScore)
	}

	// The committed snapshot landed in Redis.
	cached, found, err := cache.Fetch(ctx, quizID)
	if err != nil || !found {
		t.Fatalf("expected cached snapshot, found=%v err=%v", found, err)
	}
	if cached.Entries[0].Score != 2 {
		t.Fatalf("stale cached snapshot: %+v", cached.Entries)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func fetchID(t *testing.T, ctx context.Context, pool *pgxpool.Pool, query string) int64 {
	t.Helper()
	var id int64
	if err := pool.QueryRow(ctx, query).Scan(&id); err != nil {
		t.Fatalf("fetch id: %v", err)
	}
	return id
}

func fetchIDs(t *testing.T, ctx context.Context, pool *pgxpool.Pool, query string) []int64 {
	t.Helper()
	rows, err := pool.Query(ctx, query)
	if err != nil {
		t.Fatalf("fetch ids: %v", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan id: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
