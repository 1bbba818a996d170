package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"schoolchain/internal/audit"
	"schoolchain/internal/certificate"
	certificatehandler "schoolchain/internal/certificate/handler"
	"schoolchain/internal/certificate/ipfs"
	"schoolchain/internal/certificate/ledger"
	"schoolchain/internal/class"
	"schoolchain/internal/department"
	jwttoken "schoolchain/internal/jwt_token"
	"schoolchain/internal/notice"
	"schoolchain/internal/platform/cache"
	"schoolchain/internal/platform/config"
	"schoolchain/internal/platform/httpserver"
	"schoolchain/internal/platform/logger"
	"schoolchain/internal/platform/metrics"
	platformredis "schoolchain/internal/platform/redis"
	"schoolchain/internal/student"
	httptransport "schoolchain/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, response caching disabled", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	responseCache := cache.New(redisClient, cfg.Redis.CacheTTL, m, log)

	events, closeEvents, err := newAuditPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "schoolchain", "schoolchain")
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)

	ledgerClient := ledger.New(cfg.Blockchain, log)
	if !ledgerClient.Initialize(ctx) {
		log.Warn("ledger unavailable, certificate operations degraded",
			"network", cfg.Blockchain.Network,
		)
	}
	pinner := ipfs.New(cfg.IPFS)
	if !pinner.IsConfigured() {
		log.Warn("ipfs pinning not configured, certificates will carry no metadata hash")
	}

	studentService := student.NewService(newStudentStore(db), log)
	classService := class.NewService(newClassStore(db), log)
	departmentService := department.NewService(newDepartmentStore(db), log)
	noticeService := notice.NewService(newNoticeStore(db), log)

	certificateService := certificate.NewService(
		student.NewDirectory(studentService),
		pinner,
		ledgerClient,
		events,
		cfg.InstitutionName,
		log,
	)

	router := httptransport.NewRouter(
		httptransport.Options{Logger: log, Metrics: m},
		certificatehandler.New(certificateService, log, jwtValidator),
		student.NewHandler(studentService, log, jwtValidator, responseCache),
		class.NewHandler(classService, log, jwtValidator, responseCache),
		department.NewHandler(departmentService, log, jwtValidator, responseCache),
		notice.NewHandler(noticeService, log, jwtValidator, responseCache),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting schoolchain server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDatabase connects to PostgreSQL and applies the schemas. A missing
// DATABASE_URL falls back to in-memory stores for local development.
func openDatabase(ctx context.Context, cfg config.Database, log *slog.Logger) (*sql.DB, error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	for _, schema := range []string{student.Schema, class.Schema, department.Schema, notice.Schema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func newAuditPublisher(ctx context.Context, cfg config.Kafka, log *slog.Logger) (*audit.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		pub := audit.NewPublisher(audit.NewLogSink(log), log)
		return pub, pub.Close, nil
	}

	sink, err := audit.NewKafkaSink(cfg.Brokers, cfg.AuditTopic, log)
	if err != nil {
		return nil, nil, err
	}
	if err := sink.EnsureTopic(ctx, 1); err != nil {
		return nil, nil, err
	}

	pub := audit.NewPublisher(sink, log, audit.WithAsyncBuffer(256))
	closeAll := func() {
		pub.Close()
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sink.Close(flushCtx); err != nil {
			log.Error("failed to flush audit events", "error", err)
		}
	}
	return pub, closeAll, nil
}

func newStudentStore(db *sql.DB) student.Store {
	if db == nil {
		return student.NewMemoryStore()
	}
	return student.NewPostgresStore(db)
}

func newClassStore(db *sql.DB) class.Store {
	if db == nil {
		return class.NewMemoryStore()
	}
	return class.NewPostgresStore(db)
}

func newDepartmentStore(db *sql.DB) department.Store {
	if db == nil {
		return department.NewMemoryStore()
	}
	return department.NewPostgresStore(db)
}

func newNoticeStore(db *sql.DB) notice.Store {
	if db == nil {
		return notice.NewMemoryStore()
	}
	return notice.NewPostgresStore(db)
}
