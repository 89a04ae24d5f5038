// Package pg provides production-ready PostgreSQL connection management with
// migrations and health checking.
//
// This package wraps the pgx driver with application-level retry logic,
// connection pool tuning, and integrated schema migration support using
// goose. It's meant for services that keep rate-limit state in PostgreSQL
// and need reliable connectivity with proper error handling.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping; defaults balance performance and resource usage for
// cloud-deployed services:
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MinOpenConns      int32         `env:"PG_MIN_OPEN_CONNS" envDefault:"2"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
//	}
//
// # Usage Example
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal("failed to connect to postgres:", err)
//	}
//	defer pool.Close()
//
//	// Install the rate limiter schema.
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, "migrations", cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	store := pgstore.New(pool)
//	limiter, err := throttle.New(store, quota)
//
// # Transactions
//
// WithTx and TxFromContext let callers run store operations inside an
// existing pgx transaction by carrying it through the context.
//
// # Health Checking
//
// Healthcheck returns a function suitable for readiness probes:
//
//	check := pg.Healthcheck(pool)
//	if err := check(ctx); err != nil {
//		// report unhealthy
//	}
package pg
