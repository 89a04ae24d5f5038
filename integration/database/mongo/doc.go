// Package mongo provides production-ready MongoDB client initialization and
// health checking.
//
// This package wraps the official MongoDB Go driver with application-level
// retry logic optimized for cloud deployments, particularly MongoDB Atlas.
// It handles common deployment challenges like cold starts, network hiccups,
// and connection pool management.
//
// Basic usage:
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "throttle")
//	if err != nil {
//		log.Fatal("failed to connect to mongodb:", err)
//	}
//	defer db.Client().Disconnect(ctx)
//
//	store := mongostore.New(db)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		log.Fatal(err)
//	}
//	limiter, err := throttle.New(store, quota)
//
// # Configuration
//
// Configuration is handled through environment variables via the Config
// struct; defaults are optimized for MongoDB Atlas:
//
//	MONGODB_URL                 (required)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 0)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 5m)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 3s)
//
// # Health Checking
//
// Healthcheck returns a function suitable for readiness probes:
//
//	check := mongo.Healthcheck(db.Client())
//	if err := check(ctx); err != nil {
//		// report unhealthy
//	}
package mongo
