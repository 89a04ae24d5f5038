// Package redis provides production-ready Redis client initialization and
// health checking for distributed rate limiting.
//
// This package wraps the go-redis client with connection validation, retry
// logic, and configuration suitable for shared rate-limit state. It supports
// both redis:// and rediss:// (TLS) URL schemes and verifies connectivity
// with a ping before returning the client.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// # Usage Example
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal("failed to connect to redis:", err)
//	}
//	defer client.Close()
//
//	store := redisstore.New(client)
//	limiter, err := throttle.New(store, quota)
//
// # Health Checking
//
// Healthcheck returns a function suitable for readiness/liveness probes or
// HTTP health endpoints:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//		// report unhealthy
//	}
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrFailedToParseRedisConnString: malformed connection URL
//   - ErrRedisNotReady: Redis didn't become ready within the timeout
//   - ErrEmptyConnectionURL: no connection URL provided
//   - ErrHealthcheckFailed: health check ping failed
//
// These wrap the underlying go-redis errors while providing stable error
// types for retry logic and user-facing messages.
package redis
