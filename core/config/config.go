package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = map[reflect.Type]any{}

	// .env is loaded once per process, before the first Parse. A missing
	// file is not an error; real environments set variables directly.
	dotenvOnce sync.Once
)

// Load populates cfg from environment variables using its env struct tags.
// Each configuration type is parsed once per process and cached; subsequent
// calls for the same type return the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	mu.Lock()
	defer mu.Unlock()

	typ := reflect.TypeOf(*cfg)
	if cached, ok := cache[typ]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to load %s: %w", typ, err)
	}

	cache[typ] = *cfg
	return nil
}

// MustLoad is Load that panics on failure. Useful during application startup
// where a missing required variable should stop the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
