package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by configurations that check themselves after loading.
type Validator interface {
	Validate() error
}

type cacheEntry struct {
	once sync.Once
	val  any
	err  error
}

var (
	cache        sync.Map // type name -> *cacheEntry
	dotEnvLoaded sync.Once
)

// Load fills v from envDefault tags and the environment. The default .env file
// is read once per process if it exists. Each type is parsed once; later calls
// get a copy of the cached value. Failed loads are not cached.
//
// When *T implements Validator, Validate runs after parsing and its error is
// returned joined with ErrValidation.
//
//	var cfg email.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotEnvLoaded.Do(func() { _ = godotenv.Load() })

	key := reflect.TypeFor[T]().String()
	actual, _ := cache.LoadOrStore(key, &cacheEntry{})
	entry := actual.(*cacheEntry)

	entry.once.Do(func() {
		var cfg T
		if err := env.Parse(&cfg); err != nil {
			entry.err = errors.Join(ErrParsingConfig, err)
			return
		}
		if err := validate(&cfg); err != nil {
			entry.err = err
			return
		}
		entry.val = cfg
	})

	if entry.err != nil {
		cache.CompareAndDelete(key, entry)
		return entry.err
	}
	*v = entry.val.(T)
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// LoadEnv loads .env files into the process environment. Later files override
// earlier ones and no arguments means the default .env. Cached configurations
// are kept; call ResetCache to reparse.
func LoadEnv(paths ...string) error {
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ResetCache drops every cached configuration.
func ResetCache() {
	cache.Clear()
}

func validate(v any) error {
	if val, ok := v.(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrValidation, err)
		}
	}
	return nil
}
