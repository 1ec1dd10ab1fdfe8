package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report koanf paths (server.port) instead of Go field names (Server.Port).
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg against its struct tags and the cross-field rules that tags
// cannot express. The first failure is returned as a *ConfigError.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return err
	}

	if !cfg.Database.Networked() && strings.TrimSpace(cfg.Database.SQLite.Path) == "" {
		e := NewMissingFieldError("database.sqlite.path", "DATABASE_SQLITE_PATH")
		e.err = ErrMissingSQLitePath
		return e
	}

	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Redis.Host) == "" {
		return NewMissingFieldError("cache.redis.host", "CACHE_REDIS_HOST")
	}

	return nil
}

func fieldError(fe validator.FieldError) *ConfigError {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	if fe.Tag() == "required" {
		return NewMissingFieldError(field, strings.ToUpper(strings.ReplaceAll(field, ".", "_")))
	}

	msg := fmt.Sprintf("failed %q validation", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("must satisfy %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())
	}
	return NewInvalidFieldError(field, msg)
}
