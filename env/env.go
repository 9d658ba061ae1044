// Package env loads process configuration from the environment and an optional .env file.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Auth variants selectable through AUTH_TYPE.
const (
	AuthTypeBasic      = "auth"
	AuthTypeSession    = "session_auth"
	AuthTypeSessionExp = "session_exp_auth"
	AuthTypeSessionDB  = "session_db_auth"
)

var ErrParsingConfig = errors.New("failed to parse environment variables into config")

var ErrUnknownAuthType = errors.New("unknown AUTH_TYPE")

var ErrInvalidSetting = errors.New("invalid configuration value")

// maxDurationSeconds is the largest second count a time.Duration can hold.
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

var errDurationOutOfRange = errors.New("SESSION_DURATION out of range")

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type Config struct {
	// SessionName is the cookie carrying the session id.
	SessionName string `env:"SESSION_NAME" envDefault:"_my_session_id"`
	// SessionDurationRaw is kept as text so a bad value degrades to "never expires"
	// instead of failing startup. Read it through SessionDuration.
	SessionDurationRaw string `env:"SESSION_DURATION" envDefault:"0"`
	// SessionSecret, when set, signs the session cookie with HMAC-SHA256.
	SessionSecret string `env:"SESSION_SECRET"`
	SecureCookies bool   `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	AuthType      string   `env:"AUTH_TYPE" envDefault:"session_auth"`
	ExcludedPaths []string `env:"AUTH_EXCLUDED_PATHS" envSeparator:"," envDefault:"/api/v1/status/,/api/v1/unauthorized/,/api/v1/forbidden/,/api/v1/auth_session/login/"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite3"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"sessionauth.db"`
	// SessionBackend picks where session_db_auth keeps records: "sql" or "redis".
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"sql"`
	RedisURL       string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":5000"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads the given .env files (".env" when none are named; a missing file
// is not an error) and parses the process environment into a Config.
func Load(filenames ...string) (Config, error) {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, cfg.validate()
}

// Parse builds a Config from an explicit environment, ignoring the process one.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.AuthType {
	case AuthTypeBasic, AuthTypeSession, AuthTypeSessionExp, AuthTypeSessionDB:
	default:
		return errors.Join(ErrUnknownAuthType, errors.New(c.AuthType))
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: DATABASE_DRIVER=%q", ErrInvalidSetting, c.DatabaseDriver)
	}
	switch c.SessionBackend {
	case BackendSQL, BackendRedis:
	default:
		return fmt.Errorf("%w: SESSION_BACKEND=%q", ErrInvalidSetting, c.SessionBackend)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: LOG_FORMAT=%q", ErrInvalidSetting, c.LogFormat)
	}
	return nil
}

// SessionDuration parses SESSION_DURATION as whole seconds. Anything that is
// not an integer is logged and treated as 0, which disables expiry.
func (c Config) SessionDuration(log *slog.Logger) time.Duration {
	raw := strings.TrimSpace(c.SessionDurationRaw)
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err == nil && (seconds > maxDurationSeconds || seconds < -maxDurationSeconds) {
		err = errDurationOutOfRange
	}
	if err != nil {
		if log == nil {
			log = slog.Default()
		}
		log.Warn("invalid SESSION_DURATION, sessions will not expire", "value", c.SessionDurationRaw, "error", err)
		return 0
	}
	return time.Duration(seconds) * time.Second
}
