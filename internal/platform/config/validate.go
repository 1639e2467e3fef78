package config

import (
	"errors"
	"fmt"

	"github.com/salesforge/platform/internal/platform/telemetry"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Store.validate(),
		c.Auth.validate(),
		c.Bus.validate(),
		c.Engine.validate(),
		c.Client.validate(),
		c.Telemetry.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (s *StoreConfig) validate() error {
	var errs []error

	if s.PostgresDSN == "" {
		errs = append(errs, errors.New("store.postgres_dsn must not be empty"))
	}
	if s.MaxOpenConns < 1 {
		errs = append(errs, fmt.Errorf("store.max_open_conns must be >= 1, got %d", s.MaxOpenConns))
	}
	if s.RedisAddr == "" {
		errs = append(errs, errors.New("store.redis_addr must not be empty"))
	}
	if s.CacheTTL <= 0 {
		errs = append(errs, errors.New("store.cache_ttl must be positive"))
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) validate() error {
	var errs []error

	if a.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret must not be empty"))
	}
	if a.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	return errors.Join(errs...)
}

func (b *BusConfig) validate() error {
	var errs []error

	if b.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("bus.queue_size must be >= 1, got %d", b.QueueSize))
	}
	if b.Workers < 1 {
		errs = append(errs, fmt.Errorf("bus.workers must be >= 1, got %d", b.Workers))
	}

	return errors.Join(errs...)
}

func (e *EngineConfig) validate() error {
	var errs []error

	if e.PollInterval <= 0 {
		errs = append(errs, errors.New("engine.poll_interval must be positive"))
	}
	if e.PollBatchSize < 1 {
		errs = append(errs, fmt.Errorf("engine.poll_batch_size must be >= 1, got %d", e.PollBatchSize))
	}
	if e.ResumeWorkers < 1 {
		errs = append(errs, fmt.Errorf("engine.resume_workers must be >= 1, got %d", e.ResumeWorkers))
	}
	if err := e.ActionRetry.validate("engine.action_retry"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *RetryConfig) validate(prefix string) error {
	var errs []error

	if r.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s.max_attempts must be >= 1, got %d", prefix, r.MaxAttempts))
	}
	if r.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("%s.multiplier must be positive, got %f", prefix, r.Multiplier))
	}

	return errors.Join(errs...)
}

func (cl *ClientConfig) validate() error {
	var errs []error

	if cl.EmailBaseURL == "" {
		errs = append(errs, errors.New("client.email_base_url must not be empty"))
	}
	if cl.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if err := cl.Retry.validate("client.retry"); err != nil {
		errs = append(errs, err)
	}
	if cl.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("client.circuit_breaker.max_failures must be >= 1, got %d",
			cl.CircuitBreaker.MaxFailures))
	}
	if cl.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit.requests_per_second must be >= 0, got %f",
			cl.RateLimit.RequestsPerSecond))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case telemetry.ExporterStdout, telemetry.ExporterOTLP:
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == telemetry.ExporterOTLP && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}
