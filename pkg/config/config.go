package config

import (
	"fmt"
	"os"
	"time"

	"interviewsignal/pkg/validation"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Signal struct {
		PingInterval         time.Duration `yaml:"ping_interval"`
		PongTimeout          time.Duration `yaml:"pong_timeout"`
		WriteTimeout         time.Duration `yaml:"write_timeout"`
		SendBufferSize       int           `yaml:"send_buffer_size"`
		MaxMessageSizeBytes  int64         `yaml:"max_message_size_bytes"`
		AllowedOrigins       []string      `yaml:"allowed_origins"`
		DisconnectSuperseded bool          `yaml:"disconnect_superseded"`
	} `yaml:"signal"`

	WebRTC struct {
		ICEServers []struct {
			URLs       []string `yaml:"urls"`
			Username   string   `yaml:"username,omitempty"`
			Credential string   `yaml:"credential,omitempty"`
		} `yaml:"ice_servers"`
	} `yaml:"webrtc"`

	// External collaborators. An empty accounts base URL disables the
	// account lookup during admission and trusts the token claims.
	Services struct {
		AccessBaseURL   string        `yaml:"access_base_url"`
		ChatBaseURL     string        `yaml:"chat_base_url"`
		AccountsBaseURL string        `yaml:"accounts_base_url"`
		ServiceKey      string        `yaml:"service_key"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"services"`

	Reliability struct {
		RetryEnabled            bool          `yaml:"retry_enabled"`
		RetryMaxAttempts        int           `yaml:"retry_max_attempts"`
		RetryInitialDelay       time.Duration `yaml:"retry_initial_delay"`
		RetryMaxDelay           time.Duration `yaml:"retry_max_delay"`
		BreakerFailureThreshold int           `yaml:"breaker_failure_threshold"`
		BreakerTimeout          time.Duration `yaml:"breaker_timeout"`
	} `yaml:"reliability"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled     bool          `yaml:"enabled"`
		Address     string        `yaml:"address"`
		Password    string        `yaml:"password"`
		DB          int           `yaml:"db"`
		PoolSize    int           `yaml:"pool_size"`
		PresenceTTL time.Duration `yaml:"presence_ttl"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"`
		} `yaml:"http"`

		WebSocket struct {
			ConnectionsPerMinute int     `yaml:"connections_per_minute"`
			MessagesPerSecond    float64 `yaml:"messages_per_second"`
			Burst                int     `yaml:"burst"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Signal.PingInterval <= 0 {
		return fmt.Errorf("signal.ping_interval must be > 0")
	}
	if c.Signal.PongTimeout <= c.Signal.PingInterval {
		return fmt.Errorf("signal.pong_timeout must be > signal.ping_interval")
	}
	if c.Signal.WriteTimeout <= 0 {
		return fmt.Errorf("signal.write_timeout must be > 0")
	}
	if c.Signal.SendBufferSize <= 0 {
		return fmt.Errorf("signal.send_buffer_size must be > 0")
	}
	if c.Signal.MaxMessageSizeBytes <= 0 {
		return fmt.Errorf("signal.max_message_size_bytes must be > 0")
	}

	for i, s := range c.WebRTC.ICEServers {
		if len(s.URLs) == 0 {
			return fmt.Errorf("webrtc.ice_servers[%d].urls must not be empty", i)
		}
		for _, u := range s.URLs {
			if err := validation.ValidateICEServerURL(u); err != nil {
				return fmt.Errorf("webrtc.ice_servers[%d]: %w", i, err)
			}
		}
	}

	if err := validation.ValidateURL(c.Services.AccessBaseURL); err != nil {
		return fmt.Errorf("services.access_base_url: %w", err)
	}
	if err := validation.ValidateURL(c.Services.ChatBaseURL); err != nil {
		return fmt.Errorf("services.chat_base_url: %w", err)
	}
	if c.Services.AccountsBaseURL != "" {
		if err := validation.ValidateURL(c.Services.AccountsBaseURL); err != nil {
			return fmt.Errorf("services.accounts_base_url: %w", err)
		}
	}
	if c.Services.Timeout <= 0 {
		return fmt.Errorf("services.timeout must be > 0")
	}

	if c.Reliability.RetryEnabled && c.Reliability.RetryMaxAttempts < 0 {
		return fmt.Errorf("reliability.retry_max_attempts must be >= 0")
	}
	if c.Reliability.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("reliability.breaker_failure_threshold must be > 0")
	}
	if c.Reliability.BreakerTimeout <= 0 {
		return fmt.Errorf("reliability.breaker_timeout must be > 0")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
		if c.Redis.PresenceTTL <= c.Signal.PingInterval {
			return fmt.Errorf("redis.presence_ttl must be > signal.ping_interval")
		}
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.ConnectionsPerMinute <= 0 {
			return fmt.Errorf("rate_limiting.websocket.connections_per_minute must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.MessagesPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.websocket.messages_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.Burst <= 0 {
			return fmt.Errorf("rate_limiting.websocket.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
// A missing file is not an error: defaults plus environment are used.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8081"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Signal.PingInterval = 25 * time.Second
	cfg.Signal.PongTimeout = 60 * time.Second
	cfg.Signal.WriteTimeout = 10 * time.Second
	cfg.Signal.SendBufferSize = 64
	cfg.Signal.MaxMessageSizeBytes = 64 * 1024
	cfg.Signal.AllowedOrigins = []string{"*"}
	cfg.Signal.DisconnectSuperseded = true

	cfg.Services.AccessBaseURL = "http://localhost:3000/api"
	cfg.Services.ChatBaseURL = "http://localhost:3000/api"
	cfg.Services.Timeout = 5 * time.Second

	cfg.Reliability.RetryEnabled = true
	cfg.Reliability.RetryMaxAttempts = 2
	cfg.Reliability.RetryInitialDelay = 100 * time.Millisecond
	cfg.Reliability.RetryMaxDelay = time.Second
	cfg.Reliability.BreakerFailureThreshold = 5
	cfg.Reliability.BreakerTimeout = 30 * time.Second

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.PresenceTTL = 2 * time.Minute

	cfg.Auth.JWTSecret = "change-me-in-production"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	cfg.RateLimiting.WebSocket.ConnectionsPerMinute = 60
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 50
	cfg.RateLimiting.WebSocket.Burst = 100

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("INTERVIEWSIGNAL_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("INTERVIEWSIGNAL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("INTERVIEWSIGNAL_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if url := os.Getenv("INTERVIEWSIGNAL_ACCESS_BASE_URL"); url != "" {
		c.Services.AccessBaseURL = url
	}
	if url := os.Getenv("INTERVIEWSIGNAL_CHAT_BASE_URL"); url != "" {
		c.Services.ChatBaseURL = url
	}
	if url := os.Getenv("INTERVIEWSIGNAL_ACCOUNTS_BASE_URL"); url != "" {
		c.Services.AccountsBaseURL = url
	}
	if key := os.Getenv("INTERVIEWSIGNAL_SERVICE_KEY"); key != "" {
		c.Services.ServiceKey = key
	}
	if addr := os.Getenv("INTERVIEWSIGNAL_REDIS_ADDRESS"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Address = addr
	}
}
