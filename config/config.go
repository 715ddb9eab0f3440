// Package config carrega a configuração do gateway em camadas:
// defaults -> arquivo YAML (CONFIG_FILE) -> variáveis de ambiente (.env incluso).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Email       EmailConfig       `yaml:"email"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	Redis       RedisConfig       `yaml:"redis"`
	Stats       StatsConfig       `yaml:"stats"`
	Edge        EdgeConfig        `yaml:"edge"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_allowed_origins"`
	// TrustXFF usa o primeiro IP do X-Forwarded-For como IP do cliente.
	TrustXFF bool `yaml:"trust_xff"`
}

type EmailConfig struct {
	Provider      string        `yaml:"provider"`
	ResendAPIKey  string        `yaml:"resend_api_key"`
	ResendBaseURL string        `yaml:"resend_base_url"`
	SMTP          SMTPConfig    `yaml:"smtp"`
	From          string        `yaml:"from"`
	To            string        `yaml:"to"`
	AdminCc       string        `yaml:"admin_cc"`
	SiteName      string        `yaml:"site_name"`
	TestMode      bool          `yaml:"test_mode"`
	SendTimeout   time.Duration `yaml:"send_timeout"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RateLimitConfig struct {
	Window  time.Duration `yaml:"window"`
	Max     int           `yaml:"max"`
	Backend string        `yaml:"backend"`
	Prefix  string        `yaml:"prefix"`
}

type BreakerConfig struct {
	Threshold int           `yaml:"threshold"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StatsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`
	Bucket    string        `yaml:"bucket"`
	TrackKeys bool          `yaml:"track_keys"`
}

// EdgeConfig é o token bucket por IP na frente de /api/contact.
type EdgeConfig struct {
	Enabled    bool          `yaml:"enabled"`
	RPS        float64       `yaml:"rps"`
	Burst      int           `yaml:"burst"`
	RetryAfter time.Duration `yaml:"retry_after"`
}

type ConcurrencyConfig struct {
	Max     int           `yaml:"max"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:  ":8080",
			CORSOrigins: []string{"*"},
		},
		Email: EmailConfig{
			Provider:    ProviderResend,
			SMTP:        SMTPConfig{Port: 587},
			From:        "Bridging Trust AI <noreply@bridgingtrust.ai>",
			To:          "contact@bridgingtrust.ai",
			AdminCc:     "admin@bridgingtrust.ai",
			SiteName:    "Bridging Trust AI",
			SendTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Window:  time.Hour,
			Max:     5,
			Backend: BackendMemory,
			Prefix:  "contact:rl",
		},
		Breaker: BreakerConfig{
			Threshold: 5,
			Timeout:   5 * time.Minute,
		},
		Stats: StatsConfig{
			Prefix: "contact:stats",
			TTL:    24 * time.Hour,
			Bucket: "minute",
		},
		Edge: EdgeConfig{
			RPS:        1,
			Burst:      3,
			RetryAfter: time.Second,
		},
		Concurrency: ConcurrencyConfig{Max: 50},
		Log:         LogConfig{Level: "info", Format: "json"},
	}
}

// Load lê o .env (se existir), o arquivo de CONFIG_FILE (se definido) e o ambiente.
func Load() (*Config, error) {
	// .env é opcional; variáveis já exportadas têm prioridade
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// overrideWithEnv aplica as variáveis de ambiente; o valor atual (default/YAML) é o fallback.
func (c *Config) overrideWithEnv() {
	c.Server.ListenAddr = getenvDefault("LISTEN_ADDR", c.Server.ListenAddr)
	c.Server.CORSOrigins = getenvListDefault("CORS_ALLOWED_ORIGINS", c.Server.CORSOrigins)
	c.Server.TrustXFF = getenvBoolDefault("TRUST_XFF", c.Server.TrustXFF)

	c.Email.Provider = strings.ToLower(getenvDefault("EMAIL_PROVIDER", c.Email.Provider))
	c.Email.ResendAPIKey = getenvDefault("RESEND_API_KEY", c.Email.ResendAPIKey)
	c.Email.ResendBaseURL = getenvDefault("RESEND_BASE_URL", c.Email.ResendBaseURL)
	c.Email.SMTP.Host = getenvDefault("SMTP_HOST", c.Email.SMTP.Host)
	c.Email.SMTP.Port = getenvIntDefault("SMTP_PORT", c.Email.SMTP.Port)
	c.Email.SMTP.Username = getenvDefault("SMTP_USERNAME", c.Email.SMTP.Username)
	c.Email.SMTP.Password = getenvDefault("SMTP_PASSWORD", c.Email.SMTP.Password)
	c.Email.From = getenvDefault("EMAIL_FROM", c.Email.From)
	c.Email.To = getenvDefault("EMAIL_TO", c.Email.To)
	c.Email.AdminCc = getenvDefault("EMAIL_ADMIN_CC", c.Email.AdminCc)
	c.Email.SiteName = getenvDefault("EMAIL_SITE_NAME", c.Email.SiteName)
	c.Email.TestMode = getenvBoolDefault("EMAIL_TEST_MODE", c.Email.TestMode)
	c.Email.SendTimeout = getenvDurationDefault("EMAIL_SEND_TIMEOUT", c.Email.SendTimeout)

	c.RateLimit.Window = getenvDurationDefault("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.Max = getenvIntDefault("RATE_LIMIT_MAX", c.RateLimit.Max)
	c.RateLimit.Backend = strings.ToLower(getenvDefault("RATE_LIMIT_BACKEND", c.RateLimit.Backend))
	c.RateLimit.Prefix = getenvDefault("RATE_LIMIT_PREFIX", c.RateLimit.Prefix)

	c.Breaker.Threshold = getenvIntDefault("BREAKER_THRESHOLD", c.Breaker.Threshold)
	c.Breaker.Timeout = getenvDurationDefault("BREAKER_TIMEOUT", c.Breaker.Timeout)

	c.Redis.Addr = getenvDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenvDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvIntDefault("REDIS_DB", c.Redis.DB)

	c.Stats.Enabled = getenvBoolDefault("STATS_ENABLED", c.Stats.Enabled)
	c.Stats.Prefix = getenvDefault("STATS_PREFIX", c.Stats.Prefix)
	c.Stats.TTL = getenvDurationDefault("STATS_TTL", c.Stats.TTL)
	c.Stats.Bucket = getenvDefault("STATS_BUCKET", c.Stats.Bucket)
	c.Stats.TrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", c.Stats.TrackKeys)

	c.Edge.Enabled = getenvBoolDefault("EDGE_RATE_ENABLED", c.Edge.Enabled)
	c.Edge.RPS = getenvFloatDefault("EDGE_RATE_RPS", c.Edge.RPS)
	// IMPORTANTE: com RPS < 1 e burst não informado, o burst default deixaria
	// passar várias requisições seguidas; nesse caso cai para 1.
	if burst, ok := getenvInt("EDGE_RATE_BURST"); ok {
		c.Edge.Burst = burst
	} else if getenvIsSet("EDGE_RATE_RPS") && c.Edge.RPS > 0 && c.Edge.RPS < 1 {
		c.Edge.Burst = 1
	}
	c.Edge.RetryAfter = getenvDurationDefault("EDGE_RETRY_AFTER", c.Edge.RetryAfter)

	c.Concurrency.Max = getenvIntDefault("CONCURRENCY_MAX", c.Concurrency.Max)
	c.Concurrency.Timeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", c.Concurrency.Timeout)

	c.Log.Level = getenvDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenvDefault("LOG_FORMAT", c.Log.Format)
}

// Validate rejeita combinações impossíveis. Credencial do provedor ausente
// não é verificada aqui: o construtor do provedor devolve o erro sentinela.
func (c *Config) Validate() error {
	var errs []error

	switch c.Email.Provider {
	case ProviderResend, ProviderSMTP:
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER must be %q or %q, got %q", ProviderResend, ProviderSMTP, c.Email.Provider))
	}
	if strings.TrimSpace(c.Email.From) == "" {
		errs = append(errs, errors.New("EMAIL_FROM is required"))
	}
	if strings.TrimSpace(c.Email.To) == "" {
		errs = append(errs, errors.New("EMAIL_TO is required"))
	}
	if c.Email.SendTimeout < 0 {
		errs = append(errs, errors.New("EMAIL_SEND_TIMEOUT must be >= 0"))
	}

	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.RateLimit.Backend))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be > 0"))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be > 0"))
	}

	if c.Breaker.Threshold <= 0 {
		errs = append(errs, errors.New("BREAKER_THRESHOLD must be > 0"))
	}
	if c.Breaker.Timeout <= 0 {
		errs = append(errs, errors.New("BREAKER_TIMEOUT must be > 0"))
	}

	if c.Stats.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when STATS_ENABLED=true"))
	}

	if c.Edge.Enabled {
		if c.Edge.RPS <= 0 {
			errs = append(errs, errors.New("EDGE_RATE_RPS must be > 0"))
		}
		if c.Edge.Burst <= 0 {
			errs = append(errs, errors.New("EDGE_RATE_BURST must be > 0"))
		}
	}
	if c.Concurrency.Max < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}

	return errors.Join(errs...)
}

// UsesRedis indica se algum componente precisa do cliente Redis.
func (c *Config) UsesRedis() bool {
	return c.RateLimit.Backend == BackendRedis || c.Stats.Enabled
}
