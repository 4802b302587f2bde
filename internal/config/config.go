package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	DownloadTimeout         time.Duration
	DownloadIdleTimeout     time.Duration
	LogLevel                string

	AccessPIN     string
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	SFTP SFTPConfig

	RemoteRoot       string
	RecycleBinPath   string
	SweepConcurrency int
	SweepTimeout     time.Duration

	StaticDir       string
	PreferencesFile string
	DatabaseURL     string
	DBMaxConns      int32
	DBMinConns      int32

	CORSOrigins     []string
	RateLimitRPM    int
	PINRateLimitRPM int
	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means every client is keyed by its own address.
	TrustedProxies []netip.Prefix
	// MetricsAddr is the separate listener for /metrics. Empty disables it.
	MetricsAddr string

	parseErrs []error
}

// SFTPConfig holds only what is needed to open a remote session.
type SFTPConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	KnownHostsFile string
	Timeout        time.Duration
}

func (c SFTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads the optional .env files followed by the process environment.
func Load(envFiles ...string) (*Config, error) {
	cfg := read(envFiles)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadRemote is Load for tools that only talk to the SFTP server, such as
// the one-shot sweep. The gateway's PIN and HTTP settings are not checked.
func LoadRemote(envFiles ...string) (*Config, error) {
	cfg := read(envFiles)
	if err := cfg.validateRemote(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func read(envFiles []string) *Config {
	_ = godotenv.Load(envFiles...)

	env := &envReader{}
	// Secrets are used exactly as given; surrounding whitespace may be part of them.
	accessPIN := os.Getenv("ACCESS_PIN")

	cfg := &Config{
		ServerPort:              getEnv("PORT", "3000"),
		ServerReadHeaderTimeout: env.getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      env.getDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
		ServerIdleTimeout:       env.getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          env.getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DownloadTimeout:         env.getDuration("DOWNLOAD_TIMEOUT", time.Hour),
		DownloadIdleTimeout:     env.getDuration("DOWNLOAD_IDLE_TIMEOUT", 2*time.Minute),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		AccessPIN:               accessPIN,
		SessionSecret:           getSecret("SESSION_SECRET", accessPIN),
		SessionTTL:              env.getDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:            env.getBool("COOKIE_SECURE", false),
		SFTP: SFTPConfig{
			Host:           strings.TrimSpace(os.Getenv("SFTP_HOST")),
			Port:           env.getInt("SFTP_PORT", 22),
			User:           strings.TrimSpace(os.Getenv("SFTP_USER")),
			Password:       os.Getenv("SFTP_PASS"),
			KnownHostsFile: strings.TrimSpace(os.Getenv("SFTP_KNOWN_HOSTS")),
			Timeout:        env.getDuration("SFTP_TIMEOUT", 30*time.Second),
		},
		RemoteRoot:       getEnv("REMOTE_ROOT", "/web"),
		RecycleBinPath:   getEnv("RECYCLE_BIN_PATH", "/web/RecycleBin"),
		SweepConcurrency: env.getInt("SWEEP_CONCURRENCY", 1),
		SweepTimeout:     env.getDuration("SWEEP_TIMEOUT", 10*time.Minute),
		StaticDir:        getEnv("STATIC_DIR", "./public"),
		PreferencesFile:  getEnv("PREFERENCES_FILE", "./db.json"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:       int32(env.getInt("DB_MAX_CONNS", 4)),
		DBMinConns:       int32(env.getInt("DB_MIN_CONNS", 0)),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "")),
		RateLimitRPM:     env.getInt("RATE_LIMIT_RPM", 0),
		PINRateLimitRPM:  env.getInt("PIN_RATE_LIMIT_RPM", 10),
		TrustedProxies:   env.getPrefixes("TRUSTED_PROXIES"),
		MetricsAddr:      getOptional("METRICS_ADDR", "127.0.0.1:9091"),
	}
	cfg.parseErrs = env.errs

	return cfg
}

func (c *Config) Validate() error {
	if err := errors.Join(c.parseErrs...); err != nil {
		return err
	}

	if strings.TrimSpace(c.AccessPIN) == "" {
		return fmt.Errorf("ACCESS_PIN is required")
	}

	if strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("SESSION_SECRET cannot be empty")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.DownloadTimeout <= 0 || c.DownloadIdleTimeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT and DOWNLOAD_IDLE_TIMEOUT must be positive")
	}

	if err := c.validateRemote(); err != nil {
		return err
	}

	if !strings.HasPrefix(c.RemoteRoot, "/") {
		return fmt.Errorf("REMOTE_ROOT must be an absolute path")
	}

	if c.DatabaseURL == "" && strings.TrimSpace(c.PreferencesFile) == "" {
		return fmt.Errorf("PREFERENCES_FILE cannot be empty when DATABASE_URL is unset")
	}

	return nil
}

func (c *Config) validateRemote() error {
	if err := errors.Join(c.parseErrs...); err != nil {
		return err
	}

	if c.SFTP.Host == "" {
		return fmt.Errorf("SFTP_HOST is required")
	}

	if c.SFTP.User == "" {
		return fmt.Errorf("SFTP_USER is required")
	}

	if c.SFTP.Port <= 0 || c.SFTP.Port > 65535 {
		return fmt.Errorf("SFTP_PORT must be between 1 and 65535")
	}

	if c.SFTP.Timeout <= 0 {
		return fmt.Errorf("SFTP_TIMEOUT must be positive")
	}

	if !strings.HasPrefix(c.RecycleBinPath, "/") {
		return fmt.Errorf("RECYCLE_BIN_PATH must be an absolute path")
	}

	if c.SweepConcurrency <= 0 {
		return fmt.Errorf("SWEEP_CONCURRENCY must be positive")
	}

	if c.SweepTimeout <= 0 {
		return fmt.Errorf("SWEEP_TIMEOUT must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

// getSecret never trims: a PIN or password with spaces is taken literally.
func getSecret(key string, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}

	return v
}

// getOptional lets an explicitly empty variable switch a feature off.
func getOptional(key string, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	return strings.TrimSpace(v)
}

// envReader parses typed variables and keeps every malformed value so that
// Validate can report them instead of quietly using the default.
type envReader struct {
	errs []error
}

func (e *envReader) fail(key string, raw string, want string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q is not a valid %s", key, raw, want))
}

func (e *envReader) getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, raw, "integer")
		return fallback
	}

	return v
}

func (e *envReader) getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(key, raw, "boolean")
		return fallback
	}

	return v
}

func (e *envReader) getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(key, raw, "duration (e.g. 30s, 10m)")
		return fallback
	}

	return v
}

// getPrefixes accepts single addresses and CIDR ranges.
func (e *envReader) getPrefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, entry := range splitCSV(os.Getenv(key)) {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			e.fail(key, entry, "IP address or CIDR")
			continue
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return out
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
