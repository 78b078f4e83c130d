package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		Env             string        `yaml:"env"`
		LogLevel        string        `yaml:"log_level"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		CookieSecure    bool          `yaml:"cookie_secure"`
	} `yaml:"server"`

	Database struct {
		Driver       string `yaml:"driver"` // postgres, memory
		DSN          string `yaml:"url"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Email struct {
		Provider     string `yaml:"provider"` // smtp, mock
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	JWT struct {
		Secret     string        `yaml:"secret"`
		TTL        time.Duration `yaml:"ttl"`
		CookieName string        `yaml:"cookie_name"`
	} `yaml:"jwt"`

	OTP struct {
		TTL            time.Duration `yaml:"ttl"`
		ResendInterval time.Duration `yaml:"resend_interval"`
		MaxAttempts    int           `yaml:"max_attempts"`
		// ResetTTL - срок жизни кода сброса пароля
		ResetTTL time.Duration `yaml:"reset_ttl"`
	} `yaml:"otp"`

	Profile struct {
		StudentWeights map[string]int `yaml:"student_weights"`
		CompanyWeights map[string]int `yaml:"company_weights"`
	} `yaml:"profile"`

	Matching struct {
		AllowWithdrawAfterShortlist *bool `yaml:"allow_withdraw_after_shortlist"`
	} `yaml:"matching"`

	Pagination struct {
		DefaultLimit int `yaml:"default_limit"`
		MaxLimit     int `yaml:"max_limit"`
	} `yaml:"pagination"`

	RateLimit struct {
		AuthLimit  int           `yaml:"auth_limit"`
		AuthWindow time.Duration `yaml:"auth_window"`
	} `yaml:"ratelimit"`

	Storage struct {
		Type       string `yaml:"type"`        // local, s3, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // For local storage
		BaseURL    string `yaml:"base_url"`    // Public URL base
		Bucket     string `yaml:"bucket"`      // For S3/R2
		Region     string `yaml:"region"`      // For S3
		AccessKey  string `yaml:"access_key"`  // For S3/R2
		SecretKey  string `yaml:"secret_key"`  // For S3/R2
		Endpoint   string `yaml:"endpoint"`    // For R2 or custom S3
		PublicRead bool   `yaml:"public_read"` // Make files public
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`
		AllowedTypes []string `yaml:"allowed_types"`
		ImageQuality int      `yaml:"image_quality"`
		LogoSize     int      `yaml:"logo_size"`
	} `yaml:"upload"`

	Workers struct {
		ProjectAutoCloseInterval time.Duration `yaml:"project_auto_close_interval"`
		CleanupInterval          time.Duration `yaml:"cleanup_interval"`
	} `yaml:"workers"`

	Alerts struct {
		DiscordToken     string `yaml:"discord_token"`
		DiscordChannelID string `yaml:"discord_channel_id"`
	} `yaml:"alerts"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig загружает конфиг в AppConfig; ошибка конфигурации фатальна
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

// Load: .env -> config.yaml (если есть) -> переменные окружения -> дефолты
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if err := loadFile(configPath, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || os.Getenv("CONFIG_PATH") != "" {
			return nil, err
		}
		log.Printf("Config file %s not found, using environment only", configPath)
	}

	applyEnv(&cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Email.Provider, "EMAIL_PROVIDER")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.BasePath, "STORAGE_BASE_PATH")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Alerts.DiscordToken, "DISCORD_BOT_TOKEN")
	setString(&cfg.Alerts.DiscordChannelID, "DISCORD_CHANNEL_ID")
	setString(&cfg.FirstAdminEmail, "FIRST_ADMIN_EMAIL")
	setString(&cfg.FirstAdminPassword, "FIRST_ADMIN_PASSWORD")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// ApplyDefaults заполняет все незаданные параметры политики
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 7000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}

	if c.Email.Provider == "" {
		c.Email.Provider = "mock"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Seribro"
	}

	if c.JWT.TTL == 0 {
		c.JWT.TTL = 7 * 24 * time.Hour
	}
	if c.JWT.CookieName == "" {
		c.JWT.CookieName = "token"
	}

	if c.OTP.TTL == 0 {
		c.OTP.TTL = 10 * time.Minute
	}
	if c.OTP.ResendInterval == 0 {
		c.OTP.ResendInterval = 30 * time.Second
	}
	if c.OTP.MaxAttempts == 0 {
		c.OTP.MaxAttempts = 5
	}
	if c.OTP.ResetTTL == 0 {
		c.OTP.ResetTTL = 15 * time.Minute
	}

	if len(c.Profile.StudentWeights) == 0 {
		c.Profile.StudentWeights = map[string]int{
			"basic-info": 25,
			"skills":     15,
			"tech-stack": 10,
			"projects":   30,
			"documents":  20,
		}
	}
	if len(c.Profile.CompanyWeights) == 0 {
		c.Profile.CompanyWeights = map[string]int{
			"basic-info":        40,
			"authorized-person": 30,
			"documents":         30,
		}
	}

	if c.Matching.AllowWithdrawAfterShortlist == nil {
		allow := true
		c.Matching.AllowWithdrawAfterShortlist = &allow
	}

	if c.Pagination.DefaultLimit == 0 {
		c.Pagination.DefaultLimit = 10
	}
	if c.Pagination.MaxLimit == 0 {
		c.Pagination.MaxLimit = 100
	}

	if c.RateLimit.AuthLimit == 0 {
		c.RateLimit.AuthLimit = 10
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = time.Minute
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./uploads"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/uploads"
	}

	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 5 * 1024 * 1024 // 5MB
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{
			"application/pdf", "image/jpeg", "image/png", "image/webp",
		}
	}
	if c.Upload.ImageQuality == 0 {
		c.Upload.ImageQuality = 85
	}
	if c.Upload.LogoSize == 0 {
		c.Upload.LogoSize = 256
	}

	if c.Workers.ProjectAutoCloseInterval == 0 {
		c.Workers.ProjectAutoCloseInterval = time.Hour
	}
	if c.Workers.CleanupInterval == 0 {
		c.Workers.CleanupInterval = time.Hour
	}
}

// Validate проверяет обязательные параметры и согласованность политики
func (c *Config) Validate() error {
	var problems []string

	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			problems = append(problems, "database.url is required for postgres driver")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unsupported database.driver %q", c.Database.Driver))
	}
	if sum := sumWeights(c.Profile.StudentWeights); sum != 100 {
		problems = append(problems, fmt.Sprintf("profile.student_weights must sum to 100, got %d", sum))
	}
	if sum := sumWeights(c.Profile.CompanyWeights); sum != 100 {
		problems = append(problems, fmt.Sprintf("profile.company_weights must sum to 100, got %d", sum))
	}
	if c.OTP.MaxAttempts < 1 {
		problems = append(problems, "otp.max_attempts must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AllowWithdrawAfterShortlist - политика отзыва заявки после шортлиста
func (c *Config) AllowWithdrawAfterShortlist() bool {
	return c.Matching.AllowWithdrawAfterShortlist == nil || *c.Matching.AllowWithdrawAfterShortlist
}

func sumWeights(weights map[string]int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	return total
}
