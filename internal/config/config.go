package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"aptracker/internal/checklist"
	"aptracker/internal/duedate"
	"aptracker/internal/lifecycle"
	"aptracker/internal/logger"
	"aptracker/internal/money"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const DefaultFile = "configs/config.yaml"

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		Mode               string   `mapstructure:"mode"` // gin mode: debug, release, test
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Storage struct {
		Backend string `mapstructure:"backend"` // postgres, memory
	} `mapstructure:"storage"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
	} `mapstructure:"jwt"`

	Log logger.LogConfig `mapstructure:"log"`

	Attachments struct {
		Bucket       string        `mapstructure:"bucket"` // empty disables the object store
		Region       string        `mapstructure:"region"`
		Endpoint     string        `mapstructure:"endpoint"`
		AccessKey    string        `mapstructure:"access_key"`
		SecretKey    string        `mapstructure:"secret_key"`
		UsePathStyle bool          `mapstructure:"use_path_style"`
		PresignTTL   time.Duration `mapstructure:"presign_ttl"`
	} `mapstructure:"attachments"`

	Admin struct {
		Username string `mapstructure:"username"`
		Email    string `mapstructure:"email"`
		Password string `mapstructure:"password"`
	} `mapstructure:"admin"`

	Rules Rules `mapstructure:"rules"`
}

// Rules are the business constants handed to the engines.
type Rules struct {
	ReportingCurrency          string             `mapstructure:"reporting_currency"`
	Currencies                 []string           `mapstructure:"currencies"`
	Rates                      map[string]float64 `mapstructure:"rates"` // 1 unit = rate units of the reporting currency
	CycleTermCodes             []int              `mapstructure:"cycle_term_codes"`
	CycleCutoffDay             int                `mapstructure:"cycle_cutoff_day"`
	CycleLengthDays            int                `mapstructure:"cycle_length_days"`
	StampDutyThreshold         string             `mapstructure:"stamp_duty_threshold"`
	CheckPOBeforeDelivery      bool               `mapstructure:"check_po_before_delivery"`
	CheckDeliveryBeforeInvoice bool               `mapstructure:"check_delivery_before_invoice"`
	CheckTaxInvoiceDateMatch   bool               `mapstructure:"check_tax_invoice_date_match"`
	EnforceDocuments           bool               `mapstructure:"enforce_documents"`
	ApproverRole               string             `mapstructure:"approver_role"`
	ForecastMonths             int                `mapstructure:"forecast_months"`
	DashboardHorizon           int                `mapstructure:"dashboard_horizon_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "aptracker")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("storage.backend", "postgres")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)

	def := logger.DefaultConfig()
	v.SetDefault("log.level", def.Level)
	v.SetDefault("log.format", def.Format)
	v.SetDefault("log.time_format", def.TimeFormat)
	v.SetDefault("log.output", def.Output)

	v.SetDefault("attachments.bucket", "")
	v.SetDefault("attachments.region", "auto")
	v.SetDefault("attachments.endpoint", "")
	v.SetDefault("attachments.access_key", "")
	v.SetDefault("attachments.secret_key", "")
	v.SetDefault("attachments.use_path_style", true)
	v.SetDefault("attachments.presign_ttl", 15*time.Minute)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	v.SetDefault("rules.reporting_currency", money.IDR)
	v.SetDefault("rules.currencies", []string{money.IDR, money.USD, money.SGD})
	v.SetDefault("rules.rates", map[string]float64{money.USD: 15000})
	v.SetDefault("rules.cycle_term_codes", []int{30, 60, 90})
	v.SetDefault("rules.cycle_cutoff_day", 25)
	v.SetDefault("rules.cycle_length_days", 30)
	v.SetDefault("rules.stamp_duty_threshold", "5000000")
	v.SetDefault("rules.check_po_before_delivery", true)
	v.SetDefault("rules.check_delivery_before_invoice", true)
	v.SetDefault("rules.check_tax_invoice_date_match", true)
	v.SetDefault("rules.enforce_documents", false)
	v.SetDefault("rules.approver_role", lifecycle.RoleFinanceManager)
	v.SetDefault("rules.forecast_months", 3)
	v.SetDefault("rules.dashboard_horizon_days", 14)
}

// Load reads configs/.env, then the YAML file at path (optional), then the
// environment. Env names are the upper-cased key with dots replaced by
// underscores, e.g. DATABASE_HOST or RULES_CYCLE_CUTOFF_DAY.
func Load(path string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	v.SetConfigType("yaml")
	if path == "" {
		path = DefaultFile
	}
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// legacy variable names used by existing deployments
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &cfg.Server.Port); err != nil {
			return nil, fmt.Errorf("invalid PORT %q", port)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Mode == "release" && c.JWT.Secret == "" {
		return errors.New("jwt.secret is required in release mode")
	}
	switch c.Storage.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.backend must be postgres or memory, got %q", c.Storage.Backend)
	}
	if c.Rules.CycleCutoffDay < 1 || c.Rules.CycleCutoffDay > 28 {
		return fmt.Errorf("rules.cycle_cutoff_day must be between 1 and 28, got %d", c.Rules.CycleCutoffDay)
	}
	if _, err := decimal.NewFromString(c.Rules.StampDutyThreshold); err != nil {
		return fmt.Errorf("rules.stamp_duty_threshold: %w", err)
	}
	if _, err := c.Rules.Normalizer(); err != nil {
		return fmt.Errorf("rules.rates: %w", err)
	}
	return nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	d := c.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// JWTSecret falls back to a development key outside release mode.
func (c *Config) JWTSecret() []byte {
	if c.JWT.Secret == "" {
		return []byte("default_super_secret_key")
	}
	return []byte(c.JWT.Secret)
}

func (r Rules) DueDateRules() duedate.Rules {
	return duedate.Rules{
		CycleCodes:  append([]int(nil), r.CycleTermCodes...),
		CycleLength: r.CycleLengthDays,
		CutoffDay:   r.CycleCutoffDay,
	}
}

func (r Rules) Normalizer() (*money.Normalizer, error) {
	rates := make(map[string]decimal.Decimal, len(r.Rates))
	for code, rate := range r.Rates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	return money.NewNormalizer(r.ReportingCurrency, rates)
}

func (r Rules) Checklist() checklist.Config {
	threshold, err := decimal.NewFromString(r.StampDutyThreshold)
	if err != nil {
		threshold = checklist.DefaultConfig().StampDutyThreshold
	}
	return checklist.Config{
		StampDutyThreshold:         threshold,
		CheckPOBeforeDelivery:      r.CheckPOBeforeDelivery,
		CheckDeliveryBeforeInvoice: r.CheckDeliveryBeforeInvoice,
		CheckTaxInvoiceDateMatch:   r.CheckTaxInvoiceDateMatch,
		EnforceDocuments:           r.EnforceDocuments,
	}
}

func (r Rules) Policy() lifecycle.Policy {
	return lifecycle.Policy{ApproverRole: r.ApproverRole}
}

// SupportedCurrencies returns the configured currency codes upper-cased.
func (r Rules) SupportedCurrencies() []string {
	out := make([]string, 0, len(r.Currencies))
	for _, c := range r.Currencies {
		out = append(out, strings.ToUpper(strings.TrimSpace(c)))
	}
	return out
}
