package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	Timezone       string   `mapstructure:"timezone"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis server is configured. Without one the
// service falls back to in-process locks and skips event fan-out.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Ledger consistency policies.
const (
	ConsistencyStrict     = "strict"
	ConsistencyBestEffort = "best_effort"
)

type LedgerConfig struct {
	RPCURL               string        `mapstructure:"rpc_url"`
	ChainID              int64         `mapstructure:"chain_id"`
	ContractAddress      string        `mapstructure:"contract_address"`
	PrivateKey           string        `mapstructure:"private_key"`
	GasLimit             uint64        `mapstructure:"gas_limit"`
	ConfirmationTimeout  time.Duration `mapstructure:"confirmation_timeout"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	Consistency          string        `mapstructure:"consistency"`
	RequestsPerSecond    float64       `mapstructure:"requests_per_second"`
	MaxReconcileAttempts int           `mapstructure:"max_reconcile_attempts"`
}

func (l *LedgerConfig) IsStrict() bool {
	return l.Consistency == ConsistencyStrict
}

func (l *LedgerConfig) Validate() error {
	switch l.Consistency {
	case ConsistencyStrict, ConsistencyBestEffort:
	default:
		return fmt.Errorf("ledger.consistency must be %q or %q, got %q",
			ConsistencyStrict, ConsistencyBestEffort, l.Consistency)
	}
	if l.RPCURL == "" {
		return fmt.Errorf("ledger.rpc_url is required")
	}
	if l.ContractAddress == "" {
		return fmt.Errorf("ledger.contract_address is required")
	}
	if l.ConfirmationTimeout <= 0 {
		return fmt.Errorf("ledger.confirmation_timeout must be positive")
	}
	return nil
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

func (e *EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

type ReconcilerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}
