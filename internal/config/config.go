package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/nft-suite/internal/domain"
)

const serviceName = "suite-runner"

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// EthereumConfig holds the JSON-RPC node and transaction settings
type EthereumConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
	// ChainID is used for signing; 0 asks the node
	ChainID             uint64        `mapstructure:"chain_id"`
	NodeWaitTimeout     time.Duration `mapstructure:"node_wait_timeout"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	// GasPrice in wei; 0 lets the node suggest fees
	GasPrice uint64 `mapstructure:"gas_price"`
	// GasLimit per transaction; 0 estimates
	GasLimit uint64 `mapstructure:"gas_limit"`
}

// SignersConfig holds the signer identities used by the suites
type SignersConfig struct {
	// PrivateKeys are hex encoded; empty falls back to the Hardhat development accounts
	PrivateKeys []string `mapstructure:"private_keys"`
	Labels      []string `mapstructure:"labels"`
}

// ArtifactsConfig holds paths to compiled Hardhat artifacts
type ArtifactsConfig struct {
	ERC721 string `mapstructure:"erc721"`
	ERC998 string `mapstructure:"erc998"`
}

// Path returns the artifact path configured for a suite
func (c ArtifactsConfig) Path(suite domain.SuiteName) string {
	switch suite {
	case domain.SuiteERC721:
		return c.ERC721
	case domain.SuiteERC998:
		return c.ERC998
	default:
		return ""
	}
}

// SuitesConfig holds suite selection and execution settings
type SuitesConfig struct {
	Names       []string      `mapstructure:"names"`
	TokenURI    string        `mapstructure:"token_uri"`
	FailFast    bool          `mapstructure:"fail_fast"`
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	ReportDir   string        `mapstructure:"report_dir"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize int `mapstructure:"pool_size"`
}

// DatabaseConfig holds database configuration for run persistence
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Enabled reports whether run persistence is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// NATSConfig holds NATS JetStream configuration for report publishing
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// Enabled reports whether report publishing is configured
func (c *NATSConfig) Enabled() bool {
	return c.URL != ""
}

// RunnerConfig holds configuration for suite-runner
type RunnerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Ethereum   EthereumConfig  `mapstructure:"ethereum"`
	Signers    SignersConfig   `mapstructure:"signers"`
	Artifacts  ArtifactsConfig `mapstructure:"artifacts"`
	Suites     SuitesConfig    `mapstructure:"suites"`
	Worker     WorkerConfig    `mapstructure:"worker"`
	Database   DatabaseConfig  `mapstructure:"database"`
	NATS       NATSConfig      `mapstructure:"nats"`
}

// SuiteNames returns the selected suites, validated
func (c *RunnerConfig) SuiteNames() ([]domain.SuiteName, error) {
	return domain.ParseSuites(c.Suites.Names)
}

// Validate checks the fields required to run the selected suites
func (c *RunnerConfig) Validate() error {
	if c.Ethereum.RPCURL == "" {
		return errors.New("ethereum.rpc_url is required")
	}

	suites, err := c.SuiteNames()
	if err != nil {
		return err
	}
	if len(suites) == 0 {
		return errors.New("suites.names must select at least one suite")
	}
	for _, s := range suites {
		if c.Artifacts.Path(s) == "" {
			return fmt.Errorf("artifacts.%s is required to run suite %s", s, s)
		}
	}

	if len(c.Signers.Labels) > 0 && len(c.Signers.PrivateKeys) > 0 && len(c.Signers.Labels) != len(c.Signers.PrivateKeys) {
		return fmt.Errorf("signers.labels has %d entries but signers.private_keys has %d", len(c.Signers.Labels), len(c.Signers.PrivateKeys))
	}

	if c.Database.Enabled() && c.Database.DBName == "" {
		return errors.New("database.dbname is required when database.host is set")
	}

	return nil
}

// LoadRunnerConfig loads configuration for suite-runner
func LoadRunnerConfig(configFile string, envPath string) (*RunnerConfig, error) {
	v := configureViper(serviceName, configFile, envPath)

	// Set defaults
	v.SetDefault("ethereum.rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("ethereum.node_wait_timeout", "30s")
	v.SetDefault("ethereum.receipt_timeout", "30s")
	v.SetDefault("ethereum.receipt_poll_interval", "200ms")
	v.SetDefault("suites.names", []string{string(domain.SuiteERC721), string(domain.SuiteERC998)})
	v.SetDefault("suites.token_uri", domain.DefaultTokenURI)
	v.SetDefault("suites.step_timeout", "1m")
	v.SetDefault("worker.pool_size", 1)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("nats.stream_name", "SUITE_REPORTS")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", serviceName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	var cfg RunnerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("NFT_SUITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Ethereum
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.node_wait_timeout",
		"ethereum.receipt_timeout",
		"ethereum.receipt_poll_interval",
		"ethereum.gas_price",
		"ethereum.gas_limit",
		// Signers
		"signers.private_keys",
		"signers.labels",
		// Artifacts
		"artifacts.erc721",
		"artifacts.erc998",
		// Suites
		"suites.names",
		"suites.token_uri",
		"suites.fail_fast",
		"suites.step_timeout",
		"suites.report_dir",
		// Worker
		"worker.pool_size",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
