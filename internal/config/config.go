package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wave-portal/internal/validation"

	"github.com/joho/godotenv"
)

// DefaultContractAddress is the deployed WavePortal contract.
const DefaultContractAddress = "0x048f3eD92C2fD09B6350f915CdaB5b479B484323"

// Config holds all configuration for the application
type Config struct {
	LogLevel   string
	MaxRetries int
	RetryDelay time.Duration
	HTTP       HTTPConfig
	Wallet     WalletConfig
	Ledger     LedgerConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	Health     HealthConfig
	Emitters   []string
}

// HTTPConfig holds HTTP client configuration
type HTTPConfig struct {
	Timeout time.Duration
}

// WalletConfig points at the wallet provider. An empty RpcEndpoint means no
// wallet-capable provider is present.
type WalletConfig struct {
	RpcEndpoint string
	ApiKey      string
	RateLimit   float64
}

// LedgerConfig describes the node and the contract the client talks to.
type LedgerConfig struct {
	RpcEndpoint     string
	ApiKey          string
	ContractAddress string
	GasLimit        uint64
	PrivateKey      string
	ChainID         int64
	PollInterval    time.Duration
	ExplorerBaseURL string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	BrokerAddress string
	Topic         string
	BatchSize     int
	BatchTimeout  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
	Channel  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// HealthConfig holds the health/metrics server configuration. Port 0 disables
// the server.
type HealthConfig struct {
	Port int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Not fatal, as env vars might be set externally
	_ = godotenv.Load()

	config := &Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		MaxRetries: getEnvAsInt("MAX_RETRIES", 1),
		RetryDelay: time.Duration(getEnvAsInt("RETRY_DELAY", 5)) * time.Second,
		HTTP: HTTPConfig{
			Timeout: time.Duration(getEnvAsInt("HTTP_TIMEOUT", 30)) * time.Second,
		},
		Wallet: WalletConfig{
			RpcEndpoint: getEnv("WALLET_RPC_ENDPOINT", ""),
			ApiKey:      getEnv("WALLET_API_KEY", ""),
			RateLimit:   getEnvAsFloat("WALLET_RATE_LIMIT", 4),
		},
		Ledger: LedgerConfig{
			RpcEndpoint:     getEnv("LEDGER_RPC_ENDPOINT", "http://localhost:8545"),
			ApiKey:          getEnv("LEDGER_API_KEY", ""),
			ContractAddress: getEnv("CONTRACT_ADDRESS", DefaultContractAddress),
			GasLimit:        getEnvAsUint64("LEDGER_GAS_LIMIT", 300000),
			PrivateKey:      getEnv("LEDGER_PRIVATE_KEY", ""),
			ChainID:         int64(getEnvAsInt("LEDGER_CHAIN_ID", 0)),
			PollInterval:    time.Duration(getEnvAsInt("LEDGER_POLL_INTERVAL", 10)) * time.Second,
			ExplorerBaseURL: getEnv("LEDGER_EXPLORER_URL", "https://sepolia.etherscan.io/address/"),
		},
		Kafka: KafkaConfig{
			BrokerAddress: getEnv("KAFKA_BROKER_ADDRESS", "localhost:9092"),
			Topic:         getEnv("KAFKA_TOPIC", "waves"),
			BatchSize:     getEnvAsInt("KAFKA_BATCH_SIZE", 10),
			BatchTimeout:  time.Duration(getEnvAsInt("KAFKA_BATCH_TIMEOUT", 5)) * time.Second,
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Channel:  getEnv("REDIS_CHANNEL", "waves"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "wave_portal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Health: HealthConfig{
			Port: getEnvAsInt("HEALTH_PORT", 8080),
		},
		Emitters: getEnvAsList("EMITTERS", []string{"log"}),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the values a misconfiguration would otherwise only surface
// as remote call faults.
func (c *Config) Validate() error {
	if err := validation.ValidateAddress(c.Ledger.ContractAddress, "ethereum"); err != nil {
		return fmt.Errorf("CONTRACT_ADDRESS: %w", err)
	}
	if err := validation.ValidateRPCURL(c.Ledger.RpcEndpoint); err != nil {
		return fmt.Errorf("LEDGER_RPC_ENDPOINT: %w", err)
	}
	if c.Wallet.RpcEndpoint != "" {
		if err := validation.ValidateRPCURL(c.Wallet.RpcEndpoint); err != nil {
			return fmt.Errorf("WALLET_RPC_ENDPOINT: %w", err)
		}
	}
	if c.Ledger.ExplorerBaseURL != "" {
		if err := validation.ValidateURL(c.Ledger.ExplorerBaseURL); err != nil {
			return fmt.Errorf("LEDGER_EXPLORER_URL: %w", err)
		}
	}
	if c.Ledger.GasLimit == 0 {
		return fmt.Errorf("LEDGER_GAS_LIMIT must be positive")
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	return nil
}

// HasEmitter reports whether name is in the configured emitter list.
func (c *Config) HasEmitter(name string) bool {
	for _, e := range c.Emitters {
		if e == name {
			return true
		}
	}
	return false
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
