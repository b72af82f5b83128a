package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// ChainConfig describes the single Gnosis chain the indexer reads from.
// Contract addresses default to the canonical Gnosis mainnet deployments.
type ChainConfig struct {
	RPCURL           string `mapstructure:"rpc_url"`
	ChainID          uint64 `mapstructure:"chain_id"`
	GnoTokenAddress  string `mapstructure:"gno_token_address"`
	OgNftAddress     string `mapstructure:"og_nft_address"`
	MulticallAddress string `mapstructure:"multicall_address"`
	CallTimeout      int    `mapstructure:"call_timeout"`
}

type SnapshotConfig struct {
	Cron string `mapstructure:"cron"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const (
	// Canonical Gnosis mainnet deployments.
	DefaultGnoTokenAddress  = "0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb"
	DefaultMulticallAddress = "0xcA11bde05977b3631167028862bE2a173976CA11"
	DefaultOgNftAddress     = "0x88997988a6A5aAF29BA973d298D276FE75fb69ab"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("chain.gno_token_address", DefaultGnoTokenAddress)
	v.SetDefault("chain.multicall_address", DefaultMulticallAddress)
	v.SetDefault("chain.og_nft_address", DefaultOgNftAddress)
	v.SetDefault("chain.call_timeout", 15)
	v.SetDefault("snapshot.cron", "0 0 0 * * 0")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
