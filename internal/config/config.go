package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Points   PointsConfig   `mapstructure:"points"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, sslmode)
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type ChainConfig struct {
	Name           string `mapstructure:"name"`
	RPCURL         string `mapstructure:"rpc_url"`
	ChainID        uint64 `mapstructure:"chain_id"`
	TokenAddress   string `mapstructure:"token_address"`
	NFTAddress     string `mapstructure:"nft_address"`
	MinterKey      string `mapstructure:"minter_key"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	MintTimeout    int    `mapstructure:"mint_timeout"`
}

type PointsConfig struct {
	RedeemCost  float64 `mapstructure:"redeem_cost"`
	TargetDays  float64 `mapstructure:"target_days"`
	SpeedCap    float64 `mapstructure:"speed_cap"`
	PerNFTBoost float64 `mapstructure:"per_nft_boost"`
	MaxBoost    float64 `mapstructure:"max_boost"`
	LogInterval int     `mapstructure:"log_interval"`
}

type BackupConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Cron          string `mapstructure:"cron"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("chain.request_timeout", 10)
	v.SetDefault("chain.mint_timeout", 120)

	// 积分参数默认值：3333积分满速28天可达
	v.SetDefault("points.redeem_cost", 3333)
	v.SetDefault("points.target_days", 28)
	v.SetDefault("points.speed_cap", 1000)
	v.SetDefault("points.per_nft_boost", 0.005)
	v.SetDefault("points.max_boost", 0.25)
	v.SetDefault("points.log_interval", 600)

	v.SetDefault("backup.cron", "0 0 4 * * *")
	v.SetDefault("backup.retention_days", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// BaseDailyPoints 满速下的日积分，按兑换阈值除以目标天数推得
func (p *PointsConfig) BaseDailyPoints() float64 {
	if p.TargetDays <= 0 {
		return 0
	}
	return p.RedeemCost / p.TargetDays
}
