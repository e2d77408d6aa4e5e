package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	RabbitMQ  RabbitMQConfig `mapstructure:"rabbitmq"`
	Worker    WorkerConfig   `mapstructure:"worker"`
	Catalog   CatalogConfig  `mapstructure:"catalog"`
	Watcher   WatcherConfig  `mapstructure:"watcher"`
	Log       LogConfig      `mapstructure:"log"`
	APKDir    string         `mapstructure:"apk_dir"`
	ResultDir string         `mapstructure:"result_dir"`
	DataDir   string         `mapstructure:"data_dir"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // mysql, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

type RabbitMQConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	VHost    string `mapstructure:"vhost"`
	Queue    string `mapstructure:"queue"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"` // Worker 数量
	QueueSize   int `mapstructure:"queue_size"`  // 任务队列大小
}

// CatalogConfig 规则目录配置
type CatalogConfig struct {
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"` // 规则表快照 TTL
	SeedBuiltin     bool `mapstructure:"seed_builtin"`      // 启动时是否写入内置规则
}

// WatcherConfig 入站目录监听配置
type WatcherConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	DebounceSeconds int  `mapstructure:"debounce_seconds"` // 去抖窗口
	StableSeconds   int  `mapstructure:"stable_seconds"`   // 文件大小稳定等待
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// 环境变量覆盖（支持嵌套配置）
	viper.AutomaticEnv()

	// RabbitMQ
	viper.BindEnv("rabbitmq.host", "RABBITMQ_HOST")
	viper.BindEnv("rabbitmq.port", "RABBITMQ_PORT")
	viper.BindEnv("rabbitmq.user", "RABBITMQ_USER")
	viper.BindEnv("rabbitmq.password", "RABBITMQ_PASS")

	// Database
	viper.BindEnv("database.type", "DB_TYPE")
	viper.BindEnv("database.host", "MYSQL_HOST")
	viper.BindEnv("database.port", "MYSQL_PORT")
	viper.BindEnv("database.user", "MYSQL_USER")
	viper.BindEnv("database.password", "MYSQL_PASS")
	viper.BindEnv("database.db_name", "MYSQL_DB")

	// 目录
	viper.BindEnv("apk_dir", "APK_DIR")
	viper.BindEnv("result_dir", "RESULT_DIR")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
