// Ininicializing common application configuration
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Render   RenderConfig   `mapstructure:"render"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type AppConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	RoutePrefix string `mapstructure:"route_prefix"`
	// Tenant namespaces the rendition cache; defaults to the database name.
	Tenant string `mapstructure:"tenant"`
}

type CacheConfig struct {
	Dir string `mapstructure:"dir"`
	// MaxAge is sent as Cache-Control max-age.
	MaxAge time.Duration `mapstructure:"max_age"`
	// Locker is "local" or "redis".
	Locker    string        `mapstructure:"locker"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
	LockRetry time.Duration `mapstructure:"lock_retry"`
}

type RenderConfig struct {
	JPEGQuality  int  `mapstructure:"jpeg_quality"`
	MaxDimension uint `mapstructure:"max_dimension"`
	AutoOrient   bool `mapstructure:"auto_orient"`
}

type StorageConfig struct {
	// Driver is "file" or "postgres".
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

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
	Migrate         bool          `mapstructure:"migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	EventsTopic string   `mapstructure:"events_topic"`
	WarmTopic   string   `mapstructure:"warm_topic"`
	GroupID     string   `mapstructure:"group_id"`
	Enabled     bool     `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads config.yaml from dir. Every key can be overridden from the
// environment as TRANSFORM_<SECTION>_<KEY>. A missing file is not an error.
func LoadConfig(dir string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath(dir)
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvPrefix("TRANSFORM")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if err := viperInstance.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if c.App.Tenant == "" {
		c.App.Tenant = c.Database.DBName
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	// App defaults
	v.SetDefault("app.base_url", "")
	v.SetDefault("app.route_prefix", "/static-file-transform")
	v.SetDefault("app.tenant", "")

	// Cache defaults
	v.SetDefault("cache.dir", "/tmp/nereid")
	v.SetDefault("cache.max_age", 24*time.Hour)
	v.SetDefault("cache.locker", "local")
	v.SetDefault("cache.lock_ttl", 30*time.Second)
	v.SetDefault("cache.lock_retry", 50*time.Millisecond)

	// Render defaults
	v.SetDefault("render.jpeg_quality", 90)
	v.SetDefault("render.max_dimension", 4096)
	v.SetDefault("render.auto_orient", false)

	// Storage defaults
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "./storage")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "transform")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "transform")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 4*time.Second)

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.events_topic", "rendition-events")
	v.SetDefault("kafka.warm_topic", "rendition-warm")
	v.SetDefault("kafka.group_id", "rendition-warmer")
	v.SetDefault("kafka.enabled", false)

	// Log defaults
	v.SetDefault("log.level", "info")
}
