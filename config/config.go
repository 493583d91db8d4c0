package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config 存储所有配置信息
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	// 后端服务
	APIURL             string `mapstructure:"API_URL"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`

	// 令牌持久化
	TokenStore string `mapstructure:"TOKEN_STORE"`
	TokenFile  string `mapstructure:"TOKEN_FILE"`
	TokenKey   string `mapstructure:"TOKEN_KEY"`

	// Redis配置
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// 日志
	LogDir   string `mapstructure:"LOG_DIR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// 日历与排期
	CalendarTZ string `mapstructure:"CALENDAR_TZ"`
	DailyStart int    `mapstructure:"DAILY_START"`
	DailyEnd   int    `mapstructure:"DAILY_END"`
}

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// LoadConfig 从环境变量或配置文件加载配置
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	setDefaults(v)
	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		// 允许配置文件不存在，此时会从环境变量中读取
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_PORT", "8787")
	v.SetDefault("API_URL", "http://localhost:8000")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("TOKEN_STORE", TokenStoreFile)
	v.SetDefault("TOKEN_FILE", defaultTokenFile())
	v.SetDefault("TOKEN_KEY", "auth_token")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CALENDAR_TZ", "")
	v.SetDefault("DAILY_START", 9)
	v.SetDefault("DAILY_END", 17)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".polylearner", "auth_token")
	}
	return filepath.Join(home, ".polylearner", "auth_token")
}

// Validate 检查配置组合是否可用
func (c *Config) Validate() error {
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreRedis:
	default:
		return fmt.Errorf("unknown TOKEN_STORE %q", c.TokenStore)
	}
	if c.APIURL == "" {
		return fmt.Errorf("API_URL must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DailyStart < 0 || c.DailyEnd > 24 || c.DailyStart >= c.DailyEnd {
		return fmt.Errorf("invalid daily window %d-%d", c.DailyStart, c.DailyEnd)
	}
	return nil
}

// Location 返回日视图使用的时区，未配置时为本地时区
func (c *Config) Location() (*time.Location, error) {
	if c.CalendarTZ == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.CalendarTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid CALENDAR_TZ %q: %w", c.CalendarTZ, err)
	}
	return loc, nil
}

// HTTPTimeout 返回请求后端的超时时间
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// GetRedisConnString 返回Redis连接字符串
func (c *Config) GetRedisConnString() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
