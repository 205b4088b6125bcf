// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	RabbitMQ                `yaml:"rabbitmq"`
	JWTToken                `yaml:"jwttoken"`
	Telegram                `yaml:"telegram"`
	Provider                `yaml:"provider"`
	Reconciler              `yaml:"reconciler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
}

// JWTToken структура для работы с сервисными токенами триггерных эндпоинтов
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram структура для транспорта уведомлений
type Telegram struct {
	BotToken       string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	APIURL         string `yaml:"api_url" env-default:"https://api.telegram.org"`
	OperatorChatID int64  `yaml:"operator_chat_id" env:"TELEGRAM_OPERATOR_CHAT_ID"`
}

// Provider структура для адаптера внешнего командного сервиса
type Provider struct {
	BaseURL       string        `yaml:"base_url" env-default:"https://www.canva.com"`
	DefaultTeamID string        `yaml:"default_team_id"`
	OpTimeout     time.Duration `yaml:"op_timeout" env-default:"30s"`
	OpsPerMinute  int           `yaml:"ops_per_minute" env-default:"30"`
	MaxListPages  int           `yaml:"max_list_pages" env-default:"50"`
}

// Reconciler структура с параметрами проходов реконсиляции
type Reconciler struct {
	InviteGracePeriod time.Duration `yaml:"invite_grace_period" env-default:"1h"`
	DisplayTimezone   string        `yaml:"display_timezone" env-default:"UTC"`
	PassLockTTL       time.Duration `yaml:"pass_lock_ttl" env-default:"10m"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"Provider:\n"+
			"  BaseURL: %s\n"+
			"  DefaultTeamID: %s\n"+
			"  OpTimeout: %s\n"+
			"Reconciler:\n"+
			"  InviteGracePeriod: %s\n"+
			"  DisplayTimezone: %s\n"+
			"  PassLockTTL: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.MigrationsPath,
		c.AddressRedis,
		c.User,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RabbitMQURL,
		c.BaseURL,
		c.DefaultTeamID,
		c.OpTimeout,
		c.InviteGracePeriod,
		c.DisplayTimezone,
		c.PassLockTTL,
	)
}
