package config

import (
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config 服务配置，全部来自环境变量
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR,default=:8082"`
	MySQLDSN   string `env:"MYSQL_DSN"` // 为空时使用内存存储（本地开发/测试）
	JWTSecret  string `env:"JWT_SECRET,default=edu-chat-dev-secret"`

	ChatListDebounce time.Duration `env:"CHAT_LIST_DEBOUNCE,default=300ms"`
	PingInterval     time.Duration `env:"PING_INTERVAL,default=10s"`
	PongTimeout      time.Duration `env:"PONG_TIMEOUT,default=15s"`
	SendBuffer       int           `env:"SEND_BUFFER,default=32"`
}

// Load 读取 .env 和环境变量
func Load() (Config, error) {
	// .env 不存在不算错误，继续用系统环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DB 全局数据库连接
var DB *gorm.DB

// InitDB 初始化数据库连接
func InitDB(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = db
	log.Println("Database connected")
}
