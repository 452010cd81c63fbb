package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string     `yaml:"env" env:"ENV" env-default:"production"`
	PGSQL         PGSQL      `yaml:"pgsql"`
	Redis         Redis      `yaml:"redis"`
	MinIO         MinIO      `yaml:"minio"`
	Media         Media      `yaml:"media"`
	HTTPServer    HTTPServer `yaml:"http_server"`
	JWTSecret     string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	DefaultAvatar string     `yaml:"default_avatar" env-default:"https://cdn.wayfare.app/avatars/default.png"`
}

type HTTPServer struct {
	Address string `yaml:"address" env-default:"localhost:8080"`
}

type PGSQL struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-default:"postgres"`
	Password string `yaml:"password" env-default:"password"`
	DBName   string `yaml:"dbname" env-default:"wayfare_db"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_KEY"`
	BucketName      string `yaml:"bucket_name" env-default:"wayfare-media"`
	UseSSL          bool   `yaml:"use_ssl" env-default:"false"`
}

type Media struct {
	MaxImageSize      int64    `yaml:"max_image_size" env-default:"10485760"`
	MaxVideoSize      int64    `yaml:"max_video_size" env-default:"104857600"`
	AllowedImageTypes []string `yaml:"allowed_image_types" env-default:"image/jpeg,image/png,image/gif,image/webp"`
	AllowedVideoTypes []string `yaml:"allowed_video_types" env-default:"video/mp4,video/quicktime,video/webm"`
	PresignedURLTTL   int      `yaml:"presigned_url_ttl" env-default:"900"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
