package utils

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Storage      StorageConfig
	Availability AvailabilityConfig
	Notification NotificationConfig
	Redis        RedisConfig
	MQ           MQConfig
	CORS         CORSConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// StorageConfig selects the snapshot backend: memory, postgres (pgx),
// sqlite (gorm) or gorm_postgres.
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type AvailabilityConfig struct {
	OpenHour       int
	CloseHour      int
	SlotMinutes    int
	HorizonDays    int
	ClosedWeekdays []int
	Timezone       string
}

type NotificationConfig struct {
	ClassDeadlineHours   int
	DefaultDeadlineHours int
	ReminderHours        []int
	SweepIntervalSeconds int
}

type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

type MQConfig struct {
	URL      string
	Exchange string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "fitness-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("STORAGE_DRIVER", "memory")
	viper.SetDefault("SQLITE_PATH", "fitness-booking.db")
	viper.SetDefault("AVAILABILITY_OPEN_HOUR", 9)
	viper.SetDefault("AVAILABILITY_CLOSE_HOUR", 18)
	viper.SetDefault("AVAILABILITY_SLOT_MINUTES", 60)
	viper.SetDefault("AVAILABILITY_HORIZON_DAYS", 60)
	viper.SetDefault("AVAILABILITY_CLOSED_WEEKDAYS", "")
	viper.SetDefault("AVAILABILITY_TIMEZONE", "UTC")
	viper.SetDefault("PAYMENT_DEADLINE_CLASS_HOURS", 24)
	viper.SetDefault("PAYMENT_DEADLINE_DEFAULT_HOURS", 48)
	viper.SetDefault("PAYMENT_REMINDER_HOURS", "12,6")
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 60)
	viper.SetDefault("MQ_EXCHANGE", "booking.events")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")

	// .env is optional, the environment always wins
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		Availability: AvailabilityConfig{
			OpenHour:       viper.GetInt("AVAILABILITY_OPEN_HOUR"),
			CloseHour:      viper.GetInt("AVAILABILITY_CLOSE_HOUR"),
			SlotMinutes:    viper.GetInt("AVAILABILITY_SLOT_MINUTES"),
			HorizonDays:    viper.GetInt("AVAILABILITY_HORIZON_DAYS"),
			ClosedWeekdays: ParseIntList(viper.GetString("AVAILABILITY_CLOSED_WEEKDAYS")),
			Timezone:       viper.GetString("AVAILABILITY_TIMEZONE"),
		},
		Notification: NotificationConfig{
			ClassDeadlineHours:   viper.GetInt("PAYMENT_DEADLINE_CLASS_HOURS"),
			DefaultDeadlineHours: viper.GetInt("PAYMENT_DEADLINE_DEFAULT_HOURS"),
			ReminderHours:        ParseIntList(viper.GetString("PAYMENT_REMINDER_HOURS")),
			SweepIntervalSeconds: viper.GetInt("SWEEP_INTERVAL_SECONDS"),
		},
		Redis: RedisConfig{
			Addr:            viper.GetString("REDIS_ADDR"),
			Password:        viper.GetString("REDIS_PASSWORD"),
			DB:              viper.GetInt("REDIS_DB"),
			CacheTTLSeconds: viper.GetInt("CACHE_TTL_SECONDS"),
		},
		MQ: MQConfig{
			URL:      viper.GetString("RABBIT_URL"),
			Exchange: viper.GetString("MQ_EXCHANGE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: ParseCSV(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	return config, nil
}

// ParseCSV splits a comma separated env value, dropping blanks.
func ParseCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseIntList is ParseCSV for integers; malformed entries are skipped.
func ParseIntList(s string) []int {
	var out []int
	for _, p := range ParseCSV(s) {
		if v, err := strconv.Atoi(p); err == nil {
			out = append(out, v)
		}
	}
	return out
}
