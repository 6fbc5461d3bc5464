package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Переменные окружения, перекрывающие значения из файла (секреты не храним в YAML)
const (
	EnvStorageDSN = "REPORTS_STORAGE_DSN"
	EnvListingURL = "REPORTS_LISTING_URL"
	EnvLogLevel   = "REPORTS_LOG_LEVEL"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			// Логируем ошибку, но не возвращаем — иначе перезапишем основную ошибку
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	// Ключи, которых нет в файле, остаются значениями по умолчанию;
	// явный 0 или false из файла сохраняется
	cfg := Defaults()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env опционален
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := mergo.Merge(&cfg, envOverrides(), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

// envOverrides собирает конфиг только из заданных переменных окружения.
// Пустые поля при слиянии не трогают значения из файла.
func envOverrides() Config {
	var env Config
	env.Storage.DSN = os.Getenv(EnvStorageDSN)
	env.Site.ListingURL = os.Getenv(EnvListingURL)
	env.Observability.LogLevel = os.Getenv(EnvLogLevel)
	return env
}
