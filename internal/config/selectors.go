package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"consumidor-reports-parser/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла.
// Незаданные в файле поля берутся из scraper.DefaultSelectors().
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	selectors := scraper.DefaultSelectors()
	if err := yaml.Unmarshal(data, selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// ResolveSelectors возвращает селекторы из selectors_file или встроенные, если файл не указан
func (c *Config) ResolveSelectors(configDir string) (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}

	filePath := c.SelectorsFile
	// Если путь относительный, делаем его относительно конфига
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(configDir, filePath)
	}

	return LoadSelectors(filePath)
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if s.Card == "" {
		return fmt.Errorf("card is required")
	}
	if s.CompanyName == "" {
		return fmt.Errorf("company_name is required")
	}
	if s.Status == "" {
		return fmt.Errorf("status is required")
	}
	if s.LabeledBlock == "" || s.BlockLabel == "" || s.BlockText == "" {
		return fmt.Errorf("labeled_block, block_label and block_text are required")
	}
	if s.ReportLabel == "" || s.ResponseLabel == "" || s.FeedbackLabel == "" {
		return fmt.Errorf("report_label, response_label and feedback_label are required")
	}
	if s.DateLocationSpan == "" || s.DateLocationMarker == "" {
		return fmt.Errorf("date_location_span and date_location_marker are required")
	}

	return nil
}
