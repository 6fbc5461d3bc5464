package checksum

import (
	"crypto/sha256"
	"fmt"
	"time"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Fingerprint генерирует ключ отчёта для идемпотентной записи.
// Формула: SHA256 от частей company_name, date_iso, user_report,
// каждая с префиксом длины: "|" внутри названия не даёт коллизий
func (g *Generator) Fingerprint(companyName string, reportDate time.Time, userReport string) string {
	// Нормализуем дату в ISO формат (без времени)
	dateISO := reportDate.UTC().Format("2006-01-02")

	hash := sha256.New()
	for _, part := range []string{companyName, dateISO, userReport} {
		fmt.Fprintf(hash, "%d:%s|", len(part), part)
	}

	return fmt.Sprintf("%x", hash.Sum(nil))
}
