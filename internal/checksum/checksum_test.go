package checksum

import (
	"testing"
	"time"
)

func TestFingerprint(t *testing.T) {
	gen := NewGenerator()

	company := "Banco XPTO"
	report := "Cobrança indevida na fatura"
	date := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)

	fp1 := gen.Fingerprint(company, date, report)
	fp2 := gen.Fingerprint(company, date, report)

	// Ключ должен быть детерминированным
	if fp1 != fp2 {
		t.Errorf("Fingerprint not deterministic: %s != %s", fp1, fp2)
	}

	// 64 символа (SHA256 hex)
	if len(fp1) != 64 {
		t.Errorf("Fingerprint wrong length: %d, expected 64", len(fp1))
	}

	if fp1 == gen.Fingerprint("Operadora Y", date, report) {
		t.Errorf("Fingerprint should change when company changes")
	}

	if fp1 == gen.Fingerprint(company, date.AddDate(0, 0, 1), report) {
		t.Errorf("Fingerprint should change when date changes")
	}

	// Время внутри дня не влияет на ключ
	if fp1 != gen.Fingerprint(company, date.Add(13*time.Hour), report) {
		t.Errorf("Fingerprint should depend on the calendar date only")
	}
}

func TestFingerprintSeparatorInParts(t *testing.T) {
	gen := NewGenerator()
	date := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)

	// Простая склейка через "|" дала бы одну строку:
	// "Loja|2021-01-15|X|2021-01-15|texto"
	a := gen.Fingerprint("Loja|2021-01-15|X", date, "texto")
	b := gen.Fingerprint("Loja", date, "X|2021-01-15|texto")
	if a == b {
		t.Errorf("Fingerprint must differ when a part contains the separator")
	}
}
