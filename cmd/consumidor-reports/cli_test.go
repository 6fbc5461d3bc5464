package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "consumidor-reports version")
	assert.Contains(t, out, "commit:")
}

const savedPage = `<html><body>
<div class="cartao-relato">
  <h3 class="relatos-nome-empresa"><a href="#">Banco XPTO</a></h3>
  <h4 class="relatos-status">Resolvida</h4>
  <div><strong>Relato</strong><span><i class="glyphicon glyphicon-calendar"></i> 15/01/2021, Springfield - IL</span><p>Cobrança indevida.</p></div>
  <div><strong>Resposta</strong><p>Estorno realizado.</p></div>
  <div><strong>Avaliação</strong><p>Nota 9</p><p>Ótimo</p></div>
</div>
<div class="cartao-relato">
  <h3 class="relatos-nome-empresa"><a href="#">Operadora Y</a></h3>
  <h4 class="relatos-status">Não Resolvida</h4>
  <div><strong>Relato</strong><span><i class="glyphicon glyphicon-calendar"></i> 14/01/2021, São Paulo - SP</span><p>Sem sinal.</p></div>
</div>
</body></html>`

func writePage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSelectorsCheck(t *testing.T) {
	out, err := runCmd(t, "selectors", "check", writePage(t, savedPage))
	require.NoError(t, err)

	assert.Contains(t, out, "Banco XPTO")
	assert.Contains(t, out, "Operadora Y")
	assert.Contains(t, out, "15/01/2021")
	assert.Contains(t, out, "records: 2")
}

func TestSelectorsCheckReportsDrops(t *testing.T) {
	page := `<html><body><div class="cartao-relato">
		<h3 class="relatos-nome-empresa"><a>Loja Z</a></h3><h4 class="relatos-status">Resolvida</h4>
		<div><strong>Relato</strong><span><i class="glyphicon"></i> 13/01/2021 Rio</span><p>x</p></div>
	</div></body></html>`

	out, err := runCmd(t, "selectors", "check", writePage(t, page))

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.code)
	assert.Contains(t, out, "malformed_date_location")
}

func TestSelectorsCheckCustomFile(t *testing.T) {
	selectors := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(selectors, []byte("card: div.relato-card\n"), 0o600))

	out, err := runCmd(t, "selectors", "check", "-s", selectors, writePage(t, savedPage))
	require.NoError(t, err)
	assert.Contains(t, out, "cards: 0")
}

func TestCrawlRequiresConfig(t *testing.T) {
	_, err := runCmd(t, "crawl", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
