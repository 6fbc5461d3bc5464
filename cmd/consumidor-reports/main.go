// Package main запускает CLI обхода отчётов consumidor.gov.br.
//
// Usage:
//
//	consumidor-reports crawl -c configs/config.yaml
//	consumidor-reports selectors check page.html
package main

func main() {
	Execute()
}
