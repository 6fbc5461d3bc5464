package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"consumidor-reports-parser/internal/config"
	"consumidor-reports-parser/internal/normalize"
	"consumidor-reports-parser/internal/scraper"
)

func NewSelectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selectors",
		Short: "Inspect extraction selectors",
	}
	cmd.AddCommand(newSelectorsCheckCmd())
	return cmd
}

func newSelectorsCheckCmd() *cobra.Command {
	var (
		selectorsFile string
		correlation   string
	)

	cmd := &cobra.Command{
		Use:   "check <page.html>",
		Short: "Extract reports from a saved listing page without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read page: %w", err)
			}

			selectors := scraper.DefaultSelectors()
			if selectorsFile != "" {
				if selectors, err = config.LoadSelectors(selectorsFile); err != nil {
					return err
				}
			}

			result, err := scraper.NewScraper(selectors, scraper.Options{
				Correlation: scraper.Correlation(correlation),
			}).Extract(string(page))
			if err != nil {
				return err
			}

			renderPageResult(cmd, result)

			if len(result.Dropped) > 0 {
				return &exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&selectorsFile, "selectors", "s", "", "Selectors YAML file (built-in defaults if empty)")
	cmd.Flags().StringVar(&correlation, "correlation", string(scraper.CorrelationScoped), "Node group correlation: scoped or positional")

	return cmd
}

func renderPageResult(cmd *cobra.Command, result *scraper.PageResult) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Company", "Date", "City", "State", "Status", "Rating", "Response"})

	for _, r := range result.Reports {
		rating := "-"
		if r.UserRating != nil {
			rating = strconv.Itoa(*r.UserRating)
		}
		t.AppendRow(table.Row{
			r.SequenceNum,
			r.CompanyName,
			normalize.FormatDate(r.ReportDate, normalize.DateLayout),
			r.City,
			r.State,
			r.Status,
			rating,
			r.CompanyResponse != "",
		})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("cards: %d", result.CardsFound), fmt.Sprintf("records: %d", len(result.Reports)), "", "", "", "", fmt.Sprintf("dropped: %d", len(result.Dropped))})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()

	for _, d := range result.Dropped {
		fmt.Fprintln(cmd.OutOrStdout(), d.Error())
	}
}
