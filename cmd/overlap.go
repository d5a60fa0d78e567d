package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salamyar/salamyar/internal/utils"
	"github.com/salamyar/salamyar/pkg/aggregate"
	"github.com/salamyar/salamyar/pkg/ai"
	"github.com/salamyar/salamyar/pkg/basalam"
	"github.com/salamyar/salamyar/pkg/overlap"
	"github.com/salamyar/salamyar/pkg/selection"
	"github.com/salamyar/salamyar/pkg/similar"
)

var overlapCmd = &cobra.Command{
	Use:   "overlap",
	Short: "Find vendors covering several products in one shot",
	Long: `Builds a temporary selection from search queries (or from free text run
through the product name extractor) and reports every vendor whose similar
items cover at least two of them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		queries, _ := cmd.Flags().GetStringArray("query")
		text, _ := cmd.Flags().GetString("text")
		capFlag, _ := cmd.Flags().GetInt("cap")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		pageTimeout, _ := cmd.Flags().GetDuration("page-timeout")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if text != "" {
			names, err := extractNames(ctx, text)
			if err != nil {
				// Extraction is best-effort: fall back to the raw text
				// as one query.
				utils.Log.Warnf("product name extraction failed, using raw text: %v", err)
				names = []string{text}
			}
			queries = append(queries, names...)
		}
		if len(queries) < 2 {
			return fmt.Errorf("need at least two products to look for overlaps (got %d)", len(queries))
		}

		client := basalam.NewClient(
			viper.GetString("basalam.search_url"),
			viper.GetString("basalam.mlt_url"),
		)
		if pageTimeout <= 0 {
			pageTimeout = viper.GetDuration("basalam.request_timeout")
		}
		if pageTimeout > 0 {
			client.Timeout = pageTimeout
		}

		// Each query term is its own search session: repeating a term
		// replaces the earlier pick instead of piling up selections.
		store := selection.NewStore()
		for _, q := range queries {
			result, err := client.Search(ctx, q, 0, 1)
			if err != nil {
				utils.Log.Warnf("search for %q failed: %v", utils.Truncate(q, 60), err)
				continue
			}
			if len(result.Products) == 0 {
				utils.Log.Warnf("no catalog match for %q", utils.Truncate(q, 60))
				continue
			}
			p := result.Products[0]
			sel := store.Select(selection.Candidate{
				ItemID:     p.ID,
				ItemName:   p.Name,
				VendorID:   p.VendorID,
				VendorName: p.VendorName,
				StatusID:   p.StatusID,
				ImageURL:   p.ImageURL,
				SlotKey:    q,
			})
			utils.Log.Infof("selected %q (item %d) for query %q", utils.Truncate(p.Name, 60), sel.ItemID, utils.Truncate(q, 40))
		}

		fetcher := similar.NewFetcher(client)
		if capFlag <= 0 {
			capFlag = viper.GetInt("similar.cap")
		}
		if pageSize <= 0 {
			pageSize = viper.GetInt("similar.page_size")
		}
		if capFlag > 0 {
			fetcher.Cap = capFlag
		}
		if pageSize > 0 {
			fetcher.PageSize = pageSize
		}

		report, err := aggregate.Run(ctx, aggregate.Config{
			Store:       store,
			Fetcher:     fetcher,
			Concurrency: concurrency,
			Log:         utils.Log,
			OnSelectionDone: func(sel selection.Selection, found int) {
				utils.Log.Infof("%d similar items for %q", found, utils.Truncate(sel.ItemName, 60))
			},
		})
		if err != nil {
			return err
		}

		printReport(report)
		return nil
	},
}

func extractNames(ctx context.Context, text string) ([]string, error) {
	extractor, err := ai.NewExtractor(ai.Config{
		Provider: viper.GetString("ai.provider"),
		APIKey:   viper.GetString("ai.api_key"),
		Model:    viper.GetString("ai.model"),
		Endpoint: viper.GetString("ai.endpoint"),
	})
	if err != nil {
		return nil, err
	}
	return extractor.ExtractProductNames(ctx, text)
}

func printReport(report *overlap.Report) {
	fmt.Printf("Selections processed: %d\n", report.TotalSelections)
	fmt.Printf("Similar items found:  %d\n", report.TotalSimilarItems)
	fmt.Println()

	if len(report.Vendors) == 0 {
		fmt.Println("No vendor covers more than one of your products.")
		return
	}

	for _, v := range report.Vendors {
		fmt.Printf("%s (vendor %d) covers %d of your products with %d similar items\n",
			v.VendorName, v.VendorID, v.MatchedSelectionCount, len(v.Items))
	}

	fmt.Println()
	for _, s := range report.Summaries {
		fmt.Printf("  %s: %d similar items across %d vendors\n",
			utils.Truncate(s.ItemName, 60), s.ItemsFound, s.Vendors)
	}
}

func init() {
	rootCmd.AddCommand(overlapCmd)
	overlapCmd.Flags().StringArrayP("query", "q", nil, "Product search query; repeat for each product")
	overlapCmd.Flags().String("text", "", "Free-text shopping request, split into products via the AI extractor")
	overlapCmd.Flags().Int("cap", 0, "Max similar items fetched per product (default from config, 100)")
	overlapCmd.Flags().Int("page-size", 0, "Similar-item page size (default from config, 24)")
	overlapCmd.Flags().Int("concurrency", 4, "Concurrent per-product fetches")
	overlapCmd.Flags().Duration("timeout", 2*time.Minute, "Overall time budget for the run")
	overlapCmd.Flags().Duration("page-timeout", 0, "Per-page request timeout (default from config, 15s)")
}
