package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/salamyar/salamyar/internal/utils"
	"github.com/salamyar/salamyar/pkg/basalam"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the Basalam catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt("from")
		size, _ := cmd.Flags().GetInt("size")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		query := strings.Join(args, " ")

		client := basalam.NewClient(
			viper.GetString("basalam.search_url"),
			viper.GetString("basalam.mlt_url"),
		)

		result, err := client.Search(context.Background(), query, from, size)
		if err != nil {
			return err
		}

		for _, p := range result.Products {
			fmt.Println(strings.Join([]string{
				fmt.Sprintf("%d", p.ID),
				p.Name,
				fmt.Sprintf("%.0f", p.Price),
				p.VendorName,
				p.Link,
			}, delimiter))
		}
		utils.Log.Infof("%d of %d results (from=%d)", len(result.Products), result.TotalCount, result.From)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("from", 0, "Pagination offset")
	searchCmd.Flags().Int("size", 12, "Results per page (max 50)")
	searchCmd.Flags().String("delimiter", " ", "Field delimiter for output")
}
