package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	outFlag     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "productshot",
	Short: "Generate enhanced product photos from the command line",
	Long: `productshot runs the enhancement pipeline locally: it plans a set of
creative directions for a product photo, synthesizes one image per direction
and writes the results under the output directory.

Examples:
  productshot enhance --image ./tea.jpg -n 4
  productshot enhance --image https://cdn.example.com/tea.jpg --zip
  productshot edit --image ./tea.png --prompt "put it on a marble counter"
  productshot check-key --provider gemini`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outFlag, "out", "o", "", "Output directory (default: OUTPUT_DIR or ./output)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log at debug level")
	rootCmd.AddCommand(enhanceCmd, editCmd, checkKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
