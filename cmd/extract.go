package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ytmeta/extractor-service/internal/platform"
	"ytmeta/extractor-service/internal/utils"
)

var flagRaw bool

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract metadata for a single URL and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  extractRun,
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List configured platforms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := platform.DefaultTable(cfg.YTDLP.CookiesDir)
		return printJSON(table.Describe())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// 不需要加载配置
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("extractor", Version)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&flagRaw, "raw", false, "Print the unmodified yt-dlp metadata")
}

func extractRun(cmd *cobra.Command, args []string) error {
	url := utils.SanitizeURL(args[0])
	if !utils.IsValidURL(url) {
		return fmt.Errorf("%w: %q", utils.ErrInvalidURL, args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
	defer cancel()

	comps, err := buildComponents(ctx, false)
	if err != nil {
		return err
	}
	defer comps.Close()

	result, err := comps.service.Extract(ctx, url, true)
	if err != nil {
		return err
	}

	if flagRaw {
		return printJSON(result.Metadata)
	}

	shaped := utils.ShapeMetadata(result.Metadata, url)
	shaped.Attempt = result.Attempt
	shaped.FallbackIndex = result.FallbackIndex
	return printJSON(shaped)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
