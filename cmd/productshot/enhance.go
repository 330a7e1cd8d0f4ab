package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"productshot/internal/bootstrap"
	"productshot/internal/domain"
	"productshot/internal/infra"
	"productshot/internal/media"
	"productshot/internal/pipeline"
	"productshot/internal/storage"
	"productshot/pkg/zip"
)

var (
	imageFlag    string
	countFlag    int
	callbackFlag string
	productFlag  string
	fakeFlag     bool
	zipFlag      bool
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Plan and synthesize enhanced variants of a product photo",
	RunE:  runEnhance,
}

func init() {
	enhanceCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Local file, http(s) URL or data URL of the product photo")
	enhanceCmd.Flags().IntVarP(&countFlag, "count", "n", 0, "Number of images (default: DEFAULT_IMAGES)")
	enhanceCmd.Flags().StringVar(&callbackFlag, "callback", "", "Webhook URL notified when the run finishes")
	enhanceCmd.Flags().StringVar(&productFlag, "product-id", "", "Product identifier echoed to the callback")
	enhanceCmd.Flags().BoolVar(&fakeFlag, "fake", false, "Use canned prompts and placeholder images")
	enhanceCmd.Flags().BoolVar(&zipFlag, "zip", false, "Also bundle the run into <run>.zip")
	_ = enhanceCmd.MarkFlagRequired("image")
}

func runEnhance(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadCLI()
	if err != nil {
		return err
	}
	if fakeFlag {
		cfg.EnableFakeEndpoint = true
	}
	comps, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	run := comps.Pipeline
	if fakeFlag {
		run = comps.FakePipeline
	}

	input, err := cliInput(imageFlag)
	if err != nil {
		return err
	}
	count := countFlag
	if count == 0 {
		count = cfg.DefaultImages
	}
	if count < 1 || count > cfg.MaxImages {
		return domain.Validation(fmt.Sprintf("number_of_images must be 1..%d", cfg.MaxImages))
	}

	result, err := run.Run(ctx, pipeline.Job{
		Input:       input,
		Count:       count,
		CallbackURL: strings.TrimSpace(callbackFlag),
		Passthrough: domain.Passthrough{ProductID: productFlag},
	})
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	store, err := storage.NewFileStore(outputDir(cfg))
	if err != nil {
		return err
	}
	keys, err := store.SaveRun(ctx, runID, result.Images)
	if err != nil {
		return err
	}
	for i, key := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", store.Path(key), result.Images[i].Prompt)
	}
	if zipFlag && len(keys) > 0 {
		path, err := writeArchive(ctx, store, runID, keys, result.Images)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	logger.Info().Str("run_id", runID).Int("requested", count).Int("generated", len(keys)).Msg("run saved")
	return nil
}

func writeArchive(ctx context.Context, store *storage.FileStore, runID string, keys []string, images []domain.GeneratedImage) (string, error) {
	assets := make([]zip.Asset, 0, len(keys))
	for i, key := range keys {
		assets = append(assets, zip.Asset{Filename: strings.TrimPrefix(key, runID+"/"), Data: images[i].Data})
	}
	data, err := zip.ArchiveAssets(assets)
	if err != nil {
		return "", err
	}
	key, err := store.Write(ctx, runID+".zip", data)
	if err != nil {
		return "", err
	}
	return store.Path(key), nil
}

// cliInput maps the --image value to a pipeline input. Anything that is not
// a URL is read from disk and sent inline.
func cliInput(value string) (media.Input, error) {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return media.Input{URL: value}, nil
	case strings.HasPrefix(lower, "data:"):
		return media.Input{Base64: value}, nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return media.Input{}, errors.Wrap(err, "read image")
	}
	return media.Input{Base64: base64.StdEncoding.EncodeToString(data)}, nil
}

func loadCLI() (*infra.Config, infra.Logger, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, infra.Logger{}, err
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "productshot").Logger()
	if verboseFlag {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return cfg, logger, nil
}

func outputDir(cfg *infra.Config) string {
	if dir := strings.TrimSpace(outFlag); dir != "" {
		return dir
	}
	return cfg.OutputDir
}
