package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"productshot/internal/bootstrap"
	"productshot/internal/domain"
	"productshot/internal/media"
	"productshot/internal/providers/openai"
	"productshot/internal/storage"
)

var (
	editImageFlag  string
	editPromptFlag string
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Apply a free-text edit to a local image",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadCLI()
		if err != nil {
			return err
		}
		comps, err := bootstrap.Build(cmd.Context(), cfg, logger, bootstrap.Options{})
		if err != nil {
			return err
		}
		if err := comps.Credentials.Check(); err != nil {
			return err
		}
		prompt := strings.TrimSpace(editPromptFlag)
		if prompt == "" {
			return domain.Validation("prompt is required")
		}
		data, err := os.ReadFile(editImageFlag)
		if err != nil {
			return errors.Wrap(err, "read image")
		}
		if len(data) > cfg.EditMaxBytes {
			return domain.TooLarge("Image too large for serverless payload limit")
		}
		out, err := comps.OpenAI.EditImage(cmd.Context(), openai.EditRequest{
			Model:    cfg.EditModel,
			Prompt:   prompt,
			Image:    data,
			MIME:     media.SniffMIME(data),
			Filename: filepath.Base(editImageFlag),
		})
		if err != nil {
			return domain.Synthesis("image edit failed", err)
		}

		store, err := storage.NewFileStore(outputDir(cfg))
		if err != nil {
			return err
		}
		key, err := store.Write(cmd.Context(), "edits/"+uuid.NewString()+storage.Extension(media.SniffMIME(out)), out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path(key))
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&editImageFlag, "image", "i", "", "Local image file to edit")
	editCmd.Flags().StringVarP(&editPromptFlag, "prompt", "p", "", "Edit instruction")
	_ = editCmd.MarkFlagRequired("image")
	_ = editCmd.MarkFlagRequired("prompt")
}
