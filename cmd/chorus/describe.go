package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/service/vision"
	"github.com/spf13/cobra"
)

var (
	describeQuery string
	describeFiles []string
	describeURLs  []string
)

var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Describe or compare images with the vision model",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		if err := config.LoadEnv(); err != nil {
			return err
		}
		analyzer := vision.NewAnalyzer(config.NewVisionConfig(ctx))

		var (
			answer string
			err    error
		)
		switch {
		case len(describeFiles)+len(describeURLs) == 0:
			return errors.New("pass at least one --file or --url")
		case len(describeFiles) == 1 && len(describeURLs) == 0:
			answer, err = analyzer.AnalyzeFile(ctx, describeFiles[0], describeQuery)
		case len(describeURLs) == 1 && len(describeFiles) == 0:
			answer, err = analyzer.AnalyzeURL(ctx, describeURLs[0], describeQuery)
		default:
			images := append([]string{}, describeURLs...)
			for _, path := range describeFiles {
				data, readErr := os.ReadFile(path)
				if readErr != nil {
					return fmt.Errorf("read %s: %w", path, readErr)
				}
				images = append(images, vision.DataURL(data))
			}
			answer, err = analyzer.AnalyzeMany(ctx, images, describeQuery)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVarP(&describeQuery, "query", "q", "", "question to ask about the images")
	describeCmd.Flags().StringSliceVarP(&describeFiles, "file", "f", nil, "local image file (repeatable)")
	describeCmd.Flags().StringSliceVarP(&describeURLs, "url", "u", nil, "image URL (repeatable)")
	rootCmd.AddCommand(describeCmd)
}
