// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Splice Authors

// Package cmd provides the splice CLI, a thin consumer of the resolution engine
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/splice-run/splice"
)

// NewRootCmd creates the root command for the splice CLI.
func NewRootCmd() *cobra.Command {
	var level string

	root := &cobra.Command{
		Use:   "splice",
		Short: "Resolve and validate workflow variables",
		Example: `
splice resolve -f vars.yaml

splice resolve -f vars.yaml -w branch=main --strict -o json

splice validate -f vars.yaml
`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := log.ParseLevel(level)
			if err != nil {
				return err
			}
			logger := log.FromContext(cmd.Context())
			logger.SetLevel(l)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&level, "log-level", "l", "info", "Set log level")
	_ = root.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{log.DebugLevel.String(), log.InfoLevel.String(), log.WarnLevel.String(), log.ErrorLevel.String(), log.FatalLevel.String()}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(NewResolveCmd(), NewValidateCmd(), NewSchemaCmd())

	return root
}

// NewResolveCmd creates the resolve sub-command
func NewResolveCmd() *cobra.Command {
	var (
		from   string
		w      map[string]string
		strict bool
		format = FormatYAML
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run one resolution pass over a document and print the resolved values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			fs := afero.NewOsFs()
			f, err := fs.Open(from)
			if err != nil {
				return fmt.Errorf("failed to open %q: %w", from, err)
			}
			defer f.Close()

			doc, err := splice.ReadAndValidateDocument(f)
			if err != nil {
				return fmt.Errorf("invalid document %q: %w", from, err)
			}

			// CLI-provided values enter the pass as literals, overriding the document
			for k, v := range w {
				doc.Vars[k] = splice.Plain(v)
			}

			var opts []splice.ContextOption
			if strict {
				opts = append(opts, splice.WithStrict())
			}

			resolved, reports, err := doc.Resolve(ctx, opts...)
			if err != nil && resolved == nil {
				return err
			}

			rendered, rerr := renderValues(resolved, format)
			if rerr != nil {
				return rerr
			}
			printHighlighted(cmd.OutOrStdout(), rendered, format.Lexer())

			printReports(logger, reports)

			if err != nil {
				return err
			}
			if len(reports) > 0 {
				return fmt.Errorf("%d value(s) failed schema validation", len(reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "file", "f", "splice.yaml", "Read location as variable document")
	_ = cmd.MarkFlagFilename("file", "yaml", "yml", "json")
	cmd.Flags().StringToStringVarP(&w, "with", "w", nil, "Pass key=value pairs into the pass as plain variables")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort the pass on the first resolution error")
	cmd.Flags().VarP(&format, "output", "o", fmt.Sprintf(`Set output format ("%s", "%s")`, FormatYAML, FormatJSON))
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatYAML.String(), FormatJSON.String()}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// NewValidateCmd creates the validate sub-command
func NewValidateCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a variable document and its declared schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.FromContext(cmd.Context())

			fs := afero.NewOsFs()
			f, err := fs.Open(from)
			if err != nil {
				return fmt.Errorf("failed to open %q: %w", from, err)
			}
			defer f.Close()

			if _, err := splice.ReadAndValidateDocument(f); err != nil {
				return fmt.Errorf("invalid document %q: %w", from, err)
			}

			logger.Info("document is valid", "file", from)
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "file", "f", "splice.yaml", "Read location as variable document")
	_ = cmd.MarkFlagFilename("file", "yaml", "yml", "json")

	return cmd
}

// NewSchemaCmd creates the schema sub-command
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for a variable document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := json.MarshalIndent(splice.DocumentSchema(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}

// Main executes the root command for the splice CLI.
//
// It returns 0 on success, 1 on failure and logs any errors.
func Main() int {
	cli := NewRootCmd()

	ctx := context.Background()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})

	logger.SetStyles(DefaultStyles())

	ctx = log.WithContext(ctx, logger)
	if _, err := cli.ExecuteContextC(ctx); err != nil {
		logger.Error(err)
		return 1
	}

	return 0
}
