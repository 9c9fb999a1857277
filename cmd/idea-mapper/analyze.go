package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sozercan/idea-mapper/apimodels"
	"github.com/sozercan/idea-mapper/internal/llm"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var file, format string

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze text from an argument, a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			a, err := ctx.buildAnalyzer()
			if err != nil {
				return err
			}

			result, err := a.Analyze(cmd.Context(), apimodels.AnalysisRequest{Text: text})
			if err != nil {
				var exhausted *llm.RateLimitExhaustedError
				if errors.As(err, &exhausted) {
					return fmt.Errorf("rate limit exceeded, retry in %s: %w", exhausted.RetryAfter, err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if resolveFormat(format, out) == formatTable {
				_, err := fmt.Fprintln(out, renderAnalysis(result.Analysis))
				return err
			}
			return writeJSON(out, result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read text from file")
	cmd.Flags().StringVarP(&format, "format", "o", formatAuto, "Output format: auto, json or table")
	return cmd
}

func readInput(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", errors.New("no text provided")
		}
		return string(data), nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
