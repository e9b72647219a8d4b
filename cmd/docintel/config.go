// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docintel/internal/container"
	"github.com/pdiddy/docintel/internal/extract"
	"github.com/pdiddy/docintel/internal/judge"
	"github.com/pdiddy/docintel/internal/metrics"
	"github.com/pdiddy/docintel/internal/secrets"
	"github.com/pdiddy/docintel/pkg/types"
)

// addFolderFlags registers the flags shared by both batch commands.
func addFolderFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "folder of documents to process")
	cmd.Flags().String("dest", "", "destination folder (its Error subfolder receives failures)")
	cmd.Flags().String("extractor", string(types.ExtractorFitz), "PDF text backend: fitz or markitdown (container)")
	cmd.Flags().Int("max-pages", 3, "leading PDF pages read for text")
	cmd.Flags().Bool("detect-language", true, "detect the language of each document")
	cmd.Flags().Bool("watch", false, "keep running and process documents as they arrive")
	cmd.Flags().Duration("debounce", 0, "quiet period after new files before a watch run (default 2s)")
}

// addAIFlags registers the language model flags.
func addAIFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", judge.ProviderAnthropic, "language model provider: anthropic or gemini")
	cmd.Flags().String("model", "", "model identifier (default depends on provider)")
	cmd.Flags().Duration("timeout", 0, "timeout of one model call (default 2m)")
	cmd.Flags().Int("max-retries", types.DefaultMaxRetries, "retries after a failed model call")
	cmd.Flags().Duration("backoff", types.DefaultBackoff, "base delay between retries, doubled each retry")
}

// folderConfig resolves the source and destination folders, prompting for
// missing ones when stdin is a terminal.
func folderConfig(cmd *cobra.Command) (types.FolderConfig, error) {
	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	var r *bufio.Reader
	if interactive {
		r = bufio.NewReader(in)
	}

	get := func(key, label string) (string, error) {
		if v := strings.TrimSpace(viper.GetString(key)); v != "" {
			return v, nil
		}
		if !interactive {
			return "", fmt.Errorf("--%s is required", key)
		}
		return prompt(r, cmd.ErrOrStderr(), label)
	}

	src, err := get("source", "Source folder")
	if err != nil {
		return types.FolderConfig{}, err
	}
	dst, err := get("dest", "Destination folder")
	if err != nil {
		return types.FolderConfig{}, err
	}
	return types.FolderConfig{SourceDir: src, DestDir: dst}, nil
}

// isTerminal reports whether r is a file attached to a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func prompt(r *bufio.Reader, w io.Writer, label string) (string, error) {
	for {
		fmt.Fprintf(w, "%s: ", label)
		line, err := r.ReadString('\n')
		if v := strings.TrimSpace(line); v != "" {
			return v, nil
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
		}
	}
}

func extractionConfig() types.ExtractionConfig {
	return types.ExtractionConfig{
		Backend:        types.ExtractionBackend(strings.ToLower(viper.GetString("extractor"))),
		MaxPages:       viper.GetInt("max-pages"),
		DetectLanguage: viper.GetBool("detect-language"),
	}
}

// newExtractor builds the extractor for cfg. The markitdown backend needs
// docker or podman with the markitdown image.
func newExtractor(ctx context.Context, cfg types.ExtractionConfig) (*extract.Extractor, error) {
	switch cfg.Backend {
	case types.ExtractorFitz, "":
		return extract.New(cfg, nil), nil
	case types.ExtractorMarkitdown:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		src, err := extract.NewContainerSource(ctx, rt)
		if err != nil {
			return nil, err
		}
		return extract.New(cfg, src), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q (want %s or %s)", cfg.Backend, types.ExtractorFitz, types.ExtractorMarkitdown)
	}
}

// aiConfig reads the model flags and picks the API key for the provider.
func aiConfig() types.AIConfig {
	provider := strings.ToLower(viper.GetString("provider"))
	key := secrets.AnthropicKey
	if provider == judge.ProviderGemini || provider == "google" {
		key = secrets.GeminiKey
	}
	model := viper.GetString("model")
	if model == "" {
		model = judge.DefaultModel(provider)
	}
	return types.AIConfig{
		Provider:   provider,
		Model:      model,
		APIKey:     loadedSecrets.Lookup(key),
		Timeout:    viper.GetDuration("timeout"),
		MaxRetries: viper.GetInt("max-retries"),
		Backoff:    viper.GetDuration("backoff"),
	}
}

// finishMetrics stamps the run duration and writes the textfile when
// --metrics-file is set. A failed write is logged, not fatal.
func finishMetrics(m *metrics.Run, start time.Time) {
	m.Finish(time.Since(start))
	path := viper.GetString("metrics-file")
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("writing metrics")
	}
}
