// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/scriptinfo/internal/config"
	"github.com/blinklabs-io/scriptinfo/koios"
	"github.com/blinklabs-io/scriptinfo/resolver"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
	"github.com/blinklabs-io/scriptinfo/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var resolveFlags = struct {
	source   string
	koiosUrl string
	cacheDir string
}{}

func resolveRun(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	hashes []string,
	source resolver.Source,
	out io.Writer,
) (err error) {
	registry := prometheus.NewRegistry()
	store, err := storage.New(
		storage.WithDataDir(cfg.CacheDir),
		storage.WithLogger(logger),
		storage.WithPromRegistry(registry),
		storage.WithGc(cfg.CacheGc),
		storage.WithBlockCacheSize(cfg.CacheBlockCacheSize),
		storage.WithIndexCacheSize(cfg.CacheIndexCacheSize),
	)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	client := koios.NewClient(
		cfg.KoiosUrl,
		koios.WithTimeout(cfg.RequestTimeout),
		koios.WithBearerToken(cfg.KoiosToken),
		koios.WithLogger(logger),
	)
	r := resolver.New(
		resolver.WithCache(store),
		resolver.WithRemote(client),
		resolver.WithLogger(logger),
		resolver.WithPromRegistry(registry),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for _, hashStr := range hashes {
		hash, err := scriptinfo.ParseHash("hash", hashStr)
		if err != nil {
			return err
		}
		info, err := r.Resolve(ctx, hash, source)
		if err != nil {
			return fmt.Errorf("resolve script %s: %w", hashStr, err)
		}
		if matches, ok := info.NativeCborEncodingMatchesHash().Matches(); ok && !matches {
			logger.Warn(
				fmt.Sprintf(
					"canonical CBOR encoding of native script %s does not reproduce its hash",
					hashStr,
				),
				"component", programName,
			)
		}
		if err := enc.Encode(info); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
	}
	return nil
}

func resolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <script-hash>...",
		Short: "Look up and verify script metadata by script hash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			// Override config with command line flags
			if cmd.Flags().Changed("koios-url") {
				cfg.KoiosUrl = resolveFlags.koiosUrl
			}
			if cmd.Flags().Changed("cache-dir") {
				cfg.CacheDir = resolveFlags.cacheDir
			}
			source, err := resolver.ParseSource(resolveFlags.source)
			if err != nil {
				return err
			}
			logger := commonRun()
			shutdown, err := setupTracing(cmd.Context(), cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error(
						"failed to flush traces: "+err.Error(),
						"component", programName,
					)
				}
			}()
			return resolveRun(
				cmd.Context(),
				cfg,
				logger,
				args,
				source,
				cmd.OutOrStdout(),
			)
		},
	}
	cmd.Flags().
		StringVarP(&resolveFlags.source, "source", "s", string(resolver.SourceAuto), "where to look: auto, cache or remote")
	cmd.Flags().
		StringVar(&resolveFlags.koiosUrl, "koios-url", "", "Koios API base URL (overrides config)")
	cmd.Flags().
		StringVar(&resolveFlags.cacheDir, "cache-dir", "", "cache directory, empty for an in-memory cache (overrides config)")
	return cmd
}
