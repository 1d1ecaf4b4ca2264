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

// Package resolver looks up script info by hash, consulting the local cache
// and the remote indexer and keeping the two in step.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
	"github.com/blinklabs-io/scriptinfo/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/blinklabs-io/scriptinfo/resolver"

var (
	ErrNoCache       = errors.New("no cache configured")
	ErrNoRemote      = errors.New("no remote configured")
	ErrUnknownSource = errors.New("unknown source")
)

// Source selects where Resolve looks for script info
type Source string

const (
	// SourceAuto reads the cache first and falls back to the remote,
	// writing remote results back to the cache
	SourceAuto   Source = "auto"
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
)

// ParseSource validates a source name
func ParseSource(name string) (Source, error) {
	switch Source(name) {
	case SourceAuto, SourceCache, SourceRemote:
		return Source(name), nil
	case "":
		return SourceAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
}

// Cache is the local script info store. Get must return an error matching
// storage.ErrNotFound for a missing entry and a storage.DecodeError for an
// entry that cannot be decoded.
type Cache interface {
	Get(hash lcommon.Blake2b224) (scriptinfo.ScriptInfo, error)
	Put(info scriptinfo.ScriptInfo) error
	Delete(hash lcommon.Blake2b224) error
}

// Remote fetches script info from the indexer
type Remote interface {
	GetScriptInfo(
		ctx context.Context,
		hash lcommon.Blake2b224,
	) (scriptinfo.ScriptInfo, error)
}

type Resolver struct {
	cache          Cache
	remote         Remote
	logger         *slog.Logger
	promRegistry   prometheus.Registerer
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	metrics        *resolverMetrics
	group          singleflight.Group
}

type ResolverOptionFunc func(*Resolver)

// WithCache sets the local cache
func WithCache(cache Cache) ResolverOptionFunc {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithRemote sets the remote indexer client
func WithRemote(remote Remote) ResolverOptionFunc {
	return func(r *Resolver) {
		r.remote = remote
	}
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ResolverOptionFunc {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) ResolverOptionFunc {
	return func(r *Resolver) {
		r.promRegistry = registry
	}
}

// WithTracerProvider sets the trace provider. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) ResolverOptionFunc {
	return func(r *Resolver) {
		r.tracerProvider = tp
	}
}

func New(opts ...ResolverOptionFunc) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if r.tracerProvider == nil {
		r.tracerProvider = otel.GetTracerProvider()
	}
	r.tracer = r.tracerProvider.Tracer(tracerName)
	r.metrics = newResolverMetrics(r.promRegistry)
	return r
}

// Resolve returns the script info for a hash from the given source.
// Concurrent calls for the same hash and source share a single lookup.
func (r *Resolver) Resolve(
	ctx context.Context,
	hash lcommon.Blake2b224,
	source Source,
) (scriptinfo.ScriptInfo, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"resolver.Resolve",
		trace.WithAttributes(
			attribute.String("script.hash", hash.String()),
			attribute.String("resolver.source", string(source)),
		),
	)
	defer span.End()

	info, result, err := r.resolveShared(ctx, hash, source)
	r.metrics.lookups.WithLabelValues(string(source), result).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scriptinfo.ScriptInfo{}, err
	}
	verification := info.NativeCborEncodingMatchesHash()
	r.metrics.verifications.WithLabelValues(verification.String()).Inc()
	span.SetAttributes(
		attribute.String("script.verification", verification.String()),
	)
	return info, nil
}

type lookupResult struct {
	info   scriptinfo.ScriptInfo
	result string
}

func (r *Resolver) resolveShared(
	ctx context.Context,
	hash lcommon.Blake2b224,
	source Source,
) (scriptinfo.ScriptInfo, string, error) {
	key := string(source) + ":" + hash.String()
	// The shared lookup must outlive any single caller's cancellation
	ch := r.group.DoChan(key, func() (any, error) {
		res, err := r.lookup(context.WithoutCancel(ctx), hash, source)
		return res, err
	})
	select {
	case <-ctx.Done():
		return scriptinfo.ScriptInfo{}, resultError, ctx.Err()
	case ret := <-ch:
		res, _ := ret.Val.(lookupResult)
		if ret.Err != nil {
			if res.result == "" {
				res.result = resultError
			}
			return scriptinfo.ScriptInfo{}, res.result, ret.Err
		}
		return res.info, res.result, nil
	}
}

const (
	resultCacheHit  = "cache_hit"
	resultRemoteHit = "remote_hit"
	resultNotFound  = "not_found"
	resultError     = "error"
)

func (r *Resolver) lookup(
	ctx context.Context,
	hash lcommon.Blake2b224,
	source Source,
) (lookupResult, error) {
	switch source {
	case SourceCache:
		info, err := r.fromCache(hash)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return lookupResult{result: resultNotFound}, err
			}
			return lookupResult{result: resultError}, err
		}
		return lookupResult{info: info, result: resultCacheHit}, nil
	case SourceRemote:
		info, err := r.fromRemote(ctx, hash)
		if err != nil {
			return lookupResult{result: remoteErrorResult(err)}, err
		}
		return lookupResult{info: info, result: resultRemoteHit}, nil
	case SourceAuto:
		return r.lookupAuto(ctx, hash)
	default:
		return lookupResult{result: resultError}, fmt.Errorf(
			"%w: %q",
			ErrUnknownSource,
			source,
		)
	}
}

func (r *Resolver) lookupAuto(
	ctx context.Context,
	hash lcommon.Blake2b224,
) (lookupResult, error) {
	if r.cache != nil {
		info, err := r.cache.Get(hash)
		if err == nil {
			return lookupResult{info: info, result: resultCacheHit}, nil
		}
		var decodeErr storage.DecodeError
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Miss, fetch from the remote
		case errors.As(err, &decodeErr):
			r.logger.Warn(
				fmt.Sprintf(
					"discarding undecodable cache entry for script %s: %s",
					hash.String(),
					err,
				),
				"component", "resolver",
			)
			if err := r.cache.Delete(hash); err != nil {
				return lookupResult{result: resultError}, fmt.Errorf(
					"delete cache entry: %w",
					err,
				)
			}
		default:
			return lookupResult{result: resultError}, fmt.Errorf(
				"cache lookup: %w",
				err,
			)
		}
	}
	info, err := r.fromRemote(ctx, hash)
	if err != nil {
		return lookupResult{result: remoteErrorResult(err)}, err
	}
	if info.Hash() != hash {
		// Caching under the returned hash would never serve this query
		r.logger.Warn(
			fmt.Sprintf(
				"remote returned script %s for query %s, not caching",
				info.Hash().String(),
				hash.String(),
			),
			"component", "resolver",
		)
	} else if r.cache != nil {
		if err := r.cache.Put(info); err != nil {
			// The remote answer is still good
			r.logger.Error(
				fmt.Sprintf(
					"failed to cache script %s: %s",
					hash.String(),
					err,
				),
				"component", "resolver",
			)
		}
	}
	return lookupResult{info: info, result: resultRemoteHit}, nil
}

func (r *Resolver) fromCache(
	hash lcommon.Blake2b224,
) (scriptinfo.ScriptInfo, error) {
	if r.cache == nil {
		return scriptinfo.ScriptInfo{}, ErrNoCache
	}
	info, err := r.cache.Get(hash)
	if err != nil {
		return scriptinfo.ScriptInfo{}, fmt.Errorf("cache lookup: %w", err)
	}
	return info, nil
}

func (r *Resolver) fromRemote(
	ctx context.Context,
	hash lcommon.Blake2b224,
) (scriptinfo.ScriptInfo, error) {
	if r.remote == nil {
		return scriptinfo.ScriptInfo{}, ErrNoRemote
	}
	ctx, span := r.tracer.Start(ctx, "resolver.fetchRemote")
	defer span.End()
	info, err := r.remote.GetScriptInfo(ctx, hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scriptinfo.ScriptInfo{}, fmt.Errorf("remote lookup: %w", err)
	}
	r.logger.Debug(
		fmt.Sprintf("fetched script %s from remote", hash.String()),
		"component", "resolver",
	)
	return info, nil
}

func remoteErrorResult(err error) string {
	var emptyErr scriptinfo.EmptyResultError
	if errors.As(err, &emptyErr) {
		return resultNotFound
	}
	return resultError
}
