package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ppiankov/provscan/internal/cache"
	"github.com/ppiankov/provscan/internal/extract"
	"github.com/ppiankov/provscan/internal/llm"
	"github.com/ppiankov/provscan/internal/model"
	"github.com/ppiankov/provscan/internal/policy"
	"github.com/ppiankov/provscan/internal/score"
	"github.com/ppiankov/provscan/internal/telemetry"
	"github.com/ppiankov/provscan/internal/util"
)

// Pipeline runs extraction through scoring for one file at a time.
// It holds no per-file state and is safe for concurrent use.
type Pipeline struct {
	extractor  extract.Extractor
	scorer     *score.Scorer
	policyID   string          // fingerprint of the generator policy, part of every cache key
	cache      cache.Cache     // nil disables caching
	summarizer *llm.Summarizer // nil disables explanations
	cacheTTL   time.Duration
	log        *logrus.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCache enables the report cache
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.cache = c
		p.cacheTTL = ttl
	}
}

// WithSummarizer enables explanations
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) {
		p.summarizer = s
	}
}

// WithLogger replaces the package logger
func WithLogger(l *logrus.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// New creates a pipeline from configuration
func New(cfg *model.Config, extractor extract.Extractor, opts ...Option) *Pipeline {
	generators := policy.NewGeneratorPolicy(&cfg.Policy)
	p := &Pipeline{
		extractor: extractor,
		scorer:    score.NewScorer(generators),
		policyID:  generators.Fingerprint(),
		log:       util.Log,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.log.WithFields(logrus.Fields{
		"suspicious":   generators.Suspicious(),
		"manipulation": generators.Manipulation(),
		"policy":       p.policyID,
	}).Debug("generator policy loaded")

	return p
}

// Result contains the analysis of one file
type Result struct {
	Report      model.Report
	Signals     []model.Signal
	Digest      string // hex sha256 of the file contents, "" if unreadable
	CacheHit    bool
	Explanation *model.Explanation
}

// cachedResult is the cache payload
type cachedResult struct {
	Report  model.Report   `json:"report"`
	Signals []model.Signal `json:"signals"`
}

// Analyze produces a report for the file at path. Extraction failures degrade
// to an evidence-free report; the only error is context cancellation.
func (p *Pipeline) Analyze(ctx context.Context, path string) (*Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.Analyze")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := FileIdentityFromPath(path)
	entry := p.log.WithField("file", file.Name)

	// 1. Digest
	digest, err := fileDigest(path)
	if err != nil {
		entry.WithError(err).Debug("digest failed, caching disabled for this file")
	}
	span.SetAttributes(attribute.String("file.name", file.Name), attribute.String("file.digest", digest))

	// 2. Cache lookup
	if cached, ok := p.lookup(digest); ok {
		// The cached report may carry another upload's file name
		cached.Report.FileName, cached.Report.FileType = file.Name, file.Type
		entry.WithField("digest", digest).Debug("cache hit")
		span.SetAttributes(attribute.Bool("cache.hit", true))

		result := &Result{Report: cached.Report, Signals: cached.Signals, Digest: digest, CacheHit: true}
		p.explain(ctx, result)
		return result, nil
	}

	// 3. Extract
	claims, trust, degraded := p.extract(ctx, path, entry)
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// 4. Score and classify
	_, scoreSpan := telemetry.Tracer().Start(ctx, "pipeline.Score")
	scored := p.scorer.Calculate(claims, trust)
	verdict := score.Classify(scored.Score, scored.Confidence)
	scoreSpan.SetAttributes(
		attribute.Int("score", scored.Score),
		attribute.Int("confidence", scored.Confidence),
		attribute.String("verdict", string(verdict)),
	)
	scoreSpan.End()

	// 5. Assemble
	report := AssembleReport(file, claims, trust, scored, verdict)

	entry.WithFields(logrus.Fields{
		"verdict":    report.Verdict,
		"score":      report.Score,
		"confidence": report.ScoreConfidence,
		"claims":     report.ClaimsCount,
	}).Debug("analysis complete")

	// 6. Cache store. A report degraded by a failed extraction is not
	// cached, so the next request retries the extractor.
	if !degraded {
		p.store(digest, cachedResult{Report: report, Signals: scored.Signals}, entry)
	}

	result := &Result{Report: report, Signals: scored.Signals, Digest: digest}

	// 7. Explanation, after scoring; never changes the report
	p.explain(ctx, result)

	return result, nil
}

// extract runs the extractor. Every failure, including a missing manifest,
// yields no claims and an empty Invalid trust record. degraded is true when the
// extractor failed for any reason other than a missing manifest.
func (p *Pipeline) extract(ctx context.Context, path string, entry *logrus.Entry) (claims []model.ClaimRecord, trust model.TrustRecord, degraded bool) {
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.Extract")
	defer span.End()

	store, err := p.extractor.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, extract.ErrNoProvenance) {
			entry.Debug("no provenance data")
		} else {
			entry.WithError(err).Warn("extraction failed")
			span.RecordError(err)
			degraded = true
		}
		return []model.ClaimRecord{}, extract.BuildTrust(nil, model.StateInvalid), degraded
	}

	claims = extract.BuildClaims(store.Manifests)
	trust = extract.BuildTrust(store.Validation, model.StateInvalid)
	span.SetAttributes(
		attribute.Int("claims", len(claims)),
		attribute.Int("certificates", trust.CertificateCount),
	)

	return claims, trust, false
}

func (p *Pipeline) lookup(digest string) (*cachedResult, bool) {
	if p.cache == nil || digest == "" {
		return nil, false
	}

	data, ok := p.cache.Get(cache.CacheKey(digest, p.policyID))
	if !ok {
		return nil, false
	}

	var cached cachedResult
	if err := json.Unmarshal(data, &cached); err != nil {
		_ = p.cache.Delete(cache.CacheKey(digest, p.policyID))
		return nil, false
	}
	return &cached, true
}

func (p *Pipeline) store(digest string, result cachedResult, entry *logrus.Entry) {
	if p.cache == nil || digest == "" {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		entry.WithError(err).Warn("cache encode failed")
		return
	}
	if err := p.cache.Set(cache.CacheKey(digest, p.policyID), data, p.cacheTTL); err != nil {
		entry.WithError(err).Warn("cache store failed")
	}
}

func (p *Pipeline) explain(ctx context.Context, result *Result) {
	if !p.summarizer.IsEnabled() {
		return
	}

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.Explain")
	defer span.End()

	explanation, err := p.summarizer.Explain(ctx, result.Report, result.Signals)
	if err != nil {
		p.log.WithError(err).WithField("file", result.Report.FileName).Warn("explanation failed")
		return
	}
	result.Explanation = explanation
}

// fileDigest returns the hex sha256 of a file's contents
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
