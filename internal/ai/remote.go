package ai

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/common"
)

// chatBackend is one HTTP chat endpoint. Backends differ only in wire
// format; prompts, validation, retries and concurrency live here.
type chatBackend interface {
	name() constants.Provider
	complete(ctx context.Context, system, user string, opts Options) (string, error)
}

// remote adapts a chatBackend to the Provider capability.
type remote struct {
	backend chatBackend
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

func newRemote(backend chatBackend, maxConcurrent int64, logger *slog.Logger) *remote {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &remote{
		backend: backend,
		sem:     semaphore.NewWeighted(maxConcurrent),
		logger:  logger,
	}
}

func (r *remote) Name() constants.Provider { return r.backend.name() }

func (r *remote) Identify(ctx context.Context, req IdentifyRequest, opts Options) (IdentifyResult, error) {
	opts = opts.normalized(OpIdentify)
	schema := BuildIdentifySchema()
	raw, err := r.call(ctx, OpIdentify,
		buildIdentifySystemPrompt(req, schema), buildIdentifyUserPrompt(req), schema, opts)
	if err != nil {
		return IdentifyResult{}, err
	}
	var out IdentifyResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return IdentifyResult{}, common.NewAppError(common.CodeAIMalformed, "decode identify verdict", err)
	}
	return out, nil
}

func (r *remote) Categorize(ctx context.Context, req CategorizeRequest, opts Options) (CategorizeResult, error) {
	opts = opts.normalized(OpCategorize)
	schema := BuildCategorizeSchema(req.Allowed)
	raw, err := r.call(ctx, OpCategorize,
		buildCategorizeSystemPrompt(req, schema), buildCategorizeUserPrompt(req), schema, opts)
	if err != nil {
		return CategorizeResult{}, err
	}
	var out CategorizeResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return CategorizeResult{}, common.NewAppError(common.CodeAIMalformed, "decode category verdict", err)
	}
	return out, nil
}

func (r *remote) ExtractCharacters(ctx context.Context, req CharactersRequest, opts Options) (CharactersResult, error) {
	opts = opts.normalized(OpCharacters)
	schema := BuildCharactersSchema()
	raw, err := r.call(ctx, OpCharacters,
		buildCharactersSystemPrompt(req, schema), buildCharactersUserPrompt(req), schema, opts)
	if err != nil {
		return CharactersResult{}, err
	}
	var out CharactersResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return CharactersResult{}, common.NewAppError(common.CodeAIMalformed, "decode character set", err)
	}
	return out, nil
}

// call runs one schema-validated completion with retries. Transport
// failures retry with exponential backoff (base 500ms, ±20% jitter);
// malformed output and auth failures do not.
func (r *remote) call(ctx context.Context, op Operation, system, user string, schema map[string]any, opts Options) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	r.logger.Info("ai.call.start",
		"req_id", rid, "provider", r.backend.name(), "op", string(op),
		"text_len", len(user), "temp", opts.Temperature, "retries", opts.Retries,
	)

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, common.NewAppError(common.CodeAITimeout, "provider busy", err)
	}
	defer r.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt, rid)):
			case <-ctx.Done():
				return nil, common.NewAppError(common.CodeAITimeout, "cancelled during backoff", ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		content, err := r.backend.complete(callCtx, system, user, opts)
		cancel()
		if err != nil {
			lastErr = classifyTransportErr(err)
			if common.HasCode(lastErr, common.CodeProviderUnauthorized) {
				r.logger.Error("ai.call.unauthorized", "req_id", rid, "provider", r.backend.name())
				return nil, lastErr
			}
			r.logger.Warn("ai.call.retry",
				"req_id", rid, "attempt", attempt, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			continue
		}

		raw := extractJSON(content)
		if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
			r.logger.Error("ai.call.schema_validation_failed",
				"req_id", rid, "op", string(op), "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, common.NewAppError(common.CodeAIMalformed, string(op), err)
		}
		r.logger.Info("ai.call.ok",
			"req_id", rid, "op", string(op), "attempts", attempt+1,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return raw, nil
	}
	if lastErr == nil {
		lastErr = common.Errorf(common.CodeAIUnreachable, "%s exhausted", r.backend.name())
	}
	return nil, lastErr
}

func classifyTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewAppError(common.CodeAITimeout, "provider call timed out", err)
	}
	var ae *common.AppError
	if errors.As(err, &ae) {
		return err
	}
	return common.NewAppError(common.CodeAIUnreachable, "provider call failed", err)
}

// backoff derives a jittered exponential delay. The jitter is seeded from
// the request id so behavior is reproducible per call.
func backoff(attempt int, rid string) time.Duration {
	base := 500 * time.Millisecond << (attempt - 1)
	h := fnv.New32a()
	h.Write([]byte(rid))
	h.Write([]byte{byte(attempt)})
	// ±20% jitter
	frac := float64(h.Sum32()%1000)/1000*0.4 - 0.2
	return base + time.Duration(float64(base)*frac)
}

var _ Provider = (*remote)(nil)
