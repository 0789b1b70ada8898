package logging

import (
	"context"
	"maps"
)

type contextKey struct{}

// ContextWithFields stores structured fields on ctx for providers that read
// them in WithContext. Later values win on key clashes.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextKey{}, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(contextKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// ContextWithRun tags ctx with the normalization run id. Files normalized
// under that context log the same run_id as the directory run.
func ContextWithRun(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return ContextWithFields(ctx, map[string]any{fieldRunID: runID})
}

// RunID returns the run id stored by ContextWithRun, or "".
func RunID(ctx context.Context) string {
	id, _ := ContextFields(ctx)[fieldRunID].(string)
	return id
}
