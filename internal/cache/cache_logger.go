package cache

import (
	"context"
	"log/slog"
)

// Cache keys shared by the services.
const (
	EvaluationListKey = "list:all"
	TeacherListKey    = "teachers:all"
	StudentListKey    = "students:all"
)

// EvaluationKey is the cache key of one evaluation record.
func EvaluationKey(id string) string {
	return "id:" + id
}

// StudentStatsKey is the cache key of one student's statistics.
func StudentStatsKey(id string) string {
	return "student:" + id
}

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateEvaluationCache drops the cached list, the record itself when id
// is known, and every student statistic since any of them may have moved.
func InvalidateEvaluationCache(ctx context.Context, cm *CacheManager, evaluationID string) {
	keys := []string{EvaluationListKey}
	if evaluationID != "" {
		keys = append(keys, EvaluationKey(evaluationID))
	}
	SafeDelete(ctx, cm.Evaluations, keys...)
	SafeInvalidatePattern(ctx, cm.Stats, "student:*")
}

// InvalidateEntityCache drops the cached teacher and student lists.
func InvalidateEntityCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Entities, TeacherListKey, StudentListKey)
}
