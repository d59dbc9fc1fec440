package cache

import (
	"context"
	"fmt"
	"log/slog"
)

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

// CourseSlugKey is the cache key of a course looked up by slug
func CourseSlugKey(slug string) string {
	return "slug:" + slug
}

// CourseIDKey is the cache key of a course looked up by id
func CourseIDKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}

// InvalidateCourseCache drops every cached view of a course
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint, slugs ...string) {
	keys := []string{CourseIDKey(courseID)}
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, CourseSlugKey(slug))
		}
	}
	SafeDelete(ctx, cm.Course, keys...)
}

// InvalidateAllCourses drops every cached course view. Cached courses embed their teacher
// and the teacher's account, so teacher writes call this.
func InvalidateAllCourses(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Course, "*")
}

// InvalidateAccountCache drops the cached email -> account mapping
func InvalidateAccountCache(ctx context.Context, cm *CacheManager, email string) {
	SafeDelete(ctx, cm.Account, "email:"+email)
}
