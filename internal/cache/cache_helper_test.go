package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedCourse{ID: 7, Title: "Optics"}, nil
	}

	var first, second cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseIDKey(7), &first, time.Minute, fetch))
	require.NoError(t, cm.Course.CacheOrExecute(ctx, CourseIDKey(7), &second, time.Minute, fetch))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("course:id:7"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("course:id:7"))
}

func TestInvalidation(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	course := cachedCourse{ID: 3, Title: "Algebra"}
	require.NoError(t, cm.Course.Set(ctx, CourseIDKey(3), course, time.Minute))
	require.NoError(t, cm.Course.Set(ctx, CourseSlugKey("algebra"), course, time.Minute))
	require.NoError(t, cm.Account.Set(ctx, "email:a@example.com", map[string]string{"email": "a@example.com"}, time.Minute))

	InvalidateCourseCache(ctx, cm, 3, "algebra", "")
	assert.False(t, mr.Exists("course:id:3"))
	assert.False(t, mr.Exists("course:slug:algebra"))
	assert.True(t, mr.Exists("account:email:a@example.com"))

	for i := uint(1); i <= 5; i++ {
		require.NoError(t, cm.Course.Set(ctx, CourseIDKey(i), cachedCourse{ID: i}, time.Minute))
	}
	require.NoError(t, cm.Course.Set(ctx, CourseSlugKey("geometry"), cachedCourse{ID: 9}, time.Minute))
	SafeInvalidatePattern(ctx, cm.Course, "id:*")
	var out cachedCourse
	assert.ErrorIs(t, cm.Course.Get(ctx, CourseIDKey(4), &out), ErrCacheNotFound)
	assert.True(t, mr.Exists("course:slug:geometry"))

	InvalidateAllCourses(ctx, cm)
	assert.False(t, mr.Exists("course:slug:geometry"))
	assert.True(t, mr.Exists("account:email:a@example.com"))
}

func TestInvalidatePattern_ManyKeys(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	for i := uint(1); i <= 250; i++ {
		require.NoError(t, cm.Course.Set(ctx, CourseIDKey(i), cachedCourse{ID: i}, time.Minute))
	}
	require.NoError(t, cm.Account.Set(ctx, "email:b@example.com", "b", time.Minute))

	require.NoError(t, cm.Course.InvalidatePattern(ctx, "*"))
	assert.Equal(t, []string{"account:email:b@example.com"}, mr.Keys())
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)
	assert.False(t, cm.Enabled())
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	var out cachedCourse
	assert.ErrorIs(t, cm.Course.Get(ctx, "id:1", &out), ErrCacheNotAvailable)
	assert.NoError(t, cm.Course.Set(ctx, "id:1", cachedCourse{ID: 1}, time.Minute))

	calls := 0
	for range 2 {
		require.NoError(t, cm.Course.CacheOrExecute(ctx, "id:1", &out, time.Minute, func() (interface{}, error) {
			calls++
			return cachedCourse{ID: 1, Title: "Live"}, nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Live", out.Title)
}
