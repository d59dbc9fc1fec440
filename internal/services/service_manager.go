package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/achievers-lc/learning-center/internal/barcode"
	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/events"
	"github.com/achievers-lc/learning-center/internal/repositories"
	"github.com/achievers-lc/learning-center/internal/storage"
	"github.com/achievers-lc/learning-center/internal/validator"
)

// Dependencies are shared by every service
type Dependencies struct {
	Repo      repositories.Repository
	Cache     *cache.CacheManager
	Logger    *slog.Logger
	Validator *validator.Validator
	Events    events.Publisher
	Blobs     storage.BlobStore
	Codec     *barcode.Codec

	// PasswordCost is the bcrypt cost; zero means bcrypt.DefaultCost
	PasswordCost int
	// BarcodeTTL applies when a barcode is issued without an explicit expiry; zero means no expiry
	BarcodeTTL time.Duration
	// Now is the clock; nil means time.Now in UTC
	Now func() time.Time
}

func (d *Dependencies) withDefaults() Dependencies {
	out := *d
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Validator == nil {
		out.Validator = validator.New()
	}
	if out.Cache == nil {
		out.Cache = cache.NewCacheManager(nil)
	}
	if out.Events == nil {
		out.Events = events.Nop()
	}
	if out.PasswordCost == 0 {
		out.PasswordCost = bcrypt.DefaultCost
	}
	if out.Now == nil {
		out.Now = func() time.Time { return time.Now().UTC() }
	}
	return out
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	userService         UserService
	courseService       CourseService
	enrollmentService   EnrollmentService
	attendanceService   AttendanceService
	importExportService ImportExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies) ServiceManager {
	return &serviceManager{deps: deps.withDefaults()}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}
	if sm.deps.Codec == nil || sm.deps.Blobs == nil {
		return fmt.Errorf("failed to initialize services: barcode codec and blob store are required")
	}

	sm.userService = NewUserService(sm.deps)
	sm.courseService = NewCourseService(sm.deps)
	sm.enrollmentService = NewEnrollmentService(sm.deps)
	sm.attendanceService = NewAttendanceService(sm.deps)
	sm.importExportService = NewImportExportService(sm.deps)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) mustBeReady(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// Service getters
func (sm *serviceManager) Users() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("user")
	return sm.userService
}

func (sm *serviceManager) Courses() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("course")
	return sm.courseService
}

func (sm *serviceManager) Enrollments() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("enrollment")
	return sm.enrollmentService
}

func (sm *serviceManager) Attendance() AttendanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("attendance")
	return sm.attendanceService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("import/export")
	return sm.importExportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	// the cache is optional; a dead redis only degrades reads
	if sm.deps.Cache.Enabled() {
		if err := sm.deps.Cache.HealthCheck(ctx); err != nil {
			sm.deps.Logger.Warn("Cache health check failed", "error", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.Events.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	if repoManager, ok := sm.deps.Repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.deps.Logger.Error("Failed to shutdown repository manager", "error", err)
		}
	} else if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}
