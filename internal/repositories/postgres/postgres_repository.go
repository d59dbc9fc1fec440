package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	account        repositories.AccountRepository
	student        repositories.StudentRepository
	teacher        repositories.TeacherRepository
	parent         repositories.ParentRepository
	course         repositories.CourseRepository
	courseModule   repositories.CourseModuleRepository
	lesson         repositories.LessonRepository
	enrollment     repositories.EnrollmentRepository
	lessonProgress repositories.LessonProgressRepository
	barcode        repositories.BarcodeRepository
	liveClass      repositories.LiveClassRepository
	attendance     repositories.AttendanceRepository
	attendanceLog  repositories.AttendanceLogRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	return newRepository(config.DB, config.RedisClient, cache.NewCacheManager(config.RedisClient))
}

// newRepository binds every sub-repository to db, which is either the pool or an open transaction
func newRepository(db *gorm.DB, redisClient *redis.Client, cacheManager *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:           db,
		redisClient:  redisClient,
		cacheManager: cacheManager,

		account:        NewAccountPostgreSQL(db, cacheManager),
		student:        NewStudentPostgreSQL(db),
		teacher:        NewTeacherPostgreSQL(db),
		parent:         NewParentPostgreSQL(db),
		course:         NewCoursePostgreSQL(db, cacheManager),
		courseModule:   NewCourseModulePostgreSQL(db),
		lesson:         NewLessonPostgreSQL(db),
		enrollment:     NewEnrollmentPostgreSQL(db),
		lessonProgress: NewLessonProgressPostgreSQL(db),
		barcode:        NewBarcodePostgreSQL(db),
		liveClass:      NewLiveClassPostgreSQL(db),
		attendance:     NewAttendancePostgreSQL(db),
		attendanceLog:  NewAttendanceLogPostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) Account() repositories.AccountRepository { return r.account }
func (r *PostgreSQLRepository) Student() repositories.StudentRepository { return r.student }
func (r *PostgreSQLRepository) Teacher() repositories.TeacherRepository { return r.teacher }
func (r *PostgreSQLRepository) Parent() repositories.ParentRepository   { return r.parent }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository   { return r.course }

func (r *PostgreSQLRepository) CourseModule() repositories.CourseModuleRepository {
	return r.courseModule
}

func (r *PostgreSQLRepository) Lesson() repositories.LessonRepository { return r.lesson }

func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}

func (r *PostgreSQLRepository) LessonProgress() repositories.LessonProgressRepository {
	return r.lessonProgress
}

func (r *PostgreSQLRepository) Barcode() repositories.BarcodeRepository { return r.barcode }

func (r *PostgreSQLRepository) LiveClass() repositories.LiveClassRepository { return r.liveClass }

func (r *PostgreSQLRepository) Attendance() repositories.AttendanceRepository {
	return r.attendance
}

func (r *PostgreSQLRepository) AttendanceLog() repositories.AttendanceLogRepository {
	return r.attendanceLog
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, r.redisClient, r.cacheManager))
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.cacheManager.Enabled() {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connectivity and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return errors.New("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return errors.New("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
