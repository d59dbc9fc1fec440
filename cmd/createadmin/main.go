// Command createadmin creates the first super admin account. Running it again is a no-op.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/achievers-lc/learning-center/internal/config"
	"github.com/achievers-lc/learning-center/internal/repositories/postgres"
	"github.com/achievers-lc/learning-center/internal/services"
	"github.com/achievers-lc/learning-center/pkg"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (ADMIN_PASSWORD)")
	firstName := flag.String("first-name", os.Getenv("ADMIN_FIRST_NAME"), "first name (ADMIN_FIRST_NAME)")
	lastName := flag.String("last-name", os.Getenv("ADMIN_LAST_NAME"), "last name (ADMIN_LAST_NAME)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
	defer repo.Close()

	users := services.NewUserService(services.Dependencies{
		Repo:   repo,
		Logger: logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	account, created, err := users.EnsureSuperAdmin(ctx, &services.SuperAdminRequest{
		Email:     *email,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
	})
	if err != nil {
		var ve services.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
			}
		}
		log.Fatalf("Failed to create super admin: %v", err)
	}

	if created {
		fmt.Printf("Created super admin %s (id %d)\n", account.Email, account.ID)
		return
	}
	fmt.Printf("Super admin %s already exists (id %d)\n", account.Email, account.ID)
}
