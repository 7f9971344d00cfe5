// Package bootstrap wires the process-wide dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quorum/internal/cache"
	"quorum/internal/config"
	"quorum/internal/database"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminUsername = "admin"

// Options control runtime initialization behavior.
type Options struct {
	// SeedIfEmpty fills an empty database with a generated community.
	SeedIfEmpty bool
	Community   seed.CommunityOptions
}

// DefaultCommunity is the size of the community generated on first start.
var DefaultCommunity = seed.CommunityOptions{NumUsers: 20, NumQuestions: 40}

// InitRuntime connects to DB and Redis, ensures the bootstrap admin and
// optionally seeds an empty database.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureAdmin(db, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if opts.SeedIfEmpty {
		community := opts.Community
		if community.NumUsers == 0 {
			community = DefaultCommunity
		}
		if err := SeedIfEmpty(db, community); err != nil {
			return nil, nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	return db, r, nil
}

// EnsureAdmin makes the account with email an administrator, creating it
// when missing. An empty email disables it.
func EnsureAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if db == nil || email == "" {
		return nil
	}
	if password == "" {
		return errors.New("admin password is required")
	}

	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			user = models.User{
				Username: adminUsername,
				Email:    email,
				Password: string(hashed),
				IsAdmin:  true,
			}
			return tx.Create(&user).Error
		case findErr != nil:
			return findErr
		case user.IsAdmin:
			return nil
		default:
			return tx.Model(&user).Update("is_admin", true).Error
		}
	})
	if err != nil {
		return err
	}
	// Cached copies still carry the old role.
	cache.InvalidateUser(context.Background(), user.ID)

	middleware.Logger.Info("bootstrap admin ensured", slog.String("email", email))
	return nil
}

// SeedIfEmpty generates a community when the database has no posts yet.
func SeedIfEmpty(db *gorm.DB, opts seed.CommunityOptions) error {
	var posts int64
	if err := db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		return err
	}
	if posts > 0 {
		middleware.Logger.Info("database already populated, skipping seed", slog.Int64("posts", posts))
		return nil
	}

	return seed.NewSeeder(db, seed.Options{}).SeedCommunity(opts)
}
