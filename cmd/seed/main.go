package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-account-api/config"
	pginfra "github.com/oksasatya/user-account-api/internal/infrastructure/postgres"
	"github.com/oksasatya/user-account-api/internal/domain/entity"
	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

// Seeds a demo user through the domain constructors so the same invariants
// apply as at registration.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	const plain = "Password123"
	email, err := valueobject.NewEmail("demo@example.com")
	if err != nil {
		log.Fatalf("invalid seed email: %v", err)
	}
	hash, err := helpers.NewBcryptHasher(cfg.BcryptCost).Hash(plain)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	credential, err := valueobject.NewPasswordFromHash(hash)
	if err != nil {
		log.Fatalf("invalid credential: %v", err)
	}

	repo := pginfra.NewUserRepository(pool)
	if existing, err := repo.FindByEmail(ctx, email); err != nil {
		log.Fatalf("seed lookup failed: %v", err)
	} else if existing != nil {
		fmt.Printf("seed user already present: id=%s email=%s\n", existing.ID(), existing.Email())
		return
	}

	u, err := entity.NewUser(helpers.UUIDGenerator{}.NewID(), email, credential, "Demo", "User")
	if err != nil {
		log.Fatalf("failed to build seed user: %v", err)
	}
	saved, err := repo.Save(ctx, u)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", saved.ID(), saved.Email(), plain)
}
