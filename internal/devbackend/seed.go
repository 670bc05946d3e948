package devbackend

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/profile-session/internal/models"
)

// Seed учётные записи стенда.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser пользователь стенда с паролем в открытом виде.
type SeedUser struct {
	ID           int64                     `yaml:"id"`
	Email        string                    `yaml:"email"`
	Name         string                    `yaml:"name"`
	Username     string                    `yaml:"username"`
	Password     string                    `yaml:"password"`
	Subscription models.SubscriptionStatus `yaml:"subscription"`
	Profiles     []models.Profile          `yaml:"profiles"`
}

// DefaultSeed набор для локальной разработки: пользователь с активной подпиской,
// пользователь с неоплаченной подпиской и администратор без подписки.
func DefaultSeed() Seed {
	return Seed{Users: []SeedUser{
		{
			ID:           1,
			Email:        "user@example.com",
			Name:         "Demo User",
			Username:     "demo",
			Password:     "password",
			Subscription: models.SubscriptionActive,
			Profiles: []models.Profile{
				{ID: 1, Name: "North shop", Address: "north.example.com"},
				{ID: 2, Name: "South shop", Address: "south.example.com"},
				{ID: 7, Name: "Harbor blog", Address: "harbor.example.com"},
			},
		},
		{
			ID:           2,
			Email:        "pending@example.com",
			Name:         "Pending User",
			Username:     "pending",
			Password:     "password",
			Subscription: models.SubscriptionPending,
			Profiles: []models.Profile{
				{ID: 3, Name: "Draft site", Address: "draft.example.com"},
			},
		},
		{
			ID:           3,
			Email:        "admin@example.com",
			Name:         "Admin",
			Username:     "admin",
			Password:     "admin",
			Subscription: models.SubscriptionCancelled,
			Profiles: []models.Profile{
				{ID: 4, Name: "Ops", Address: "ops.example.com"},
			},
		},
	}}
}

// LoadSeed читает набор пользователей из YAML-файла.
func LoadSeed(path string) (Seed, error) {
	const op = "devbackend.LoadSeed"
	var seed Seed
	if err := cleanenv.ReadConfig(path, &seed); err != nil {
		return Seed{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(seed.Users) == 0 {
		return Seed{}, fmt.Errorf("%s: seed has no users", op)
	}
	return seed, nil
}
