// Package seed fills a store with demo restaurants, menus and customers.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/jaswdr/faker"

	"github.com/Lixing-Zhang/food-ordering/internal/models"
)

// Accounts creates accounts the same way signup does
type Accounts interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error)
}

// Menus adds items to an owner's menu
type Menus interface {
	Add(ctx context.Context, ownerID string, req models.MenuItemRequest) (*models.MenuItem, error)
}

// Profiles fills in customer profile fields
type Profiles interface {
	Update(ctx context.Context, uid string, update models.ProfileUpdate) (*models.UserProfile, error)
}

// Options controls how much data is generated
type Options struct {
	Owners             int
	ItemsPerRestaurant int
	Customers          int
	Password           string
	Seed               int64
}

// DefaultOptions returns a small data set
func DefaultOptions() Options {
	return Options{
		Owners:             3,
		ItemsPerRestaurant: 8,
		Customers:          5,
		Password:           "password",
		Seed:               42,
	}
}

// Account is a generated login
type Account struct {
	UID   string
	Email string
	Role  models.Role
}

// Summary lists what was created
type Summary struct {
	Accounts  []Account
	MenuItems int
}

var dishes = []string{"Pizza", "Curry", "Burger", "Salad", "Soup", "Wrap", "Noodles", "Tacos", "Risotto", "Pie"}

// Seeder generates demo data through the regular services
type Seeder struct {
	accounts Accounts
	menus    Menus
	profiles Profiles
	log      *slog.Logger
}

// New creates a seeder
func New(accounts Accounts, menus Menus, profiles Profiles, log *slog.Logger) *Seeder {
	return &Seeder{accounts: accounts, menus: menus, profiles: profiles, log: log}
}

// Run creates opts.Owners restaurants with menus and opts.Customers
// customers. Emails are numbered so the same options always produce the
// same logins; a second run fails on the first duplicate email.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	fake := faker.NewWithSeed(rand.NewSource(opts.Seed))
	summary := &Summary{}

	for i := 1; i <= opts.Owners; i++ {
		email := fmt.Sprintf("owner%d@foodorder.test", i)
		session, err := s.accounts.Signup(ctx, models.SignupRequest{
			Email:          email,
			Password:       opts.Password,
			Role:           models.RoleOwner,
			RestaurantName: fake.Company().Name(),
		})
		if err != nil {
			return summary, fmt.Errorf("create owner %s: %w", email, err)
		}
		summary.Accounts = append(summary.Accounts, Account{UID: session.UID, Email: email, Role: models.RoleOwner})

		for j := 0; j < opts.ItemsPerRestaurant; j++ {
			req := models.MenuItemRequest{
				Name:  fmt.Sprintf("%s %s", fake.Food().Vegetable(), dishes[fake.IntBetween(0, len(dishes)-1)]),
				Price: fmt.Sprintf("%d.%02d", fake.IntBetween(3, 30), fake.IntBetween(0, 3)*25),
			}
			if _, err := s.menus.Add(ctx, session.UID, req); err != nil {
				return summary, fmt.Errorf("add menu item for %s: %w", email, err)
			}
			summary.MenuItems++
		}
	}

	for i := 1; i <= opts.Customers; i++ {
		email := fmt.Sprintf("customer%d@foodorder.test", i)
		session, err := s.accounts.Signup(ctx, models.SignupRequest{
			Email:    email,
			Password: opts.Password,
			Role:     models.RoleCustomer,
		})
		if err != nil {
			return summary, fmt.Errorf("create customer %s: %w", email, err)
		}

		name := fake.Person().Name()
		address := fake.Address().Address()
		phone := fake.Phone().Number()
		if _, err := s.profiles.Update(ctx, session.UID, models.ProfileUpdate{
			Name:        &name,
			Address:     &address,
			PhoneNumber: &phone,
		}); err != nil {
			return summary, fmt.Errorf("fill profile for %s: %w", email, err)
		}
		summary.Accounts = append(summary.Accounts, Account{UID: session.UID, Email: email, Role: models.RoleCustomer})
	}

	s.log.Info("seed data created",
		"owners", opts.Owners,
		"customers", opts.Customers,
		"menu_items", summary.MenuItems,
	)
	return summary, nil
}
