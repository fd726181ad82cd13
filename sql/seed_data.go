package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const (
	host     = "localhost"
	port     = 5432
	user     = "authbroker"
	password = "authbroker"
	dbname   = "authbroker"
)

type DB struct {
	*sql.DB
}

func main() {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Cannot connect to database:", err)
	}

	fmt.Println("Successfully connected to database!")

	database := &DB{db}
	if err := database.SeedData(); err != nil {
		log.Fatal("Error seeding data:", err)
	}

	fmt.Println("Data seeded successfully!")
}

func (db *DB) SeedData() error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			tx.Commit()
		}
	}()

	now := time.Now()

	if _, err = tx.Exec(`
		INSERT INTO system_schedule (id, opening_hour, opening_minute, closing_hour, closing_minute, warning_minutes, timezone, updated_at)
		VALUES (1, 8, 0, 20, 0, 15, 'UTC', $1)
		ON CONFLICT (id) DO NOTHING`, now); err != nil {
		return fmt.Errorf("error seeding system_schedule: %w", err)
	}

	services := []struct {
		Name        string
		APIKey      string
		CallbackURL string
	}{
		{"storefront-kiosk", "sk_live_storefront_demo_key", "https://storefront.example.com/callbacks/auth"},
		{"warehouse-terminal", "sk_live_warehouse_demo_key", "https://warehouse.example.com/callbacks/auth"},
	}
	for _, s := range services {
		if _, err = tx.Exec(`
			INSERT INTO registered_services (name, api_key, callback_url, is_active, created_at)
			VALUES ($1, $2, $3, true, $4)
			ON CONFLICT (api_key) DO NOTHING`,
			s.Name, s.APIKey, s.CallbackURL, now); err != nil {
			return fmt.Errorf("error inserting registered service %s: %w", s.Name, err)
		}
	}

	users := []struct {
		Username string
		Email    string
		AuthKey  string
	}{
		{"john_doe", "john@example.com", "ak_live_john_demo_key"},
		{"jane_smith", "jane@example.com", "ak_live_jane_demo_key"},
		{"bob_wilson", "bob@example.com", "ak_live_bob_demo_key"},
	}
	for _, u := range users {
		if _, err = tx.Exec(`
			INSERT INTO active_users (username, email, auth_key, is_active, created_at)
			VALUES ($1, $2, $3, true, $4)
			ON CONFLICT (auth_key) DO NOTHING`,
			u.Username, u.Email, u.AuthKey, now); err != nil {
			return fmt.Errorf("error inserting active user %s: %w", u.Username, err)
		}
	}

	adminPasswordHash, err := bcrypt.GenerateFromPassword([]byte("change-me-admin-password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	admins := []struct {
		Username string
		Role     string
	}{
		{"root", "super_admin"},
		{"oncall", "admin"},
	}
	for _, a := range admins {
		if _, err = tx.Exec(`
			INSERT INTO admins (username, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING`,
			a.Username, string(adminPasswordHash), a.Role, now); err != nil {
			return fmt.Errorf("error inserting admin %s: %w", a.Username, err)
		}
	}

	fmt.Println("Seeded data:")
	fmt.Printf("- 1 system_schedule row\n")
	fmt.Printf("- %d registered services\n", len(services))
	fmt.Printf("- %d active users\n", len(users))
	fmt.Printf("- %d admins\n", len(admins))

	return nil
}
