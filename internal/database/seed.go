package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data: a default
// admin, a demo viewer with category credits, the four marketplace
// categories, and one active template per category.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	if err := seedUsers(db); err != nil {
		return err
	}
	if err := seedCategories(db); err != nil {
		return err
	}
	if err := seedTemplates(db); err != nil {
		return err
	}
	if err := seedGrants(db); err != nil {
		return err
	}
	if err := seedListings(db); err != nil {
		return err
	}

	slog.Info("database seeded",
		"admin", "admin@listora.local",
		"viewer", "viewer@listora.local",
		"password", "admin",
	)
	return nil
}

func seedUsers(db *sql.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	users := []struct {
		email, name, role string
		premium           bool
	}{
		{"admin@listora.local", "Admin", "admin", true},
		{"viewer@listora.local", "Demo Viewer", "viewer", false},
	}
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (email, password_hash, display_name, role, is_premium)
			VALUES ($1, $2, $3, $4, $5)
		`, u.email, string(hash), u.name, u.role, u.premium)
		if err != nil {
			return fmt.Errorf("seed insert user %s: %w", u.email, err)
		}
	}
	return nil
}

func seedCategories(db *sql.DB) error {
	categories := []struct {
		slug, name string
		restricted bool
		sortOrder  int
	}{
		{"jobs", "Jobs", true, 1},
		{"homes", "Homes", false, 2},
		{"cars", "Cars", false, 3},
		{"tenders", "Tenders", true, 4},
	}
	for _, c := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (slug, name, restricted, sort_order)
			VALUES ($1, $2, $3, $4)
		`, c.slug, c.name, c.restricted, c.sortOrder)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.slug, err)
		}
	}
	return nil
}

func seedTemplates(db *sql.DB) error {
	templates := []struct {
		category, name, steps string
	}{
		{"jobs", "Job Posting", `[
			{"title": "Position", "fields": [
				{"field_name": "company", "field_label": "Company", "field_type": "text", "display_in_card": true, "card_priority": 1},
				{"field_name": "salary", "field_label": "Salary", "field_type": "number", "display_in_card": true, "card_priority": 2},
				{"field_name": "contract_type", "field_label": "Contract", "field_type": "select", "display_in_card": true, "card_priority": 3},
				{"field_name": "description", "field_label": "Description", "field_type": "textarea"},
				{"field_name": "company_logo", "field_label": "Logo", "field_type": "image", "is_cover_image": true}
			]}
		]`},
		{"homes", "Property Listing", `[
			{"title": "Property", "fields": [
				{"field_name": "surface", "field_label": "Surface", "field_type": "number", "display_in_card": true, "card_priority": 1},
				{"field_name": "rooms", "field_label": "Rooms", "field_type": "number", "display_in_card": true, "card_priority": 2},
				{"field_name": "floor", "field_label": "Floor", "field_type": "text", "display_in_card": true, "card_priority": 3},
				{"field_name": "description", "field_label": "Description", "field_type": "textarea"},
				{"field_name": "photos", "field_label": "Photos", "field_type": "images"}
			]}
		]`},
		{"cars", "Vehicle Listing", `[
			{"title": "Vehicle", "fields": [
				{"field_name": "year", "field_label": "Year", "field_type": "number", "display_in_card": true, "card_priority": 1},
				{"field_name": "mileage", "field_label": "Mileage", "field_type": "number", "display_in_card": true, "card_priority": 2},
				{"field_name": "fuel", "field_label": "Fuel", "field_type": "select", "display_in_card": true, "card_priority": 3},
				{"field_name": "gallery", "field_label": "Gallery", "field_type": "images"},
				{"field_name": "cover", "field_label": "Cover", "field_type": "image", "is_cover_image": true}
			]}
		]`},
		{"tenders", "Tender Notice", `[
			{"title": "Tender", "fields": [
				{"field_name": "authority", "field_label": "Authority", "field_type": "text", "display_in_card": true, "card_priority": 1},
				{"field_name": "deadline", "field_label": "Deadline", "field_type": "text", "display_in_card": true, "card_priority": 2},
				{"field_name": "budget", "field_label": "Budget", "field_type": "number", "display_in_card": true, "card_priority": 3},
				{"field_name": "documents", "field_label": "Documents", "field_type": "file"}
			]}
		]`},
	}
	for _, t := range templates {
		_, err := db.Exec(`
			INSERT INTO category_templates (category, name, version, is_active, steps)
			VALUES ($1, $2, 1, TRUE, $3)
		`, t.category, t.name, t.steps)
		if err != nil {
			return fmt.Errorf("seed insert template %s: %w", t.category, err)
		}
	}
	return nil
}

func seedGrants(db *sql.DB) error {
	// The demo viewer starts with a handful of job credits and an
	// unlimited legacy grant on tenders.
	_, err := db.Exec(`
		INSERT INTO viewer_grants (viewer_id, category, credits)
		SELECT id, 'jobs', 5 FROM users WHERE email = 'viewer@listora.local'
	`)
	if err != nil {
		return fmt.Errorf("seed insert jobs grant: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO viewer_grants (viewer_id, category, credits)
		SELECT id, 'tenders', -1 FROM users WHERE email = 'viewer@listora.local'
	`)
	if err != nil {
		return fmt.Errorf("seed insert tenders grant: %w", err)
	}
	return nil
}

func seedListings(db *sql.DB) error {
	listings := []struct {
		title, slug, location, category string
		price                           float64
		premium                         bool
		customFields                    string
	}{
		{
			"Senior Backend Engineer", "senior-backend-engineer", "Bucharest", "jobs",
			0, true,
			`{"company": "Acme Systems", "salary": 4500, "contract_type": "full-time", "description": "Backend role on a payments platform."}`,
		},
		{
			"Two-Bedroom Apartment Near Park", "two-bedroom-apartment-near-park", "Cluj-Napoca", "homes",
			112000, false,
			`{"surface": 58, "rooms": 2, "floor": "3/8", "description": "Bright apartment with park views."}`,
		},
		{
			"2019 Toyota Corolla Hybrid", "2019-toyota-corolla-hybrid", "Timisoara", "cars",
			15400, false,
			`{"year": 2019, "mileage": 64000, "fuel": "hybrid"}`,
		},
		{
			"Road Maintenance Framework Tender", "road-maintenance-framework-tender", "Iasi", "tenders",
			0, true,
			`{"authority": "County Council", "deadline": "2026-10-15", "budget": 2500000}`,
		},
	}
	for _, l := range listings {
		_, err := db.Exec(`
			INSERT INTO listings (title, slug, price, location, category, is_premium, custom_fields, owner_id)
			SELECT $1, $2, $3, $4, $5, $6, $7, id FROM users WHERE email = 'admin@listora.local'
		`, l.title, l.slug, l.price, l.location, l.category, l.premium, l.customFields)
		if err != nil {
			return fmt.Errorf("seed insert listing %s: %w", l.slug, err)
		}
	}
	return nil
}
