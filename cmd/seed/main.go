package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"charterdesk/internal/config"
	"charterdesk/internal/database"
	"charterdesk/internal/domain"
	"charterdesk/internal/middleware"
	jwtsvc "charterdesk/internal/pkg/jwt"
	"charterdesk/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed ids are derived from names so reruns upsert the same rows.
var seedNamespace = uuid.MustParse("3f0c5a9e-7b1d-4e2a-9c6f-5d8e7a4b2c10")

func seedID(kind, name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+name)).String()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	sugar, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, sugar)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		sugar.Fatalw("migration failed", "error", err)
	}

	birth := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	customers := []domain.Customer{
		{FullName: "Lucía Fernández", Email: "lucia@example.com", Phone: "+51 999 111 222", DocumentType: "DNI", DocumentNumber: "44556677", BirthDate: birth(1988, time.March, 14)},
		{FullName: "Marco Rossi", Email: "marco@example.com", Phone: "+39 333 444 5555", DocumentType: "PASSPORT", DocumentNumber: "YA1234567", BirthDate: birth(1975, time.October, 2)},
		{FullName: "Aiko Tanaka", Email: "aiko@example.com", Phone: "+81 90 1234 5678", DocumentType: "PASSPORT", DocumentNumber: "TR9876543"},
	}
	for i := range customers {
		customers[i].ID = seedID("customer", customers[i].Email)
	}

	routes := []domain.Route{
		{Name: "Lima - Paracas", Origin: "Lima", Destination: "Paracas"},
		{Name: "Cusco - Sacred Valley", Origin: "Cusco", Destination: "Urubamba"},
		{Name: "Airport Transfer", Origin: "Jorge Chávez Airport", Destination: "Miraflores"},
	}
	for i := range routes {
		routes[i].ID = seedID("route", routes[i].Name)
	}

	payments := []domain.PaymentMethod{{Name: "Cash"}, {Name: "Card"}, {Name: "Bank transfer"}}
	for i := range payments {
		payments[i].ID = seedID("payment", payments[i].Name)
	}

	vehicles := []domain.Vehicle{
		{Plate: "ABC-123", Model: "Mercedes Sprinter", Capacity: 15, Active: true},
		{Plate: "XYZ-987", Model: "Toyota Hiace", Capacity: 10, Active: true},
		{Plate: "CAR-004", Model: "Hyundai H1", Capacity: 4, Active: true},
		{Plate: "OLD-001", Model: "Retired Coaster", Capacity: 25, Active: false},
	}
	for i := range vehicles {
		vehicles[i].ID = seedID("vehicle", vehicles[i].Plate)
	}

	drivers := []domain.Driver{
		{FullName: "Jorge Quispe", LicenseNumber: "Q12345678", Phone: "+51 988 000 111", Active: true},
		{FullName: "Rosa Huamán", LicenseNumber: "H87654321", Phone: "+51 988 000 222", Active: true},
		{FullName: "Pedro Inactive", LicenseNumber: "P00000000", Phone: "+51 988 000 333", Active: false},
	}
	for i := range drivers {
		drivers[i].ID = seedID("driver", drivers[i].LicenseNumber)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, batch := range []any{&customers, &routes, &payments, &vehicles, &drivers} {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(batch).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		sugar.Fatalw("seed failed", "error", err)
	}
	sugar.Infow("catalog seeded",
		"customers", len(customers),
		"routes", len(routes),
		"payment_methods", len(payments),
		"vehicles", len(vehicles),
		"drivers", len(drivers),
	)

	token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTokenTTL).
		GenerateToken(seedID("operator", "dev"), middleware.RoleDispatcher)
	if err != nil {
		sugar.Fatalw("token generation failed", "error", err)
	}

	fmt.Println("Seed completed.")
	fmt.Printf("Customer %s: %s\n", customers[0].FullName, customers[0].ID)
	fmt.Printf("Route %s: %s\n", routes[0].Name, routes[0].ID)
	fmt.Printf("Payment %s: %s\n", payments[0].Name, payments[0].ID)
	fmt.Printf("Vehicle %s (capacity %d): %s\n", vehicles[0].Plate, vehicles[0].Capacity, vehicles[0].ID)
	fmt.Printf("Driver %s: %s\n", drivers[0].FullName, drivers[0].ID)
	fmt.Printf("Dispatcher token (valid %s):\n%s\n", cfg.JWTTokenTTL, token)
}
