package database

import (
	"fmt"
	"log"
	"os"

	"mercato-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=mercato port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// gen_random_uuid() needs the pgcrypto extension on older PostgreSQL
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.StoreHours{},
		&models.StoreStaff{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Coupon{},
		&models.PaymentMethod{},
		&models.BillingRecord{},
		&models.PasswordResetToken{},
		&models.RefreshToken{},
	); err != nil {
		return err
	}

	return nil
}

func CreateDefaultAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" {
		adminEmail = "admin@mercato.dev"
	}
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	var existingUser models.User
	result := db.Where("email = ?", adminEmail).First(&existingUser)
	if result.Error == nil {
		// Admin already exists
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
		Name:     "Admin User",
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Default admin created: %s", adminEmail)
	return nil
}

// CreateDefaultStore seeds a demo store owned by the admin account so a fresh
// deployment has something to browse. Skips silently when any store already
// exists or no admin has been created yet.
func CreateDefaultStore(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Store{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@mercato.dev"
	}

	var admin models.User
	if err := db.Where("email = ? AND role = ?", adminEmail, "admin").First(&admin).Error; err != nil {
		return nil
	}

	store := models.Store{
		Name:     "Mercato Demo Store",
		Slug:     "mercato-demo",
		OwnerID:  admin.ID,
		Address:  "1 Market Street",
		City:     "London",
		PostCode: "EC1A 1AA",
		// Central London
		Latitude:  51.5174,
		Longitude: -0.1020,
		Timezone:  "Europe/London",
		IsActive:  true,
	}

	if err := db.Create(&store).Error; err != nil {
		return err
	}

	// Monday through Saturday; no Sunday rows, so the store reads closed then
	for day := 1; day <= 6; day++ {
		hours := models.StoreHours{
			StoreID:   store.ID,
			DayOfWeek: day,
			OpenTime:  "09:00",
			CloseTime: "21:00",
		}
		if err := db.Create(&hours).Error; err != nil {
			return err
		}
	}

	defaultMethods := []models.PaymentMethod{
		{StoreID: store.ID, Code: "cash", DisplayName: "Cash on delivery", IsEnabled: true, SortOrder: 1},
		{StoreID: store.ID, Code: "card_on_delivery", DisplayName: "Card on delivery", IsEnabled: true, SortOrder: 2},
	}
	for i := range defaultMethods {
		if err := db.Create(&defaultMethods[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("Default store created: %s", store.Slug)
	return nil
}
