package database

import (
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"repairshop/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate keeps the schema in sync with the domain models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Role{},
		&domain.Client{},
		&domain.User{},
		&domain.WorkOrder{},
		&domain.Supplier{},
		&domain.Supply{},
		&domain.Part{},
	)
}

// EnsureDefaults seeds the two roles and the bootstrap admin account.
// Safe to run on every start.
func EnsureDefaults(db *gorm.DB, adminEmail, adminPassword string) error {
	for _, name := range []string{domain.RoleAdmin, domain.RoleClient} {
		var role domain.Role
		err := db.Where("name = ?", name).First(&role).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&domain.Role{Name: name}).Error; err != nil {
			return err
		}
		log.Printf("role %q created", name)
	}

	var existing domain.User
	err := db.Where("email = ?", strings.ToLower(adminEmail)).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	var adminRole domain.Role
	if err := db.Where("name = ?", domain.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := domain.User{
		Email:        strings.ToLower(adminEmail),
		PasswordHash: string(hash),
		RoleID:       adminRole.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("bootstrap admin %q created", adminEmail)
	return nil
}
