package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"repairshop/internal/config"
	"repairshop/internal/database"
	"repairshop/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM parts")
	db.Exec("DELETE FROM supplies")
	db.Exec("DELETE FROM suppliers")
	db.Exec("DELETE FROM work_orders")
	db.Exec("DELETE FROM user_accounts")
	db.Exec("DELETE FROM clients")
	db.Exec("DELETE FROM roles")

	if err := database.EnsureDefaults(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal(err)
	}
	log.Printf("Admin created: %s / %s", cfg.AdminEmail, cfg.AdminPassword)

	var clientRole domain.Role
	if err := db.Where("name = ?", domain.RoleClient).First(&clientRole).Error; err != nil {
		log.Fatal(err)
	}

	// ================== CLIENTS ==================
	log.Println("Creating clients...")
	names := [][2]string{{"Ivanov", "Petr"}, {"Smirnova", "Anna"}, {"Kozlov", "Dmitry"}}
	clients := make([]domain.Client, 0, len(names))
	for i, n := range names {
		cl := domain.Client{
			LastName:  n[0],
			FirstName: n[1],
			Phone:     fmt.Sprintf("+375 29 123 45%02d", i+10),
		}
		db.Create(&cl)
		clients = append(clients, cl)

		hash, _ := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
		user := domain.User{
			Email:        fmt.Sprintf("client%d@example.com", i+1),
			PasswordHash: string(hash),
			RoleID:       clientRole.ID,
			ClientID:     &cl.ID,
		}
		db.Create(&user)
	}

	// ================== SUPPLY CHAIN ==================
	log.Println("Creating suppliers and supplies...")
	supplier := domain.Supplier{Name: "MobileParts Ltd", Contacts: "sales@mobileparts.example"}
	db.Create(&supplier)

	supply := domain.Supply{SupplyDate: today(), SupplierID: supplier.ID}
	db.Create(&supply)

	partNames := []string{"iPhone 13 screen", "Galaxy S22 battery", "USB-C charging port", "Rear camera module"}
	for i, name := range partNames {
		part := domain.Part{
			Name:     name,
			Price:    decimal.NewFromInt(int64(20 + i*15)),
			SupplyID: supply.ID,
		}
		db.Create(&part)
	}

	// ================== ORDERS ==================
	log.Println("Creating work orders...")
	statuses := []domain.OrderStatus{domain.StatusReceived, domain.StatusInRepair, domain.StatusIssued}
	for i, cl := range clients {
		o := domain.WorkOrder{
			ClientID:           cl.ID,
			PhoneModel:         []string{"iPhone 13", "Galaxy S22", "Pixel 7"}[i],
			ProblemDescription: "Does not charge",
			ReceivedDate:       today().AddDate(0, 0, -i),
			Status:             statuses[i],
			WorkCost:           decimal.NewFromInt(int64(30 + i*10)),
		}
		db.Create(&o)
	}

	log.Println("Seed finished.")
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
