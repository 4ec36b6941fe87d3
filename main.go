package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/config"
	"github.com/annapurna-pos/backend/database"
	"github.com/annapurna-pos/backend/models"
	"github.com/annapurna-pos/backend/router"
	"github.com/annapurna-pos/backend/services"
	"github.com/annapurna-pos/backend/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InfoLogger = logrus.New()
	utils.ErrorLogger = logrus.New()

	utils.InfoLogger.SetOutput(os.Stdout)
	utils.ErrorLogger.SetOutput(os.Stderr)

	utils.InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
	utils.ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Nightly credit-balance reconciliation sweep.
	monitor := services.NewLedgerMonitor(db)
	if err := monitor.Start(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start ledger monitor: %v", err)
	}
	defer monitor.Stop()

	r := router.SetupRouter(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Restaurant{},
		&models.RestaurantProfile{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.InvoiceCounter{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeItem{},
		&models.CreditCustomer{},
		&models.CreditTransaction{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	if err := database.EnsureConstraints(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to ensure billing constraints: %v", err)
	}
}
