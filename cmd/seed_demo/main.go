package main

import (
	"context"
	"fmt"
	"log"

	"github.com/xelth-com/eckdepotgo/internal/config"
	"github.com/xelth-com/eckdepotgo/internal/database"
	"github.com/xelth-com/eckdepotgo/internal/models"
	"github.com/xelth-com/eckdepotgo/internal/yard"
)

func main() {
	fmt.Println("🌱 Depot Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	if err := db.AutoMigrate(&models.Yard{}, &models.Stack{}, &models.Location{}); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	ctx := context.Background()
	registry := database.NewStackRegistry(db)

	var yardCount int64
	db.Model(&models.Yard{}).Count(&yardCount)
	if yardCount > 0 {
		fmt.Printf("⚠️  Database already has %d yards. Clear it first? (y/N): ", yardCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}
		db.Exec("DELETE FROM locations")
		db.Exec("DELETE FROM stacks")
		db.Exec("DELETE FROM yards")
	}

	demoYard := &models.Yard{Code: "Y1", Name: "Main Yard", IsActive: true}
	if err := registry.CreateYard(ctx, demoYard); err != nil {
		log.Fatalf("❌ Failed to create demo yard: %v", err)
	}
	fmt.Printf("✅ Yard %s created (%s)\n", demoYard.Code, demoYard.ID)

	lifecycle := yard.NewLifecycleService(registry)
	demoStacks := []yard.CreateStackParams{
		{YardID: demoYard.ID, StackNumber: 1, Rows: 6, MaxTiers: 4, Capacity: 24, ContainerSize: models.Size20ft, CreatedBy: "seed"},
		{YardID: demoYard.ID, StackNumber: 2, Rows: 6, MaxTiers: 4, Capacity: 24, ContainerSize: models.Size40ft, CreatedBy: "seed"},
		{YardID: demoYard.ID, StackNumber: 3, Rows: 4, MaxTiers: 3, Capacity: 12, ContainerSize: models.Size40ft, IsSpecialStack: true, CreatedBy: "seed"},
		{YardID: demoYard.ID, StackNumber: 4, Rows: 2, MaxTiers: 2, Capacity: 4, ContainerSize: models.Size20ft, AssignedClientCode: "ACME", CreatedBy: "seed"},
	}
	for _, params := range demoStacks {
		stack, result, err := lifecycle.CreateStack(ctx, params)
		if err != nil {
			log.Fatalf("❌ Failed to create stack S%02d: %v", params.StackNumber, err)
		}
		if !result.Success {
			log.Fatalf("❌ Stack S%02d refused: %s", params.StackNumber, result.Message)
		}
		fmt.Printf("✅ Stack S%02d: %d rows x %d tiers, capacity %d\n",
			stack.StackNumber, stack.Rows, stack.MaxTiers, stack.Capacity)
	}

	buffer := yard.NewBufferService(registry)
	if _, err := buffer.GetOrCreateBufferStack(ctx, demoYard.ID, models.Size20ft, models.DamageStructural); err != nil {
		log.Fatalf("❌ Failed to create demo buffer stack: %v", err)
	}
	fmt.Println("✅ Buffer stack for (20ft, structural) ready")

	fmt.Println()
	fmt.Println("🎉 Demo yard seeded. Start the API with: go run ./cmd/api")
}
