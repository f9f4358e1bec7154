package database

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
)

// DemoTenantSlug is the slug of the tenant created by SeedDemoData
const DemoTenantSlug = "demo"

// SeedDemoData creates a demo tenant, makes ownerID a member and adds a small
// menu. It is a no-op when the demo tenant already exists.
func SeedDemoData(ctx context.Context, tenants repository.TenantRepository, products repository.ProductRepository, ownerID uuid.UUID) (*entity.Tenant, error) {
	log.Println("Seeding demo data...")

	existing, err := tenants.GetBySlug(ctx, DemoTenantSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Printf("Demo tenant already exists: %s", existing.ID)
		return existing, nil
	}

	settings := entity.DefaultTenantSettings()
	settings.ReceiptHeader = entity.ReceiptHeader{StoreName: "Demo Bistro", Phone: "+254 700 000 000"}
	tenant := &entity.Tenant{Name: "Demo Bistro", Slug: DemoTenantSlug, Settings: settings}
	if err := tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create demo tenant: %w", err)
	}

	if ownerID != uuid.Nil {
		if err := tenants.AddMember(ctx, &entity.TenantMembership{TenantID: tenant.ID, UserID: ownerID, Role: "owner"}); err != nil {
			return nil, fmt.Errorf("failed to add demo owner: %w", err)
		}
	}

	menu := []entity.Product{
		{Name: "Espresso", Code: "BEV-001", PriceCents: 25000},
		{Name: "Cappuccino", Code: "BEV-002", PriceCents: 35000},
		{Name: "Club Sandwich", Code: "FOOD-001", PriceCents: 85000},
		{Name: "Chips Masala", Code: "FOOD-002", PriceCents: 45000},
	}
	for i := range menu {
		menu[i].TenantID = tenant.ID
		menu[i].Active = true
		if err := products.Create(ctx, &menu[i]); err != nil {
			log.Printf("Warning: failed to create product %s: %v", menu[i].Code, err)
		}
	}

	log.Printf("Demo data seeding completed (tenant %s)", tenant.ID)
	return tenant, nil
}
