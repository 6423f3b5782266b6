package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal"
	menuDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/menu"
	permissionDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/pos-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/permission"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed organizations, roles, users, the menu tree and baseline grants for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := bootstrapConfig()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		ctx := context.Background()
		app, err := newApplication(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer app.Close()

		if clearData {
			if err := clearSeedData(app.Gorm); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seedDirectory(app.Gorm); err != nil {
			log.Fatalf("failed to seed directory: %v", err)
		}
		if err := seedMenus(ctx, app.Menus); err != nil {
			log.Fatalf("failed to seed menus: %v", err)
		}
		if err := seedGrants(ctx, app.Permissions); err != nil {
			log.Fatalf("failed to seed grants: %v", err)
		}
		if err := app.Permissions.RefreshAllCaches(ctx); err != nil {
			log.Printf("warning: cache refresh after seeding failed: %v", err)
		}

		fmt.Println("Seeding completed")
	},
}

var (
	seedOrganizations = []userDatamodel.Organization{
		{ID: "org-hq", Name: "Head Office", Type: "HQ", IsActive: true},
		{ID: "org-store-001", Name: "Store 001", Type: "STORE", ParentID: strPtr("org-hq"), IsActive: true},
	}

	seedRoles = []userDatamodel.Role{
		{Name: "ADMIN", Description: "Back-office administrator", IsActive: true},
		{Name: "MANAGER", Description: "Store manager", IsActive: true},
		{Name: "CASHIER", Description: "Point of sale cashier", IsActive: true},
	}

	seedUsers = []struct {
		row   userDatamodel.User
		roles []string
	}{
		{userDatamodel.User{ID: "usr-admin", Username: "admin", Name: "Admin", Email: "admin@pos.local", OrganizationID: strPtr("org-hq"), IsActive: true}, []string{"ADMIN"}},
		{userDatamodel.User{ID: "usr-manager", Username: "manager", Name: "Store Manager", Email: "manager@pos.local", OrganizationID: strPtr("org-store-001"), IsActive: true}, []string{"MANAGER"}},
		{userDatamodel.User{ID: "usr-cashier", Username: "cashier", Name: "Cashier", Email: "cashier@pos.local", OrganizationID: strPtr("org-store-001"), IsActive: true}, []string{"CASHIER"}},
	}

	// parents come before children
	seedMenuTree = []menu.CreateMenuRequest{
		{Code: "DASHBOARD", Name: "Dashboard", Path: "/dashboard", DisplayOrder: 1, Type: "MENU"},
		{Code: "SALES", Name: "Sales", DisplayOrder: 2, Type: "CATEGORY"},
		{Code: "SALES_ORDER", Name: "Orders", Path: "/sales/orders", ParentCode: "SALES", DisplayOrder: 1, Type: "MENU"},
		{Code: "SALES_ORDER_VOID", Name: "Void Order", ParentCode: "SALES_ORDER", DisplayOrder: 1, Type: "FUNCTION"},
		{Code: "SALES_RETURN", Name: "Returns", Path: "/sales/returns", ParentCode: "SALES", DisplayOrder: 2, Type: "MENU"},
		{Code: "SALES_REPORT", Name: "Sales Report", Path: "/sales/report", ParentCode: "SALES", DisplayOrder: 3, Type: "MENU"},
		{Code: "PRODUCT", Name: "Products", DisplayOrder: 3, Type: "CATEGORY"},
		{Code: "PRODUCT_LIST", Name: "Product List", Path: "/products", ParentCode: "PRODUCT", DisplayOrder: 1, Type: "MENU"},
		{Code: "PRODUCT_CATEGORY", Name: "Categories", Path: "/products/categories", ParentCode: "PRODUCT", DisplayOrder: 2, Type: "MENU"},
		{Code: "PRODUCT_PRICE", Name: "Pricing", Path: "/products/pricing", ParentCode: "PRODUCT", DisplayOrder: 3, Type: "MENU"},
		{Code: "INVENTORY", Name: "Inventory", DisplayOrder: 4, Type: "CATEGORY"},
		{Code: "INVENTORY_STOCK", Name: "Stock", Path: "/inventory/stock", ParentCode: "INVENTORY", DisplayOrder: 1, Type: "MENU"},
		{Code: "INVENTORY_TRANSFER", Name: "Transfers", Path: "/inventory/transfers", ParentCode: "INVENTORY", DisplayOrder: 2, Type: "MENU"},
		{Code: "SYSTEM", Name: "System", DisplayOrder: 9, Type: "CATEGORY"},
		{Code: "SYSTEM_USER", Name: "Users", Path: "/system/users", ParentCode: "SYSTEM", DisplayOrder: 1, Type: "MENU"},
		{Code: "SYSTEM_MENU", Name: "Menus", Path: "/system/menus", ParentCode: "SYSTEM", DisplayOrder: 2, Type: "MENU"},
		{Code: "SYSTEM_PERMISSION", Name: "Permissions", Path: "/system/permissions", ParentCode: "SYSTEM", DisplayOrder: 3, Type: "MENU"},
	}
)

type seedGrant struct {
	menus      []string
	targetType permission.TargetType
	targetID   string
	level      permission.Level
}

var seedGrantSet = []seedGrant{
	{[]string{"DASHBOARD", "SALES_ORDER", "SALES_ORDER_VOID", "SALES_RETURN", "SALES_REPORT", "PRODUCT_LIST", "PRODUCT_CATEGORY",
		"PRODUCT_PRICE", "INVENTORY_STOCK", "INVENTORY_TRANSFER", "SYSTEM_USER", "SYSTEM_MENU", "SYSTEM_PERMISSION"},
		permission.TargetRole, "ADMIN", permission.LevelAdmin},
	{[]string{"SALES_ORDER", "SALES_ORDER_VOID", "SALES_RETURN", "SALES_REPORT"}, permission.TargetRole, "MANAGER", permission.LevelDelete},
	{[]string{"PRODUCT_LIST", "PRODUCT_PRICE", "INVENTORY_STOCK", "INVENTORY_TRANSFER"}, permission.TargetRole, "MANAGER", permission.LevelWrite},
	{[]string{"DASHBOARD", "PRODUCT_LIST", "SALES_RETURN"}, permission.TargetRole, "CASHIER", permission.LevelRead},
	{[]string{"SALES_ORDER"}, permission.TargetRole, "CASHIER", permission.LevelWrite},
	{[]string{"DASHBOARD", "INVENTORY_STOCK"}, permission.TargetOrganization, "org-store-001", permission.LevelRead},
}

func seedDirectory(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		ignore := clause.OnConflict{DoNothing: true}

		for _, org := range seedOrganizations {
			org.CreatedAt = now
			if err := tx.Clauses(ignore).Create(&org).Error; err != nil {
				return fmt.Errorf("organization %s: %w", org.ID, err)
			}
		}
		for _, role := range seedRoles {
			role.CreatedAt = now
			if err := tx.Clauses(ignore).Create(&role).Error; err != nil {
				return fmt.Errorf("role %s: %w", role.Name, err)
			}
		}
		for _, u := range seedUsers {
			row := u.row
			row.CreatedAt, row.UpdatedAt = now, now
			if err := tx.Clauses(ignore).Create(&row).Error; err != nil {
				return fmt.Errorf("user %s: %w", row.Username, err)
			}
			for _, role := range u.roles {
				link := userDatamodel.UserRole{UserID: row.ID, RoleName: role}
				if err := tx.Clauses(ignore).Create(&link).Error; err != nil {
					return fmt.Errorf("user role %s/%s: %w", row.Username, role, err)
				}
			}
			fmt.Println("Seeded user:", row.Username)
		}
		return nil
	})
}

func seedMenus(ctx context.Context, menus *menu.Service) error {
	for _, req := range seedMenuTree {
		_, err := menus.CreateMenu(ctx, req)
		if errors.Is(err, internal.ErrMenuCodeTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("menu %s: %w", req.Code, err)
		}
		fmt.Println("Seeded menu:", req.Code)
	}
	return nil
}

// seedGrants only writes grants whose current level differs, so reruns leave history untouched.
func seedGrants(ctx context.Context, permissions *permission.Service) error {
	for _, sg := range seedGrantSet {
		existing, err := permissions.ListGrants(ctx, sg.targetType, sg.targetID)
		if err != nil {
			return err
		}
		current := make(map[string]permission.Level, len(existing))
		for _, g := range existing {
			if g.IsActive {
				current[g.MenuCode] = g.Level
			}
		}

		for _, code := range sg.menus {
			if current[code] == sg.level {
				continue
			}
			if _, err := permissions.GrantPermission(ctx, permission.GrantCommand{
				MenuCode:   code,
				TargetType: sg.targetType,
				TargetID:   sg.targetID,
				Level:      sg.level,
				GrantedBy:  "seed",
			}); err != nil {
				return fmt.Errorf("grant %s to %s %s: %w", code, sg.targetType, sg.targetID, err)
			}
		}
	}
	return nil
}

func clearSeedData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&permissionDatamodel.MenuPermission{},
			&menuDatamodel.Menu{},
			&userDatamodel.UserRole{},
			&userDatamodel.User{},
			&userDatamodel.Role{},
			&userDatamodel.Organization{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func strPtr(s string) *string { return &s }
