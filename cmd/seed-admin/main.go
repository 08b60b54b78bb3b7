// seed-admin bootstraps the portal: it ensures a business exists and creates
// or updates the admin user for it.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/billing_portal/config"
	"bitbucket.org/mmdatafocus/billing_portal/models"
	"bitbucket.org/mmdatafocus/billing_portal/utils"
)

const (
	defaultAdminUsername = "portalAdmin"
	defaultAdminName     = "Portal Admin"
)

func main() {
	businessName := flag.String("business-name", "Billing Portal", "Business to create when none exists")
	adminUsername := flag.String("admin-username", defaultAdminUsername, "Admin username")
	adminPassword := flag.String("admin-password", "", "Admin password (required)")
	flag.Parse()

	if strings.TrimSpace(*adminPassword) == "" {
		fmt.Fprintln(os.Stderr, "-admin-password is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var biz models.Business
	err := db.WithContext(ctx).Model(&models.Business{}).First(&biz).Error
	if err == gorm.ErrRecordNotFound {
		biz = models.Business{
			ID:       uuid.NewString(),
			Name:     *businessName,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&biz).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created business: id=%s name=%q\n", biz.ID, biz.Name)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup business: %v\n", err)
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(*adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", *adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username:   *adminUsername,
			Name:       defaultAdminName,
			Password:   hashedStr,
			IsActive:   utils.NewTrue(),
			Role:       models.UserRoleAdmin,
			BusinessId: biz.ID,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: username=%q (role=Admin)\n", *adminUsername)
		return
	}

	// Update existing user: ensure password and admin role
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", *adminUsername).Updates(map[string]any{
		"password":    hashedStr,
		"is_active":   utils.NewTrue(),
		"business_id": biz.ID,
		"role":        models.UserRoleAdmin,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin user: username=%q (role=Admin)\n", *adminUsername)
}
