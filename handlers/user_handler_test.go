package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/certforge/cert_portal/database"
	"github.com/certforge/cert_portal/handlers"
	"github.com/certforge/cert_portal/models"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:users_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.DB = db

	app := fiber.New()
	app.Get("/api/auth/users", handlers.GetUsers)
	app.Patch("/api/auth/users/:id/status", handlers.ToggleUserStatus)
	app.Patch("/api/auth/users/:id/role", handlers.ChangeUserRole)
	return app
}

func seedUser(t *testing.T, email, role string, isSuperAdmin bool) *models.User {
	t.Helper()

	user := models.User{
		FullName:     "Test " + role,
		Email:        email,
		Password:     "hashed",
		Role:         role,
		IsSuperAdmin: isSuperAdmin,
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return &user
}

func TestToggleUserStatus(t *testing.T) {
	app := setupUserApp(t)
	staff := seedUser(t, "staff@portal.test", models.RoleStaff, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/auth/users/"+staff.ID.String()+"/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var reloaded models.User
	require.NoError(t, database.DB.First(&reloaded, "id = ?", staff.ID).Error)
	assert.False(t, reloaded.IsActive)
}

func TestToggleUserStatusProtectsSuperAdmin(t *testing.T) {
	app := setupUserApp(t)
	admin := seedUser(t, "admin@portal.test", models.RoleAdmin, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/auth/users/"+admin.ID.String()+"/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var reloaded models.User
	require.NoError(t, database.DB.First(&reloaded, "id = ?", admin.ID).Error)
	assert.True(t, reloaded.IsActive)
}

func TestToggleUserStatusUnknownID(t *testing.T) {
	app := setupUserApp(t)

	for _, id := range []string{"not-a-uuid", "00000000-0000-0000-0000-0000000000aa"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodPatch, "/api/auth/users/"+id+"/status", nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestChangeUserRole(t *testing.T) {
	app := setupUserApp(t)
	staff := seedUser(t, "staff@portal.test", models.RoleStaff, false)

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/users/"+staff.ID.String()+"/role",
		strings.NewReader(`{"role":"ADMIN"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var reloaded models.User
	require.NoError(t, database.DB.First(&reloaded, "id = ?", staff.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
}

func TestChangeUserRoleRejectsUnknownRole(t *testing.T) {
	app := setupUserApp(t)
	staff := seedUser(t, "staff@portal.test", models.RoleStaff, false)

	req := httptest.NewRequest(http.MethodPatch, "/api/auth/users/"+staff.ID.String()+"/role",
		strings.NewReader(`{"role":"ROOT"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
