package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/controllers"
	"github.com/supra-app/georgian-menu-backend/models"
)

func setupMenuRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	menuCtrl := controllers.NewMenuController(db)
	r.GET("/menu/items", menuCtrl.GetAllMenuItems)
	r.GET("/menu/items/:item_id", menuCtrl.GetMenuItemByID)
	r.GET("/menu/categories", menuCtrl.GetAllCategories)
	r.POST("/admin/menu", menuCtrl.CreateMenuItem)
	r.PUT("/admin/menu/:item_id", menuCtrl.UpdateMenuItem)
	r.DELETE("/admin/menu/:item_id", menuCtrl.DeleteMenuItem)
	return r
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	category := models.Category{Name: name}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return category
}

func TestGetMenuItemsFiltersUnavailable(t *testing.T) {
	db := setupTestDB(t)
	seedCategory(t, db, "Mains")
	seedMenuItem(t, db, "Khachapuri", 12.50)
	hidden := seedMenuItem(t, db, "Seasonal Special", 20.00)
	db.Model(&models.MenuItem{}).Where("id = ?", hidden.ID).Update("is_available", false)

	r := setupMenuRouter(db)
	w, resp := doJSON(t, r, "GET", "/menu/items", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	items := resp["data"].([]interface{})
	assert.Len(t, items, 1)
	assert.Equal(t, "Khachapuri", items[0].(map[string]interface{})["name"])

	// Hidden items are invisible on the detail route too.
	w, _ = doJSON(t, r, "GET", "/menu/items/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMenuItemsByCategory(t *testing.T) {
	db := setupTestDB(t)
	mains := seedCategory(t, db, "Mains")
	desserts := seedCategory(t, db, "Desserts")

	db.Create(&models.MenuItem{CategoryID: mains.ID, Name: "Mtsvadi", Price: 10, IsAvailable: true})
	db.Create(&models.MenuItem{CategoryID: desserts.ID, Name: "Churchkhela", Price: 3, IsAvailable: true})

	r := setupMenuRouter(db)
	w, resp := doJSON(t, r, "GET", "/menu/items?category=Desserts", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	items := resp["data"].([]interface{})
	assert.Len(t, items, 1)
	assert.Equal(t, "Churchkhela", items[0].(map[string]interface{})["name"])
}

func TestCreateMenuItemWithPairings(t *testing.T) {
	db := setupTestDB(t)
	mains := seedCategory(t, db, "Mains")
	wine := seedMenuItem(t, db, "Saperavi", 18.00)

	r := setupMenuRouter(db)
	w, resp := doJSON(t, r, "POST", "/admin/menu", map[string]interface{}{
		"category_id": mains.ID,
		"name":        "Ojakhuri",
		"price":       14.00,
		"pairing_ids": []uint{wine.ID},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	itemID := respData(t, resp)["id"].(float64)

	// The pairing comes back on the public detail route.
	w, resp = doJSON(t, r, "GET", "/menu/items/2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), itemID)
	pairings := respData(t, resp)["pairings"].([]interface{})
	assert.Len(t, pairings, 1)
	assert.Equal(t, "Saperavi", pairings[0].(map[string]interface{})["name"])
}

func TestUpdateAndDeleteMenuItem(t *testing.T) {
	db := setupTestDB(t)
	mains := seedCategory(t, db, "Mains")
	item := seedMenuItem(t, db, "Lobio", 6.50)

	r := setupMenuRouter(db)
	w, resp := doJSON(t, r, "PUT", "/admin/menu/1", map[string]interface{}{
		"category_id": mains.ID,
		"name":        "Lobio",
		"price":       7.00,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.00, respData(t, resp)["price"])

	w, _ = doJSON(t, r, "DELETE", "/admin/menu/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	w, _ = doJSON(t, r, "DELETE", "/admin/menu/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
