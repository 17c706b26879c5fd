package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
	"github.com/milkrunhq/milkrun/pkg/common"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

type deliveryBoyPayload struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Area     string `json:"area"`
	Status   string `json:"status" validate:"omitempty,oneof=enabled disabled"`
	Remark   string `json:"remark"`
}

func registerDeliveryBoyRoutes() {
	webserver.ApiGET("/crm/deliveryboys", listDeliveryBoys)
	webserver.ApiGET("/crm/deliveryboys/:id", getDeliveryBoy)
	webserver.ApiPOST("/crm/deliveryboys", createDeliveryBoy)
	webserver.ApiPUT("/crm/deliveryboys/:id", updateDeliveryBoy)
	webserver.ApiDELETE("/crm/deliveryboys/:id", deleteDeliveryBoy)
	webserver.ApiGET("/crm/deliveryboys/:id/orders", deliveryBoyOrders)
}

func listDeliveryBoys(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.DeliveryBoy{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(name) LIKE ? OR phone LIKE ?", "%"+strings.ToLower(q)+"%", "%"+q+"%")
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query delivery boys", err.Error())
	}
	var rows []domain.DeliveryBoy
	if err := db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query delivery boys", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getDeliveryBoy(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid delivery boy ID", nil)
	}
	var boy domain.DeliveryBoy
	if err := GetDB(c).First(&boy, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Delivery boy not found", nil)
	}
	return ok(c, boy)
}

func createDeliveryBoy(c echo.Context) error {
	var payload deliveryBoyPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse delivery boy", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Phone = strings.TrimSpace(payload.Phone)
	if payload.Name == "" || payload.Phone == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name and phone are required", nil)
	}
	if payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password is required", nil)
	}

	var existing domain.DeliveryBoy
	err := GetDB(c).Where("phone = ?", payload.Phone).First(&existing).Error
	if err == nil {
		return fail(c, http.StatusConflict, "CONFLICT", "A delivery boy with this phone already exists", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check phone", err.Error())
	}

	boy := domain.DeliveryBoy{
		ID:        common.UUIDint64(),
		Name:      payload.Name,
		Phone:     payload.Phone,
		Email:     strings.TrimSpace(payload.Email),
		Password:  common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt()),
		Area:      strings.TrimSpace(payload.Area),
		Status:    common.ENABLED,
		Remark:    payload.Remark,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&boy).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create delivery boy", err.Error())
	}
	logAction(c, "create_delivery_boy", boy.Phone)
	return ok(c, boy)
}

func updateDeliveryBoy(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid delivery boy ID", nil)
	}
	var boy domain.DeliveryBoy
	if err := GetDB(c).First(&boy, id).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Delivery boy not found", nil)
	}

	var payload deliveryBoyPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse delivery boy", err.Error())
	}
	if payload.Name != "" {
		boy.Name = strings.TrimSpace(payload.Name)
	}
	if payload.Email != "" {
		boy.Email = strings.TrimSpace(payload.Email)
	}
	if payload.Area != "" {
		boy.Area = strings.TrimSpace(payload.Area)
	}
	if payload.Password != "" {
		boy.Password = common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt())
	}
	if payload.Status == common.ENABLED || payload.Status == common.DISABLED {
		boy.Status = payload.Status
	}
	if payload.Remark != "" {
		boy.Remark = payload.Remark
	}
	boy.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&boy).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update delivery boy", err.Error())
	}
	return ok(c, boy)
}

func deleteDeliveryBoy(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid delivery boy ID", nil)
	}
	var assigned int64
	GetDB(c).Model(&domain.Customer{}).Where("delivery_boy_id = ?", id).Count(&assigned)
	if assigned > 0 {
		return fail(c, http.StatusConflict, "CONFLICT", "Delivery boy still has assigned customers", nil)
	}
	if err := GetDB(c).Delete(&domain.DeliveryBoy{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete delivery boy", err.Error())
	}
	logAction(c, "delete_delivery_boy", c.Param("id"))
	return ok(c, map[string]interface{}{"id": id})
}

// deliveryBoyOrders lists a boy's route for one day (default today).
// Delivery-boy tokens may only read their own route.
func deliveryBoyOrders(c echo.Context) error {
	id, okID := paramInt64(c, "id")
	if !okID {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid delivery boy ID", nil)
	}
	caller := currentIdentity(c)
	if caller.Kind == "boy" && caller.ID != id {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Cannot read another route", nil)
	}

	day := dateutil.Normalize(time.Now())
	if d := c.QueryParam("date"); d != "" {
		parsed, okDay := dateutil.ParseString(d)
		if !okDay {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid date", nil)
		}
		day = parsed
	}

	var rows []domain.Order
	err := GetDB(c).Preload("Items").
		Where("delivery_boy_id = ? and delivery_date = ?", id, day).
		Order("id").Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return ok(c, map[string]interface{}{"date": dateutil.Format(day), "orders": rows})
}
