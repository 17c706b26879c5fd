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
)

type loginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type boyLoginPayload struct {
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
}

type registerOprPayload struct {
	Realname string `json:"realname"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Level    string `json:"level"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/auth/login", adminLogin)
	webserver.PubPOST("/auth/boy/login", deliveryBoyLogin)
	webserver.ApiPOST("/auth/register", registerOperator)
	webserver.ApiGET("/auth/profile", operatorProfile)
	webserver.ApiGET("/auth/boy/profile", deliveryBoyProfile)
}

func adminLogin(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse credentials", err.Error())
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var opr domain.SysOpr
	err := GetDB(c).Where("username = ?", payload.Username).First(&opr).Error
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
	}
	if opr.Status != common.ENABLED {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Account disabled", nil)
	}
	if common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt()) != opr.Password {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
	}

	cfg := appCtx.Config()
	token, err := issueToken(cfg.Web.Secret, time.Duration(cfg.Web.JwtTTL)*time.Second,
		opr.ID, opr.Username, opr.Level, "opr")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}

	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())
	return ok(c, map[string]interface{}{"token": token, "level": opr.Level, "username": opr.Username})
}

func deliveryBoyLogin(c echo.Context) error {
	var payload boyLoginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse credentials", err.Error())
	}
	if payload.Phone == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Phone and password are required", nil)
	}

	var boy domain.DeliveryBoy
	err := GetDB(c).Where("phone = ?", payload.Phone).First(&boy).Error
	if err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid phone or password", nil)
	}
	if boy.Status != common.ENABLED {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Account disabled", nil)
	}
	if common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt()) != boy.Password {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid phone or password", nil)
	}

	cfg := appCtx.Config()
	token, err := issueToken(cfg.Web.Secret, time.Duration(cfg.Web.JwtTTL)*time.Second,
		boy.ID, boy.Phone, "boy", "boy")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}

	GetDB(c).Model(&domain.DeliveryBoy{}).Where("id = ?", boy.ID).Update("last_login", time.Now())
	return ok(c, map[string]interface{}{"token": token, "name": boy.Name})
}

func registerOperator(c echo.Context) error {
	id := currentIdentity(c)
	if id.Level != "super" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Only super admin can register operators", nil)
	}

	var payload registerOprPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse operator", err.Error())
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var existing domain.SysOpr
	err := GetDB(c).Where("username = ?", payload.Username).First(&existing).Error
	if err == nil {
		return fail(c, http.StatusConflict, "CONFLICT", "Username already exists", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check username", err.Error())
	}

	level := payload.Level
	if level == "" {
		level = "opr"
	}
	opr := domain.SysOpr{
		ID:        common.UUIDint64(),
		Realname:  payload.Realname,
		Mobile:    payload.Mobile,
		Email:     payload.Email,
		Username:  payload.Username,
		Password:  common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt()),
		Level:     level,
		Status:    common.ENABLED,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&opr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create operator", err.Error())
	}
	logAction(c, "register_operator", payload.Username)
	return ok(c, map[string]interface{}{"id": opr.ID, "username": opr.Username})
}

func operatorProfile(c echo.Context) error {
	id := currentIdentity(c)
	var opr domain.SysOpr
	if err := GetDB(c).First(&opr, id.ID).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Operator not found", nil)
	}
	opr.Password = ""
	return ok(c, opr)
}

func deliveryBoyProfile(c echo.Context) error {
	id := currentIdentity(c)
	if id.Kind != "boy" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Delivery boy token required", nil)
	}
	var boy domain.DeliveryBoy
	if err := GetDB(c).First(&boy, id.ID).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Delivery boy not found", nil)
	}
	return ok(c, boy)
}
