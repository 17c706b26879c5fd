package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/app"
	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/notify"
	"github.com/milkrunhq/milkrun/internal/payment"
	"github.com/milkrunhq/milkrun/pkg/common"
)

var (
	appCtx    app.AppContext
	sender    *notify.Sender
	payClient *payment.Client
)

// Register wires the API against the application context and mounts
// every route group. webserver.Init must have run first.
func Register(ctx app.AppContext) {
	appCtx = ctx
	sender = notify.NewSender(ctx.Config(), ctx.DB())
	payClient = payment.NewClient(ctx.Config().Gateway)

	registerAuthRoutes()
	registerCustomerRoutes()
	registerProductRoutes()
	registerDeliveryBoyRoutes()
	registerOrderRoutes()
	registerInvoiceRoutes()
	registerPaymentRoutes()
	registerBottleRoutes()
	registerDashboardRoutes()
	registerNotificationRoutes()
	registerSchedulerRoutes()
	registerSettingsRoutes()
}

// GetDB returns the request-scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	db, _ := c.Get("db").(*gorm.DB)
	return db
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"code":    "OK",
		"data":    data,
	})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"code":    code,
		"message": message,
		"error":   detail,
	})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"code":      "OK",
		"data":      rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	} else if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func paramInt64(c echo.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	return v, err == nil
}

// identity is the decoded bearer token of the calling principal.
type identity struct {
	ID       int64
	Username string
	Level    string
	Kind     string // "opr" or "boy"
}

func currentIdentity(c echo.Context) identity {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return identity{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}
	}
	id, _ := strconv.ParseInt(toString(claims["uid"]), 10, 64)
	return identity{
		ID:       id,
		Username: toString(claims["username"]),
		Level:    toString(claims["level"]),
		Kind:     toString(claims["kind"]),
	}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func issueToken(secret string, ttl time.Duration, uid int64, username, level, kind string) (string, error) {
	claims := jwt.MapClaims{
		"uid":      strconv.FormatInt(uid, 10),
		"username": username,
		"level":    level,
		"kind":     kind,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// logAction records an operator action into sys_opr_log.
func logAction(c echo.Context, action, desc string) {
	id := currentIdentity(c)
	err := GetDB(c).Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   id.Username,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}).Error
	if err != nil {
		zap.L().Warn("opr log write failed", zap.Error(err))
	}
}
