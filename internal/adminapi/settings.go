package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/internal/webserver"
)

func registerSettingsRoutes() {
	webserver.ApiGET("/settings", getSettings)
	webserver.ApiPOST("/settings", saveSettings)
	webserver.ApiGET("/settings/oprlogs", listOprLogs)
}

// getSettings returns every sys_config row grouped by category.
func getSettings(c echo.Context) error {
	var rows []domain.SysConfig
	if err := GetDB(c).Order("type, name").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load settings", err.Error())
	}

	grouped := map[string]map[string]string{}
	for _, row := range rows {
		if grouped[row.Type] == nil {
			grouped[row.Type] = map[string]string{}
		}
		grouped[row.Type][row.Name] = row.Value
	}
	return ok(c, grouped)
}

// saveSettings accepts {"category": {"key": value}} and upserts the
// rows through the cached settings manager.
func saveSettings(c echo.Context) error {
	ident := currentIdentity(c)
	if ident.Level != "super" {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Only super operators may change settings", nil)
	}

	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", err.Error())
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Empty settings payload", nil)
	}

	if err := appCtx.SaveSettings(payload); err != nil {
		return fail(c, http.StatusInternalServerError, "SAVE_FAILED", "Failed to save settings", err.Error())
	}
	logAction(c, "settings_save", "updated system settings")

	return ok(c, map[string]interface{}{"saved": true})
}

func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.SysOprLog{})
	if name := c.QueryParam("opr_name"); name != "" {
		db = db.Where("opr_name = ?", name)
	}

	var total int64
	db.Count(&total)

	var rows []domain.SysOprLog
	db.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows)

	return paged(c, rows, total, page, pageSize)
}
