package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/middleware"
	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseLimit reads ?limit= with a default and an upper bound.
func parseLimit(ctx *gin.Context, def, upper int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(ctx.Query("limit"))); err == nil && n > 0 {
		if n > upper {
			return upper
		}
		return n
	}
	return def
}

// parseDateQuery reads ?date=YYYY-MM-DD (stat_date is accepted too). Absent means today,
// reported as the zero time.
func parseDateQuery(ctx *gin.Context, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(ctx.Query("date"))
	if raw == "" {
		raw = strings.TrimSpace(ctx.Query("stat_date"))
	}
	if raw == "" {
		return time.Time{}, nil
	}
	return models.ParseDate(raw, loc)
}

func sendXLSX(ctx *gin.Context, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		utils.InternalError(ctx, 50090, "failed to build export", err)
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
