package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// ApplicationController handles the caller's job application tracker.
type ApplicationController struct {
	apps *services.ApplicationService
}

// NewApplicationController creates an ApplicationController.
func NewApplicationController(apps *services.ApplicationService) *ApplicationController {
	return &ApplicationController{apps: apps}
}

// Create stores a new application.
func (a *ApplicationController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req services.ApplicationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}
	app, err := a.apps.Create(ctx.Request.Context(), userID, req)
	if errors.Is(err, services.ErrInvalidStatus) {
		utils.Error(ctx, http.StatusBadRequest, 40081, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50082, "failed to create application", err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", app)
}

// List returns the caller's applications, optionally filtered by ?status=.
func (a *ApplicationController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	apps, ok := a.list(ctx, userID)
	if !ok {
		return
	}
	utils.Success(ctx, apps)
}

func (a *ApplicationController) list(ctx *gin.Context, userID uint) ([]models.JobApplication, bool) {
	status := models.ApplicationStatus(ctx.Query("status"))
	if status != "" && !status.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40081, services.ErrInvalidStatus.Error())
		return nil, false
	}
	apps, err := a.apps.List(ctx.Request.Context(), userID, status)
	if err != nil {
		utils.InternalError(ctx, 50083, "failed to load applications", err)
		return nil, false
	}
	return apps, true
}

// Get returns one application.
func (a *ApplicationController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	app, err := a.apps.Get(ctx.Request.Context(), userID, ctx.Param("id"))
	if errors.Is(err, services.ErrApplicationNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40480, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50084, "failed to load application", err)
		return
	}
	utils.Success(ctx, app)
}

// Update applies a partial update.
func (a *ApplicationController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var patch services.ApplicationPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}
	app, err := a.apps.Update(ctx.Request.Context(), userID, ctx.Param("id"), patch)
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		utils.Error(ctx, http.StatusNotFound, 40480, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		utils.Error(ctx, http.StatusBadRequest, 40081, err.Error())
	case err != nil:
		utils.InternalError(ctx, 50085, "failed to update application", err)
	default:
		utils.Success(ctx, app)
	}
}

// Delete removes an application.
func (a *ApplicationController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	err := a.apps.Delete(ctx.Request.Context(), userID, ctx.Param("id"))
	if errors.Is(err, services.ErrApplicationNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40480, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50086, "failed to delete application", err)
		return
	}
	utils.Success(ctx, gin.H{"message": "application deleted"})
}

// Export downloads the caller's applications as an xlsx workbook.
func (a *ApplicationController) Export(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	apps, ok := a.list(ctx, userID)
	if !ok {
		return
	}
	sendXLSX(ctx, fmt.Sprintf("applications-%d.xlsx", userID), func(buf *bytes.Buffer) error {
		return services.WriteApplicationsXLSX(buf, apps)
	})
}
