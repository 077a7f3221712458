package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

type QuestionnaireController struct {
	questionnaires *services.QuestionnaireService
}

func NewQuestionnaireController(questionnaires *services.QuestionnaireService) *QuestionnaireController {
	return &QuestionnaireController{questionnaires: questionnaires}
}

// Save stores the caller's onboarding questionnaire.
func (q *QuestionnaireController) Save(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req services.QuestionnaireInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid request payload")
		return
	}
	saved, err := q.questionnaires.Save(ctx.Request.Context(), userID, req)
	if errors.Is(err, services.ErrInvalidAnswers) {
		utils.Error(ctx, http.StatusBadRequest, 40091, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50091, "failed to save questionnaire", err)
		return
	}
	utils.Success(ctx, saved)
}

func (q *QuestionnaireController) Get(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40092, "invalid user id")
		return
	}
	found, err := q.questionnaires.Get(ctx.Request.Context(), userID)
	if errors.Is(err, services.ErrQuestionnaireNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40490, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50092, "failed to load questionnaire", err)
		return
	}
	utils.Success(ctx, found)
}

// Delete removes the caller's questionnaire.
func (q *QuestionnaireController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	err := q.questionnaires.Delete(ctx.Request.Context(), userID)
	if errors.Is(err, services.ErrQuestionnaireNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40490, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50093, "failed to delete questionnaire", err)
		return
	}
	utils.Success(ctx, gin.H{"message": "questionnaire deleted"})
}
