package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// ProblemController serves the Blind 75 technical practice bank.
type ProblemController struct {
	problems *services.ProblemService
}

func NewProblemController(problems *services.ProblemService) *ProblemController {
	return &ProblemController{problems: problems}
}

// Random returns one problem from the bank.
func (p *ProblemController) Random(ctx *gin.Context) {
	problem, err := p.problems.Random(ctx.Request.Context())
	if errors.Is(err, services.ErrProblemBankEmpty) {
		utils.Error(ctx, http.StatusServiceUnavailable, 50395, "problem bank not initialised, run `navia problems import` first")
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50095, "failed to load problem", err)
		return
	}
	utils.Success(ctx, problem)
}

// RecordWrong stores a problem the caller got wrong.
func (p *ProblemController) RecordWrong(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req services.WrongInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40095, "invalid request payload")
		return
	}
	saved, err := p.problems.RecordWrong(ctx.Request.Context(), userID, req)
	switch {
	case errors.Is(err, services.ErrInvalidProblem):
		utils.Error(ctx, http.StatusBadRequest, 40096, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40495, err.Error())
	case err != nil:
		utils.InternalError(ctx, 50096, "failed to record wrong problem", err)
	default:
		utils.Respond(ctx, http.StatusCreated, 0, "success", saved)
	}
}

func (p *ProblemController) ListWrong(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	wrong, err := p.problems.ListWrong(ctx.Request.Context(), userID)
	if err != nil {
		utils.InternalError(ctx, 50097, "failed to list wrong problems", err)
		return
	}
	utils.Success(ctx, wrong)
}
