package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/utils"
)

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(ctx *gin.Context, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.Error(ctx, http.StatusBadRequest, 40001, ve.Error())
	case errors.Is(err, models.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
	case errors.Is(err, models.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40301, "not authorized to modify this resource")
	case errors.Is(err, models.ErrSlugTaken):
		utils.Error(ctx, http.StatusConflict, 40901, "a post with this title already exists")
	case errors.Is(err, models.ErrStaleAggregate):
		utils.Error(ctx, http.StatusConflict, 40902, "the post was modified concurrently, please retry")
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("request failed: %v", err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
	}
}

func parsePagination(pageStr, limitStr string) (int, int) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
