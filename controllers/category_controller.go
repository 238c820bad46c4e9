package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/middleware"
	"github.com/inkpress/inkpress/services"
	"github.com/inkpress/inkpress/utils"
)

// CategoryController exposes the auxiliary category collection.
type CategoryController struct {
	categories *services.CategoryService
}

func NewCategoryController(categories *services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// ListCategories is public.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	categories, err := c.categories.List()
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"categories": categories})
}

// CreateCategory requires any authenticated actor.
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	if _, ok := middleware.ActorFrom(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}
	category, err := c.categories.Create(utils.Sanitize(req.Name), utils.Sanitize(req.Description))
	if err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"category": category})
}

// DeleteCategory requires an administrator.
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40115, "unauthorized")
		return
	}
	id, idOK := parseID(ctx.Param("id"))
	if !idOK {
		utils.Error(ctx, http.StatusNotFound, 40402, "category not found")
		return
	}
	if err := c.categories.Delete(id, actor); err != nil {
		writeDomainError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}
