package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type DishController struct {
	Dishes *services.DishService
}

func NewDishController(dishes *services.DishService) *DishController {
	return &DishController{Dishes: dishes}
}

type dishRequest struct {
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"gte=0"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
}

func (r dishRequest) input() services.DishInput {
	return services.DishInput{
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Image:       r.Image,
		Type:        r.Type,
		Status:      r.Status,
	}
}

// staff see Hidden dishes too
func canSeeHidden(c *gin.Context) bool {
	identity, ok := middlewares.CurrentIdentity(c)
	return ok && identity.IsStaff()
}

func (dc *DishController) GetAllDishes(c *gin.Context) {
	dishes, err := dc.Dishes.List(c.Request.Context(), canSeeHidden(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of dishes", dishes)
}

func (dc *DishController) GetDish(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	dish, err := dc.Dishes.Get(c.Request.Context(), id, canSeeHidden(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish retrieved successfully", dish)
}

func (dc *DishController) CreateDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	dish, err := dc.Dishes.Create(c.Request.Context(), req.input())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.InfoLogger.Printf("New dish created: %s", dish.Name)
	utils.RespondJSON(c, http.StatusCreated, "Dish created successfully", dish)
}

func (dc *DishController) UpdateDish(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	dish, err := dc.Dishes.Update(c.Request.Context(), id, req.input())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish updated successfully", dish)
}

func (dc *DishController) DeleteDish(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	dish, err := dc.Dishes.Delete(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish deleted successfully", dish)
}
