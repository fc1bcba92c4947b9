package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

// CreateTable -> menambahkan meja baru, token dibuat otomatis
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number   int    `json:"number" binding:"required"`
		Capacity int    `json:"capacity" binding:"required"`
		Status   string `json:"status"` // optional, default Hidden
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), services.CreateTableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Status:   req.Status,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	number, ok := intParam(c, "number")
	if !ok {
		return
	}
	table, err := tc.Tables.Get(c.Request.Context(), number)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table retrieved successfully", table)
}

// UpdateTable -> ubah kapasitas/status, change_token membuat token baru
func (tc *TableController) UpdateTable(c *gin.Context) {
	number, ok := intParam(c, "number")
	if !ok {
		return
	}
	var req struct {
		Capacity    *int    `json:"capacity"`
		Status      *string `json:"status"`
		ChangeToken bool    `json:"change_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	table, err := tc.Tables.Update(c.Request.Context(), number, services.UpdateTableInput{
		Capacity:    req.Capacity,
		Status:      req.Status,
		ChangeToken: req.ChangeToken,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated successfully", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	number, ok := intParam(c, "number")
	if !ok {
		return
	}
	table, err := tc.Tables.Delete(c.Request.Context(), number)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.InfoLogger.Printf("Table %d deleted", table.Number)
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", table)
}
