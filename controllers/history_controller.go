// controller/history_controller.go
package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"findanymail/models"
	"findanymail/utils"
)

type HistoryController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewHistoryController(db *gorm.DB) *HistoryController {
	return &HistoryController{
		DB:     db,
		Logger: logrus.WithField("controller", "history"),
	}
}

// ListHistory returns past discovery runs, newest first
func (hc *HistoryController) ListHistory(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "25"))
	if limit < 1 || limit > 100 {
		limit = 25
	}

	query := hc.DB.Model(&models.SearchHistory{})
	if domain := c.Query("domain"); domain != "" {
		query = query.Where("domain = ?", domain)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load history", err)
	}

	var entries []models.SearchHistory
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load history", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  entries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// DeleteHistory removes a single history entry
func (hc *HistoryController) DeleteHistory(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid history ID", nil)
	}

	result := hc.DB.Delete(&models.SearchHistory{}, id)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete history entry", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "History entry not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": id}))
}

// ClearHistory removes all history entries
func (hc *HistoryController) ClearHistory(c *fiber.Ctx) error {
	if err := hc.DB.Where("1 = 1").Delete(&models.SearchHistory{}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to clear history", err)
	}

	hc.Logger.Info("search history cleared")
	return c.JSON(utils.SuccessResponse(fiber.Map{"cleared": true}))
}
