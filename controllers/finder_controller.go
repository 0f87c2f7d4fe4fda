// controller/finder_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"findanymail/models"
	"findanymail/utils"
)

type FinderController struct {
	DB     *gorm.DB
	Finder utils.EmailFinder
	Bulk   *utils.BulkProcessor
	Logger *logrus.Entry
}

func NewFinderController(db *gorm.DB, finder utils.EmailFinder, bulk *utils.BulkProcessor) *FinderController {
	return &FinderController{
		DB:     db,
		Finder: finder,
		Bulk:   bulk,
		Logger: logrus.WithField("controller", "finder"),
	}
}

// FindEmail runs the discovery pipeline for a single person
func (fc *FinderController) FindEmail(c *fiber.Ctx) error {
	var req utils.FindRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	response := fc.Finder.FindEmail(c.UserContext(), req)

	fc.recordHistory(req, response)

	if response.Meta.Error != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(response)
	}
	return c.JSON(response)
}

// BulkFind runs the discovery pipeline over many rows with bounded concurrency
func (fc *FinderController) BulkFind(c *fiber.Ctx) error {
	var request struct {
		Rows []utils.BulkRow `json:"rows"`
	}

	if err := c.BodyParser(&request); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}

	if len(request.Rows) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "At least one row is required", nil)
	}
	if len(request.Rows) > utils.MaxBulkRows {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Bulk requests are capped at 500 rows", nil)
	}

	results := fc.Bulk.Process(c.UserContext(), request.Rows)

	var found, failed int
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
		case r.Email != "":
			found++
		}
	}

	fc.Logger.WithFields(logrus.Fields{
		"rows":   len(results),
		"found":  found,
		"failed": failed,
	}).Info("bulk find completed")

	return c.JSON(fiber.Map{
		"results": results,
		"total":   len(results),
		"found":   found,
		"failed":  failed,
	})
}

// recordHistory persists the run outcome without blocking the response
func (fc *FinderController) recordHistory(req utils.FindRequest, response *utils.FindResponse) {
	if fc.DB == nil {
		return
	}

	entry := models.SearchHistory{
		RunID:      response.Meta.RunID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Domain:     response.Meta.Domain,
		Provider:   response.Meta.Provider,
		IsCatchAll: response.Meta.IsCatchAll,
		DurationMS: response.Meta.DurationMS,
	}
	if len(response.Results) > 0 {
		best := response.Results[0]
		entry.BestEmail = best.Email
		entry.Confidence = best.Confidence
		entry.Score = best.Score
		entry.Method = best.Method
	}

	go func() {
		if err := fc.DB.Create(&entry).Error; err != nil {
			fc.Logger.WithError(err).Warn("failed to record search history")
		}
	}()
}
