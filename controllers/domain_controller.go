// controller/domain_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"findanymail/utils"
)

type DomainController struct {
	Searcher *utils.DomainSearcher
}

func NewDomainController(searcher *utils.DomainSearcher) *DomainController {
	return &DomainController{Searcher: searcher}
}

// DomainSearch lists verified addresses discovered on a company website
func (dc *DomainController) DomainSearch(c *fiber.Ctx) error {
	domain := strings.ToLower(strings.TrimSpace(c.Query("domain")))
	if domain == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Domain is required", nil)
	}
	if !utils.IsDomain(domain) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Not a valid domain name", nil)
	}

	result := dc.Searcher.Search(c.UserContext(), domain)
	return c.JSON(result)
}
