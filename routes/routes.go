package routes

import (
	"time"

	"findanymail/config"
	controller "findanymail/controllers"
	"findanymail/middleware"
	"findanymail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// SetupAPIRoutes wires the caches, pipeline services and controllers onto
// the versioned API group.
func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	cfg := config.AppConfig

	// Shared caches, one per lookup class
	dnsCache := utils.NewCache[*utils.DomainIntel](10 * time.Minute)
	scrapeCache := utils.NewCache[*utils.ScrapeResult](30 * time.Minute)
	companyCache := utils.NewCache[*utils.CompanyInfo](60 * time.Minute)

	// Pipeline services
	dns := utils.NewDomainIntelligence(dnsCache)
	scraper := utils.NewWebsiteScraper(scrapeCache, cfg.ScrapeTimeout)
	smtp := utils.NewSMTPVerifier(cfg.HeloDomain, cfg.SMTPPort)
	smtp.ConnectTimeout = cfg.SMTPTimeout
	smtp.ReplyTimeout = cfg.SMTPTimeout
	companies := utils.NewDomainResolver(companyCache)
	gravatar := utils.NewGravatarChecker()
	disify := utils.NewDisifyChecker()
	ai := utils.NewAIAnalyzer(cfg.OpenAIAPIKey)
	hunter := utils.NewHunterClient(cfg.HunterAPIKey)

	finder := utils.NewFinder(dns, scraper, smtp, companies, gravatar, disify, ai, hunter)
	bulk := utils.NewBulkProcessor(finder, cfg.BulkConcurrency)
	verifier := utils.NewEmailVerifier(dns, smtp, gravatar)
	searcher := utils.NewDomainSearcher(dns, scraper, smtp)

	// Controllers
	finderController := controller.NewFinderController(db, finder, bulk)
	verificationController := controller.NewVerificationController(verifier)
	domainController := controller.NewDomainController(searcher)
	historyController := controller.NewHistoryController(db)

	// API group with versioning, request logging and per-IP rate limiting
	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}), middleware.RateLimiter())

	// Discovery routes
	api.Post("/find", finderController.FindEmail)
	api.Post("/find/bulk", finderController.BulkFind)

	// Verification routes
	api.Get("/verify", verificationController.VerifyEmail)
	api.Post("/verify/bulk", verificationController.BulkVerify)

	// Domain search
	api.Get("/domain-search", domainController.DomainSearch)

	// History routes
	api.Get("/history", historyController.ListHistory)
	api.Delete("/history", historyController.ClearHistory)
	api.Delete("/history/:id", historyController.DeleteHistory)
}
