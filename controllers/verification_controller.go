// controller/verification_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/likexian/whois"
	"github.com/sirupsen/logrus"

	"findanymail/config"
	"findanymail/utils"
)

// MaxBulkVerifyEmails caps one bulk verification request.
const MaxBulkVerifyEmails = 100

type VerificationController struct {
	Verifier *utils.EmailVerifier
	Logger   *logrus.Entry
}

func NewVerificationController(verifier *utils.EmailVerifier) *VerificationController {
	return &VerificationController{
		Verifier: verifier,
		Logger:   logrus.WithField("controller", "verification"),
	}
}

// VerifyEmail handles single email verification
func (vc *VerificationController) VerifyEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Email address is required", nil)
	}

	result := vc.Verifier.Verify(c.UserContext(), email)

	// WHOIS is best effort, only worth the round trip for resolvable domains
	if result.Details.HasMX {
		if whoisInfo, err := whois.Whois(utils.ExtractDomain(email)); err == nil {
			result.Details.WHOIS = whoisInfo
		}
	}

	return c.JSON(result)
}

// BulkVerify handles batch email verification with bounded concurrency
func (vc *VerificationController) BulkVerify(c *fiber.Ctx) error {
	var request struct {
		Emails []string `json:"emails"`
	}

	if err := c.BodyParser(&request); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request format", err)
	}

	if len(request.Emails) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "At least one email is required", nil)
	}
	if len(request.Emails) > MaxBulkVerifyEmails {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Bulk verification is capped at 100 emails", nil)
	}

	results := vc.Verifier.BatchVerify(c.UserContext(), request.Emails, config.AppConfig.VerifyConcurrency)

	var valid, invalid, risky, unknown int
	for _, r := range results {
		switch r.Status {
		case utils.VerifyStatusValid:
			valid++
		case utils.VerifyStatusInvalid:
			invalid++
		case utils.VerifyStatusRisky:
			risky++
		default:
			unknown++
		}
	}

	vc.Logger.WithFields(logrus.Fields{
		"total":   len(results),
		"valid":   valid,
		"invalid": invalid,
	}).Info("bulk verification completed")

	return c.JSON(fiber.Map{
		"results": results,
		"summary": fiber.Map{
			"total":   len(results),
			"valid":   valid,
			"invalid": invalid,
			"risky":   risky,
			"unknown": unknown,
		},
	})
}
