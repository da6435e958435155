package serverutils

import (
	"errors"

	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/pkg/ai/router"
	"ai-studypdf-be/pkg/flashcard"
	"ai-studypdf-be/pkg/quota"
	"ai-studypdf-be/pkg/rag/summary"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors to HTTP statuses with
// machine-readable bodies. Controllers just return the error.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var quotaErr *dto.QuotaExceededError
		if errors.As(err, &quotaErr) {
			return ctx.Status(fiber.StatusForbidden).JSON(dto.QuotaExceededResponse{
				Error:       quotaErr.Error(),
				QueriesUsed: quotaErr.QueriesUsed,
				MaxQueries:  quotaErr.MaxQueries,
				PdfsUsed:    quotaErr.PdfsUsed,
				MaxPdfs:     quotaErr.MaxPdfs,
			})
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Message})
		}

		if errors.Is(err, quota.ErrUnauthenticated) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		if errors.Is(err, router.ErrEmptyQuestion) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		// Empty retrieval is a hard failure for flashcards; question
		// answering degrades inside the router instead of erroring.
		if errors.Is(err, summary.ErrScopeNotFound) ||
			errors.Is(err, flashcard.ErrNoTopicsExtracted) ||
			errors.Is(err, flashcard.ErrInsufficientContext) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
