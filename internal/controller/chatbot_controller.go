package controller

import (
	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/pkg/serverutils"
	"ai-studypdf-be/internal/service"
	"ai-studypdf-be/pkg/quota"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	GenerateFlashcards(ctx *fiber.Ctx) error
}

type chatbotController struct {
	chatbotService service.IChatbotService
}

func NewChatbotController(chatbotService service.IChatbotService) IChatbotController {
	return &chatbotController{
		chatbotService: chatbotService,
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", serverutils.IdentityMiddleware, c.Chat)
	r.Post("/generate_flashcards", serverutils.IdentityMiddleware, c.GenerateFlashcards)
}

// callerFromLocals pulls the identity and any bypass credentials stashed
// by the identity middleware.
func callerFromLocals(ctx *fiber.Ctx) (string, quota.Credentials) {
	identityID, _ := ctx.Locals("identity_id").(string)
	googleKey, _ := ctx.Locals("google_key").(string)
	cohereKey, _ := ctx.Locals("cohere_key").(string)
	return identityID, quota.Credentials{GoogleKey: googleKey, CohereKey: cohereKey}
}

func (c *chatbotController) Chat(ctx *fiber.Ctx) error {
	identityID, creds := callerFromLocals(ctx)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatbotService.SendChat(ctx.Context(), identityID, creds, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatbotController) GenerateFlashcards(ctx *fiber.Ctx) error {
	identityID, creds := callerFromLocals(ctx)

	var req dto.GenerateFlashcardsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatbotService.GenerateFlashcards(ctx.Context(), identityID, creds, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
