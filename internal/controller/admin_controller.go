package controller

import (
	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/pkg/serverutils"
	"ai-studypdf-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ListUsers(ctx *fiber.Ctx) error
	UpdateUser(ctx *fiber.Ctx) error
	ListActivity(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService service.IAdminService
	adminEmail   string
}

func NewAdminController(adminService service.IAdminService, adminEmail string) IAdminController {
	return &adminController{
		adminService: adminService,
		adminEmail:   adminEmail,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.AdminMiddleware(c.adminEmail))
	h.Get("/users", c.ListUsers)
	h.Patch("/users/:id", c.UpdateUser)
	h.Get("/activity", c.ListActivity)
}

func (c *adminController) ListUsers(ctx *fiber.Ctx) error {
	res, err := c.adminService.ListUsers(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *adminController) UpdateUser(ctx *fiber.Ctx) error {
	var req dto.AdminUpdateUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.UpdateUser(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *adminController) ListActivity(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 100)

	res, err := c.adminService.ListActivity(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
