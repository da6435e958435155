package controller

import (
	"io"
	"strings"

	"ai-studypdf-be/internal/config"
	"ai-studypdf-be/internal/pkg/serverutils"
	"ai-studypdf-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	CheckPdfQuota(ctx *fiber.Ctx) error
	UploadPdf(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
	cfg             *config.Config
}

func NewDocumentController(documentService service.IDocumentService, cfg *config.Config) IDocumentController {
	return &documentController{
		documentService: documentService,
		cfg:             cfg,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	r.Get("/check_pdf_quota", serverutils.IdentityMiddleware, c.CheckPdfQuota)
	r.Post("/upload_pdf", serverutils.IdentityMiddleware, c.UploadPdf)
}

func (c *documentController) CheckPdfQuota(ctx *fiber.Ctx) error {
	identityID, creds := callerFromLocals(ctx)

	res, err := c.documentService.CheckPdfQuota(ctx.Context(), identityID, creds)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *documentController) UploadPdf(ctx *fiber.Ctx) error {
	identityID, creds := callerFromLocals(ctx)

	fileHeader, err := ctx.FormFile("pdf")
	if err != nil {
		return serverutils.NewValidationError("missing 'pdf' file field")
	}

	maxBytes := int64(c.cfg.Ingest.MaxUploadSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "pdf exceeds the maximum upload size")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/pdf") {
		return serverutils.NewValidationError("only application/pdf uploads are accepted")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	pdfBytes, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	datasetTag := ctx.FormValue("datasetTag")

	res, err := c.documentService.UploadPdf(ctx.Context(), identityID, creds, fileHeader.Filename, pdfBytes, datasetTag)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
