package http

import (
	"io"
	"mime"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-ledger-api/internal/application/dto"
	"github.com/jhoicas/retail-ledger-api/internal/application/importer"
)

// ImportHandler importación de facturas de proveedor asistida por IA.
type ImportHandler struct {
	uc *importer.UseCase
}

// NewImportHandler construye el handler.
func NewImportHandler(uc *importer.UseCase) *ImportHandler {
	return &ImportHandler{uc: uc}
}

// Preview godoc
// @Summary      Previsualizar factura de proveedor
// @Description  Extrae las líneas del documento (PDF o imagen) y las empareja con el catálogo.
// @Description  No modifica el inventario. Timeout interno de 10 s.
// @Tags         import
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "Factura (application/pdf, image/png, image/jpeg, image/webp)"
// @Success      200       {object}  dto.ImportPreviewResponse
// @Failure      400       {object}  dto.ErrorResponse
// @Failure      408       {object}  dto.ErrorResponse
// @Failure      503       {object}  dto.ErrorResponse
// @Router       /api/import/preview [post]
func (h *ImportHandler) Preview(c *fiber.Ctx) error {
	fh, err := c.FormFile("document")
	if err != nil {
		return badRequest(c, "MISSING_DOCUMENT", "falta el archivo 'document'")
	}
	if fh.Size > importer.MaxDocumentSize {
		return badRequest(c, "DOCUMENT_TOO_LARGE", "el documento supera 10 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "INVALID_DOCUMENT", "no se pudo leer el documento")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, importer.MaxDocumentSize+1))
	if err != nil {
		return badRequest(c, "INVALID_DOCUMENT", "no se pudo leer el documento")
	}

	mediaType, _, _ := mime.ParseMediaType(fh.Header.Get(fiber.HeaderContentType))
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}

	out, err := h.uc.Preview(c.UserContext(), mediaType, data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Apply godoc
// @Summary      Aplicar factura de proveedor
// @Description  Reabastece las líneas confirmadas en una sola transacción: todas o ninguna.
// @Tags         import
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImportApplyRequest  true  "Líneas confirmadas"
// @Success      200   {object}  dto.ImportApplyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/import/apply [post]
func (h *ImportHandler) Apply(c *fiber.Ctx) error {
	var in dto.ImportApplyRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Apply(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
