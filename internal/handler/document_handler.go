package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clearbooks/internal/domain"
	"clearbooks/internal/service"
)

// DocumentHandler handles document intake and inspection endpoints.
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload handles POST /api/v1/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	orgID, userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	declaredType := domain.DocumentType(c.PostForm("declared_type"))
	if declaredType == "" {
		declaredType = domain.DocTypeBankStatement
	}

	contentType := header.Header.Get("Content-Type")
	input := service.UploadDocumentInput{
		OrganizationID: orgID,
		UploadedBy:     userID,
		FileName:       header.Filename,
		ContentType:    contentType,
		DeclaredType:   declaredType,
		Size:           header.Size,
		Body:           file,
	}

	doc, err := h.docService.Upload(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, doc)
}

// GetByID handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	doc, err := h.docService.GetDocument(c.Request.Context(), orgID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	orgID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := paginationParams(c)
	docs, total, err := h.docService.ListDocuments(c.Request.Context(), orgID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

func paginationParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return offset, limit
}
