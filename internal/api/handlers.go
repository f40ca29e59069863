package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfquery/internal/config"
	"pdfquery/internal/service/assistant"
	"pdfquery/internal/session"
)

const (
	msgNoFileUploaded   = "No file uploaded"
	msgNotJSON          = "Content-Type must be application/json"
	msgInvalidJSON      = "Invalid JSON body"
	msgRequestTooLarge  = "File is too large. Maximum size is 16MB"
	msgUnexpected       = "An unexpected error occurred"
	msgNotFound         = "not found"
	landingTemplateName = "index.html"
	multipartFileField  = "file"
)

// Handler wires HTTP routes to the assistant service.
type Handler struct {
	assistant    *assistant.Service
	sessions     *session.Manager
	logger       *logrus.Logger
	maxBodyBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(service *assistant.Service, sessions *session.Manager, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		assistant:    service,
		sessions:     sessions,
		logger:       logger,
		maxBodyBytes: config.MaxContentLength,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.bodyLimit(), h.sessions.Middleware())
	router.GET("/", h.home)
	router.GET("/favicon.ico", h.favicon)
	router.POST("/upload-pdf", h.uploadPDF)
	router.POST("/chat", h.chat)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	})
}

// bodyLimit caps request bodies; reads past the limit fail with *http.MaxBytesError.
func (h *Handler) bodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > h.maxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgRequestTooLarge})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
		}
		c.Next()
	}
}

func (h *Handler) home(c *gin.Context) {
	h.assistant.CleanTempFiles(c.Request.Context())
	c.HTML(http.StatusOK, landingTemplateName, gin.H{
		"MaxUploadMB":  h.maxBodyBytes >> 20,
		"MaxTextChars": config.MaxTextChars,
	})
}

func (h *Handler) favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile(multipartFileField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgRequestTooLarge})
		case errors.Is(err, http.ErrMissingFile) && emptyFilePart(c):
			// browsers send an empty file part when nothing was picked
			c.JSON(http.StatusBadRequest, gin.H{"error": assistant.MsgNoFileSelected})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": msgNoFileUploaded})
		}
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		h.logger.WithError(err).Error("open uploaded file failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": assistant.MsgProcessingFailed})
		return
	}
	defer src.Close()

	sessionID, ok := session.IDFromContext(c)
	if !ok {
		sessionID = session.NewID()
	}
	tmp, err := h.assistant.UploadDocument(c.Request.Context(), sessionID, fileHeader.Filename, src)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"file":       tmp.OriginalName,
		"bytes":      tmp.Size,
		"chars":      tmp.TextChars,
	}).Info("pdf uploaded")
	h.sessions.Bind(c, sessionID)
	c.JSON(http.StatusOK, gin.H{"message": assistant.MsgUploadSucceeded})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	if !isJSON(c.ContentType()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNotJSON})
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgRequestTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSON})
		return
	}
	sessionID, _ := session.IDFromContext(c)
	answer, err := h.assistant.Ask(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

// respondError converts service errors into HTTP responses. Causes are logged
// by the service and never written to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	e, ok := assistant.AsError(err)
	if !ok {
		h.logger.WithError(err).Error("unhandled service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
		return
	}
	status := http.StatusInternalServerError
	if e.Kind == assistant.KindInvalidInput {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": e.Message})
}

// isJSON accepts application/json and structured syntax types such as
// application/vnd.api+json.
func isJSON(mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	return mediaType == gin.MIMEJSON ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}

func emptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[multipartFileField]
	return ok
}
