package api

import (
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfquery/web"
)

// NewRouter builds the gin engine with request logging, panic recovery, the
// landing page template and every route of h.
func NewRouter(h *Handler, logger *logrus.Logger) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	var out io.Writer = io.Discard
	if logger != nil && gin.Mode() != gin.TestMode {
		out = logger.WriterLevel(logrus.InfoLevel)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(out))
	router.Use(gin.CustomRecoveryWithWriter(panicWriter(logger), func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
	}))
	router.SetHTMLTemplate(tmpl)
	h.RegisterRoutes(router)
	return router, nil
}

func panicWriter(logger *logrus.Logger) io.Writer {
	if logger == nil {
		return io.Discard
	}
	return logger.WriterLevel(logrus.ErrorLevel)
}
