package server

import (
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/inject"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/sandbox"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/validate"
)

// renderRequest is the body of POST /frames/:type/render.
type renderRequest struct {
	Family    string         `json:"family"`
	Location  string         `json:"location"`
	Payload   map[string]any `json:"payload"`
	Prerender bool           `json:"prerender"`
}

// renderResponse carries the rendered bootstrap document.
type renderResponse struct {
	FrameID string `json:"frame_id"`
	Master  bool   `json:"master"`
	HTML    string `json:"html"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  s.metrics.Uptime().String(),
		"embeds":  s.registry.Len(),
		"service": "embedos-runtime",
	})
}

func (s *Server) handleListEmbeds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"types": s.registry.Types(),
		"count": s.registry.Len(),
	})
}

func (s *Server) handleRenderFrame(c *gin.Context) {
	embedType := c.Param("type")

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, validate.MaxPayloadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var req renderRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if req.Family == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "family is required"})
		return
	}
	if err := validate.Depth(req.Payload, validate.MaxPayloadDepth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	family := s.family(req.Family)
	fc, err := family.NewContext(embedType, req.Location, req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := inject.NewDocument()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create bootstrap document"})
		return
	}
	doc.WithMetrics(s.metrics)

	if err := s.registry.Draw(fc, doc); err != nil {
		s.logger.Warn("embed draw failed",
			zap.String("type", embedType),
			zap.String("frame", fc.ID()),
			zap.Error(err),
		)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// Server-side prerender resolves queued script loads before the
	// document ships; normally the tags go to the client untouched.
	if req.Prerender && s.config.Sandbox.Enabled {
		vm, err := sandbox.New(sandbox.Config{
			Timeout:       time.Duration(s.config.Sandbox.TimeoutMS) * time.Millisecond,
			EnableConsole: true,
		}, fc)
		if err == nil {
			vm.WithMetrics(s.metrics)
			if err := inject.Flush(c.Request.Context(), doc, s.fetcher, vm); err != nil {
				s.logger.Warn("prerender flush incomplete",
					zap.String("frame", fc.ID()),
					zap.Error(err),
				)
			}
			_ = vm.Close()
		}
	}

	html, err := doc.Render()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render document"})
		return
	}

	c.JSON(http.StatusOK, renderResponse{
		FrameID: fc.ID(),
		Master:  fc.IsMaster(),
		HTML:    html,
	})
}
