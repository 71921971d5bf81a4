package server

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/identify"
	"github.com/rpger/content-extractor/internal/pipeline"
)

func (s *Server) upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	defer file.Close()

	limit := s.cfg.Pipeline.UploadMaxBytes
	blob, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}
	if int64(len(blob)) > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "upload too large", "code": common.CodeUploadTooLarge,
		})
		return
	}

	id, err := s.orch.Upload(blob, header.Filename)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

type analyzeRequest struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Game     string `json:"game"`
	Edition  string `json:"edition"`
	Book     string `json:"book"`
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	provider, _ := constants.ParseProvider(req.Provider)
	kind, _ := constants.ParseContentKind(req.Kind)

	verdict, err := s.orch.Analyze(c.Request.Context(), c.Param("id"), pipeline.AnalyzeOptions{
		Provider: provider,
		Kind:     kind,
		Override: identify.Override{
			Game:    req.Game,
			Edition: req.Edition,
			Book:    req.Book,
		},
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

type extractRequest struct {
	Provider    string `json:"provider"`
	TextEnhance string `json:"text_enhance"`
	Layout      string `json:"layout"`
}

// extract launches the run and returns immediately; callers follow the
// progress stream or poll status.
func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	provider, _ := constants.ParseProvider(req.Provider)
	mode, _ := constants.ParseEnhanceMode(req.TextEnhance)
	layout, _ := constants.ParseLayout(req.Layout)

	id := c.Param("id")
	if _, err := s.orch.Status(id); err != nil {
		s.writeError(c, err)
		return
	}

	go func() {
		if err := s.orch.Extract(context.Background(), id, pipeline.ExtractOptions{
			Provider: provider,
			Enhance:  mode,
			Layout:   layout,
		}); err != nil {
			s.logger.Warn("http.extract.terminal",
				zap.String("session", id), zap.String("code", common.CodeOf(err)))
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"session_id": id, "status": "extracting"})
}

func (s *Server) cancel(c *gin.Context) {
	if err := s.orch.Cancel(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

func (s *Server) status(c *gin.Context) {
	snap, err := s.orch.Status(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.orch.Sessions().Snapshots()})
}

func (s *Server) artifact(c *gin.Context) {
	artifact, err := s.orch.Artifact(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// progress streams session events as SSE until the terminal event.
func (s *Server) progress(c *gin.Context) {
	ch, cancel, err := s.orch.Subscribe(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("progress", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.CheckHealth(c.Request.Context()))
}

func (s *Server) listCollections(c *gin.Context) {
	names, err := s.collectionNames(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": names})
}

func (s *Server) browseCollection(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	store := c.Param("store")
	name := c.Param("name")

	switch store {
	case "vector":
		if s.orch.Vectors() == nil {
			s.writeError(c, common.Errorf(common.CodeStoreUnreachable, "vector store not configured"))
			return
		}
		docs, err := s.orch.Vectors().Sample(c.Request.Context(), name, limit)
		if err != nil {
			s.writeError(c, err)
			return
		}
		count, _ := s.orch.Vectors().Count(c.Request.Context(), name)
		c.JSON(http.StatusOK, gin.H{"docs": docs, "total": count})
	case "document":
		if s.orch.Documents() == nil {
			s.writeError(c, common.Errorf(common.CodeStoreUnreachable, "document store not configured"))
			return
		}
		page, err := s.orch.Documents().PageThrough(c.Request.Context(), name, offset, limit, nil)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"docs": page.Docs, "total": page.Total})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "store must be vector or document"})
	}
}

func (s *Server) collectionNames(c *gin.Context) ([]string, error) {
	switch c.Param("store") {
	case "vector":
		if s.orch.Vectors() == nil {
			return nil, common.Errorf(common.CodeStoreUnreachable, "vector store not configured")
		}
		return s.orch.Vectors().ListCollections(c.Request.Context())
	case "document":
		if s.orch.Documents() == nil {
			return nil, common.Errorf(common.CodeStoreUnreachable, "document store not configured")
		}
		return s.orch.Documents().ListCollections(c.Request.Context())
	}
	return nil, common.Errorf(common.CodeBadSession, "store must be vector or document")
}

// writeError maps error kind codes onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	code := common.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case common.CodeBadSession:
		status = http.StatusNotFound
	case common.CodeUploadTooLarge:
		status = http.StatusRequestEntityTooLarge
	case common.CodePDFUnreadable, common.CodePDFEncrypted, common.CodePDFEmpty:
		status = http.StatusUnprocessableEntity
	case common.CodeRejectedDuplicate:
		status = http.StatusConflict
	case common.CodeProviderUnauthorized:
		status = http.StatusBadGateway
	case common.CodeStoreUnreachable, common.CodeAIUnreachable, common.CodeAITimeout:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
