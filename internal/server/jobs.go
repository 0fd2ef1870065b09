package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/registry"
)

// AnalyzeResponse is returned on successful submission.
type AnalyzeResponse struct {
	JobID string `json:"jobId"`
}

// HandleAnalyze handles POST /api/analyze: a multipart document upload plus
// a "turns" form value. Validation failures reject the request before any
// job is created.
func (s *Server) HandleAnalyze(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	turnsValue := c.PostForm("turns")
	if turnsValue == "" {
		turnsValue = "2"
	}
	roundsPerFactor, err := strconv.Atoi(turnsValue)
	if err != nil || roundsPerFactor < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid number of turns"})
		return
	}

	document, err := io.ReadAll(io.LimitReader(file, s.cfg.Server.MaxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	if int64(len(document)) > s.cfg.Server.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}
	if len(document) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty document"})
		return
	}

	job := &models.Job{
		ID:              "job-" + uuid.New().String(),
		State:           models.JobStatePending,
		RoundsPerFactor: roundsPerFactor,
		CreatedAt:       time.Now(),
	}
	s.registry.Create(job)
	if s.collector != nil {
		s.collector.JobsSubmitted.Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"rounds":   roundsPerFactor,
		"doc_size": len(document),
	}).Info("Job submitted")

	// Fire and forget: the pipeline runs to completion or failure whether
	// or not any session stays connected.
	go s.orch.Run(context.Background(), job.ID, string(document), roundsPerFactor)

	c.JSON(http.StatusOK, AnalyzeResponse{JobID: job.ID})
}

// HandleJobStatus handles GET /api/job/:jobId and returns the current job
// snapshot, including result or error once terminal.
func (s *Server) HandleJobStatus(c *gin.Context) {
	job, err := s.registry.Get(c.Param("jobId"))
	if err != nil {
		if errors.Is(err, registry.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}
