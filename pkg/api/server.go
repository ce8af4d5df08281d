// Package api provides the REST API server for midi-2-synth
package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gumaerc/midi-2-synth/pkg/mapper"
)

// @title midi-2-synth API
// @version 1.0
// @description API for inspecting MIDI tempo timelines and segment plans
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/timeline", handleTimeline)
		v1.POST("/segments", handleSegments)
		v1.POST("/filename/decode", handleFilenameDecode)
		v1.GET("/filename/encode", handleFilenameEncode)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midi-2-synth",
	})
}

// readMIDIUpload reads the uploaded MIDI file and the bpm form value.
func readMIDIUpload(c *gin.Context) ([]byte, float64, bool) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No MIDI file uploaded"})
		return nil, 0, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, 0, false
	}

	bpm, err := strconv.ParseFloat(c.DefaultPostForm("bpm", "120"), 64)
	if err != nil || bpm <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bpm value"})
		return nil, 0, false
	}
	return data, bpm, true
}

// handleTimeline godoc
// @Summary Extract the tempo/meter timeline of a MIDI file
// @Description Upload a MIDI file and receive its millisecond-keyed change map
// @Tags timeline
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Param bpm formData number false "Base BPM for tick 0 (default: 120)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/timeline [post]
func handleTimeline(c *gin.Context) {
	data, bpm, ok := readMIDIUpload(c)
	if !ok {
		return
	}

	cm, err := mapper.ParseTimeline(data, bpm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"change_points": cm.Points(),
		"count":         cm.Len(),
	})
}

// handleSegments godoc
// @Summary Build the segment plan for a MIDI file
// @Description Upload a MIDI file with an audio duration and receive the ordered segment list a split run would use
// @Tags timeline
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Param bpm formData number false "Base BPM for tick 0 (default: 120)"
// @Param duration_ms formData number true "Audio duration in milliseconds"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/segments [post]
func handleSegments(c *gin.Context) {
	data, bpm, ok := readMIDIUpload(c)
	if !ok {
		return
	}

	durationMs, err := strconv.ParseFloat(c.PostForm("duration_ms"), 64)
	if err != nil || durationMs <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duration_ms value"})
		return
	}

	cm, err := mapper.ParseTimeline(data, bpm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	segments := mapper.BuildSegments(cm, durationMs, bpm)
	c.JSON(http.StatusOK, gin.H{
		"segments": segments,
		"count":    len(segments),
	})
}

type decodeRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// handleFilenameDecode godoc
// @Summary Decode a segment filename
// @Description Parse a canonical segment filename back into its metadata
// @Tags filename
// @Accept json
// @Produce json
// @Param request body decodeRequest true "Filename to decode"
// @Success 200 {object} mapper.SegmentMetadata
// @Failure 400 {object} map[string]string
// @Router /api/v1/filename/decode [post]
func handleFilenameDecode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing filename"})
		return
	}

	meta, err := mapper.ParseSegmentFilename(req.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// handleFilenameEncode godoc
// @Summary Encode a segment filename
// @Description Build the canonical segment filename from metadata query parameters
// @Tags filename
// @Produce json
// @Param base query string true "Base name"
// @Param number query int true "Segment number (1-based)"
// @Param total query int true "Total segment count"
// @Param bpm query number true "Segment BPM"
// @Param numerator query int false "Time signature numerator"
// @Param denominator query int false "Time signature denominator"
// @Param start_s query number true "Start time in seconds"
// @Param end_s query number true "End time in seconds"
// @Param ext query string false "File extension (default: synth)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/v1/filename/encode [get]
func handleFilenameEncode(c *gin.Context) {
	number, err1 := strconv.Atoi(c.Query("number"))
	total, err2 := strconv.Atoi(c.Query("total"))
	bpm, err3 := strconv.ParseFloat(c.Query("bpm"), 64)
	start, err4 := strconv.ParseFloat(c.Query("start_s"), 64)
	end, err5 := strconv.ParseFloat(c.Query("end_s"), 64)
	base := c.Query("base")
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || base == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid query parameters"})
		return
	}

	meta := mapper.SegmentMetadata{
		BaseName:      base,
		SegmentNumber: number,
		BPM:           bpm,
		StartTimeS:    start,
		EndTimeS:      end,
		DurationS:     end - start,
		FileExtension: c.DefaultQuery("ext", "synth"),
	}
	if num, err := strconv.Atoi(c.Query("numerator")); err == nil {
		if den, err := strconv.Atoi(c.Query("denominator")); err == nil {
			meta.Meter = &mapper.TimeSignature{Numerator: num, Denominator: den}
		}
	}

	c.JSON(http.StatusOK, gin.H{"filename": meta.Filename(total)})
}
