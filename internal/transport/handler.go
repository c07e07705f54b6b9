package transport

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ivlev/descreen/internal/analyzer"
	"github.com/ivlev/descreen/internal/config"
	"github.com/ivlev/descreen/internal/descreen"
	"github.com/ivlev/descreen/internal/logger"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// errBadRequest marks malformed form input.
var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ChannelResponse struct {
	LPI        int     `json:"lpi"`
	Angle      int     `json:"angle"`
	PeakX      int     `json:"peak_x"`
	PeakY      int     `json:"peak_y"`
	Prominence float64 `json:"prominence"`
}

// AnalyzeResponse is the verdict for a single window.
type AnalyzeResponse struct {
	Found    bool              `json:"found"`
	LPI      int               `json:"lpi,omitempty"`
	Angle    int               `json:"angle,omitempty"`
	Source   int               `json:"source"`
	Agree    int               `json:"agree"`
	Channels []ChannelResponse `json:"channels"`
}

// ScanResponse is the tiled verdict for a whole page.
type ScanResponse struct {
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	DPI        float64          `json:"dpi"`
	WindowSize int              `json:"window_size"`
	Stride     int              `json:"stride"`
	Summary    analyzer.Summary `json:"summary"`
	Blocks     []analyzer.Block `json:"blocks"`
}

type Handler struct {
	cfg      *config.ServerConfig
	opts     analyzer.Options
	analyzer *descreen.Analyzer
}

// NewHandler wires the routes. opts carries the detector defaults; Pow2 is the
// window exponent used when a request does not name one.
func NewHandler(cfg *config.ServerConfig, opts analyzer.Options) http.Handler {
	h := &Handler{
		cfg:      cfg,
		opts:     opts,
		analyzer: descreen.NewAnalyzer(opts.Analyzer),
	}

	r := gin.Default()
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", h.analyzeWindow)
	r.POST("/scan", h.scanPage)

	return r
}

func (h *Handler) analyzeWindow(c *gin.Context) {
	startTime := time.Now()

	img, err := formImage(c)
	if err != nil {
		respondError(c, statusCode(err), "invalid image upload", err)
		return
	}
	dpi, err := formFloat(c, "dpi", 0)
	if err != nil {
		respondError(c, statusCode(err), "invalid dpi", err)
		return
	}
	pow2, err := h.formPow2(c)
	if err != nil {
		respondError(c, statusCode(err), "invalid window", err)
		return
	}
	x, errX := formInt(c, "x", 0)
	y, errY := formInt(c, "y", 0)
	if err := errors.Join(errX, errY); err != nil {
		respondError(c, statusCode(err), "invalid window origin", err)
		return
	}

	buf := descreen.NewImageBuffer(img, dpi)
	det, err := h.analyzer.Detect(buf, descreen.Window{X: x, Y: y, Pow2: pow2})
	if err != nil {
		respondError(c, statusCode(err), "analysis failed", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"x":                  x,
		"y":                  y,
		"pow2":               pow2,
		"found":              det.Found,
		"lpi":                det.LPI,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Window analysis completed")

	c.JSON(http.StatusOK, newAnalyzeResponse(det))
}

func (h *Handler) scanPage(c *gin.Context) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	img, err := formImage(c)
	if err != nil {
		respondError(c, statusCode(err), "invalid image upload", err)
		return
	}
	dpi, err := formFloat(c, "dpi", 0)
	if err != nil {
		respondError(c, statusCode(err), "invalid dpi", err)
		return
	}
	pow2, err := h.formPow2(c)
	if err != nil {
		respondError(c, statusCode(err), "invalid window", err)
		return
	}
	stride, err := formInt(c, "stride", h.opts.Stride)
	if err != nil {
		respondError(c, statusCode(err), "invalid stride", err)
		return
	}
	if dpi <= 0 {
		err := fmt.Errorf("%w: dpi must be > 0", descreen.ErrInvalidConfig)
		respondError(c, statusCode(err), "invalid dpi", err)
		return
	}

	opts := h.opts
	opts.Pow2, opts.Stride = pow2, stride
	det, err := analyzer.NewScreentoneDetector(opts)
	if err != nil {
		err = fmt.Errorf("%w: %v", descreen.ErrInvalidConfig, err)
		respondError(c, statusCode(err), "invalid scan options", err)
		return
	}

	blocks, err := det.Detect(ctx, img, dpi)
	if err != nil {
		respondError(c, statusCode(err), "scan failed", err)
		return
	}
	summary := analyzer.Summarize(blocks)

	logger.WithFields(logrus.Fields{
		"tiles":              summary.Tiles,
		"coverage":           summary.Coverage,
		"lpi":                summary.LPI,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Page scan completed")

	bounds := img.Bounds()
	c.JSON(http.StatusOK, ScanResponse{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		DPI:        dpi,
		WindowSize: 1 << pow2,
		Stride:     det.Stride,
		Summary:    summary,
		Blocks:     blocks,
	})
}

func newAnalyzeResponse(d descreen.Detection) AnalyzeResponse {
	resp := AnalyzeResponse{
		Found:    d.Found,
		Source:   d.Source,
		Agree:    d.Agree,
		Channels: make([]ChannelResponse, len(d.Channels)),
	}
	if d.Found {
		resp.LPI, resp.Angle = d.LPI, d.Angle
	}
	for i, ch := range d.Channels {
		resp.Channels[i] = ChannelResponse{
			LPI:        ch.LPI,
			Angle:      ch.Angle,
			PeakX:      ch.Peak.X,
			PeakY:      ch.Peak.Y,
			Prominence: ch.Prominence(),
		}
	}
	return resp
}

func formImage(c *gin.Context) (image.Image, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", errBadRequest, fh.Filename, err)
	}
	return img, nil
}

func formInt(c *gin.Context, key string, def int) (int, error) {
	v := c.PostForm(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errBadRequest, key, err)
	}
	return n, nil
}

func formFloat(c *gin.Context, key string, def float64) (float64, error) {
	v := c.PostForm(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errBadRequest, key, err)
	}
	return f, nil
}

// formPow2 reads the window exponent and enforces the server's window cap.
func (h *Handler) formPow2(c *gin.Context) (int, error) {
	pow2, err := formInt(c, "pow2", h.opts.Pow2)
	if err != nil {
		return 0, err
	}
	if pow2 > h.cfg.MaxPow2 {
		return 0, fmt.Errorf("%w: pow2 %d exceeds the server limit of %d", descreen.ErrAllocation, pow2, h.cfg.MaxPow2)
	}
	return pow2, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "available",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, statusCode(err.Err), "request processing failed", err)
		}
	}
}

func statusCode(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, descreen.ErrAllocation):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), errors.Is(err, descreen.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
