// Package server hosts the dashboard's static files, and optionally the
// local task endpoint, on one echo instance.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Makepad-fr/taskboard/internal/sheetapi"
)

// ErrNotFound means the requested path does not name a readable file under the root.
var ErrNotFound = errors.New("not found")

const indexFile = "index.html"

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// ContentType maps a file name to the served MIME type; unknown extensions are text/plain.
func ContentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "text/plain"
}

type Options struct {
	// Dir is the asset root.
	Dir string
	// DevAPI, when set, is served at sheetapi.DefaultPath.
	DevAPI sheetapi.Backend
	Logger *log.Logger
}

// New builds the echo instance. Every response carries an open CORS header.
func New(opts Options) (*echo.Echo, error) {
	root, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("asset dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(allowAnyOrigin)
	e.Use(requestLogger(logger))

	if opts.DevAPI != nil {
		sheetapi.NewHandler(opts.DevAPI, logger).Register(e, sheetapi.DefaultPath)
	}
	e.Any("/*", staticHandler(root))
	return e, nil
}

// Run serves e on addr until ctx is done.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func allowAnyOrigin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
		return next(c)
	}
}

func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			entry := logger.WithFields(log.Fields{
				"method":   req.Method,
				"path":     req.URL.Path,
				"status":   c.Response().Status,
				"duration": time.Since(start),
			})
			if c.Response().Status >= http.StatusInternalServerError {
				entry.Warn("request")
			} else {
				entry.Debug("request")
			}
			return nil
		}
	}
}

func staticHandler(root string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, err := Resolve(root, c.Request().URL.Path)
		if err != nil {
			return c.String(http.StatusNotFound, "Not found")
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return c.String(http.StatusNotFound, "Not found")
		}
		return c.Blob(http.StatusOK, ContentType(name), data)
	}
}

// Resolve maps a URL path to a regular file under root. "/" means index.html.
// Paths that would leave root, and anything that is not a regular file, are ErrNotFound.
func Resolve(root, urlPath string) (string, error) {
	if urlPath == "" || urlPath == "/" {
		urlPath = "/" + indexFile
	}
	if strings.Contains(urlPath, "\x00") {
		return "", ErrNotFound
	}
	clean := path.Clean("/" + urlPath)
	name := filepath.Join(root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	fi, err := os.Stat(name)
	if err != nil || !fi.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return name, nil
}
