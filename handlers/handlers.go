package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"photostore/config"
	"photostore/metrics"
	"photostore/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type HealthResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Stage     string `json:"stage"`
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Message:   "API is healthy!",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Stage:     config.STAGE,
	})
}

type object struct {
	key         string
	body        []byte
	contentType string
	url         string // set by putObjects
}

// putObjects uploads all objects concurrently and fails if any upload fails
func putObjects(ctx context.Context, objects ...*object) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, o := range objects {
		g.Go(func() (err error) {
			o.url, err = storage.Default.Put(ctx, o.key, bytes.NewReader(o.body), o.contentType)
			metrics.ObserveObject("put", err)
			return err
		})
	}
	return g.Wait()
}

// deleteObjects removes the objects behind the given URLs concurrently
func deleteObjects(ctx context.Context, urls ...string) error {
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		key, err := storage.Default.KeyFromURL(u)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			err := storage.Default.Delete(ctx, key)
			metrics.ObserveObject("delete", err)
			return err
		})
	}
	return g.Wait()
}
