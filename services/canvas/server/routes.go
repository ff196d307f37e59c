// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web
var webFS embed.FS

// pages maps site routes to embedded HTML files.
var pages = map[string]string{
	"/":                 "web/index.html",
	"/privacy-policy":   "web/privacy-policy.html",
	"/terms-conditions": "web/terms-conditions.html",
	"/contact":          "web/contact.html",
}

// SetupRoutes registers every route on router.
func SetupRoutes(router *gin.Engine, s *Server) error {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	for route, file := range pages {
		body, err := webFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("load page %s: %w", file, err)
		}
		router.GET(route, servePage(body))
	}

	if s.cfg.StaticDir != "" {
		router.StaticFS("/static", http.Dir(s.cfg.StaticDir))
	} else {
		static, err := fs.Sub(webFS, "web/static")
		if err != nil {
			return fmt.Errorf("load static files: %w", err)
		}
		router.StaticFS("/static", http.FS(static))
	}

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/evaluate", s.HandleEvaluate())
		v1.POST("/classify", s.HandleClassify())
		v1.GET("/session/ws", s.HandleSessionWebSocket())

		tpl := v1.Group("/templates")
		{
			tpl.GET("", s.ListTemplates())
			tpl.GET("/:name", s.GetTemplate())
		}

		snaps := v1.Group("/snapshots")
		{
			snaps.GET("", s.ListSnapshots())
			snaps.GET("/:id", s.GetSnapshot())
			snaps.DELETE("/:id", s.DeleteSnapshot())
		}
	}
	return nil
}

func servePage(body []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
