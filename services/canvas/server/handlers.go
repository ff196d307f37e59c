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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/aircanvas/services/canvas/expr"
	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
	"github.com/AleutianAI/aircanvas/services/canvas/shape"
	"github.com/AleutianAI/aircanvas/services/canvas/storage"
	"github.com/AleutianAI/aircanvas/services/canvas/templates"
)

var handlerTracer = otel.Tracer("aircanvas.server.handlers")

// =============================================================================
// Request / response types
// =============================================================================

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression" binding:"max=256"`
}

// EvaluateResponse is a successful evaluation.
type EvaluateResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Display    string  `json:"display"`
}

// ClassifyRequest is the body of POST /v1/classify.
type ClassifyRequest struct {
	Points []geometry.Point `json:"points" binding:"required,min=1"`
	Color  string           `json:"color" binding:"required"`
}

// ClassifyResponse is the classifier outcome for one path.
type ClassifyResponse struct {
	Shape    string               `json:"shape"`
	Detected bool                 `json:"detected"`
	Box      geometry.BoundingBox `json:"bbox"`
}

// TemplateSummary is one entry of GET /v1/templates.
type TemplateSummary struct {
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Segments int    `json:"segments"`
}

// TemplateDetail is the body of GET /v1/templates/:name.
type TemplateDetail struct {
	Name   string               `json:"name"`
	Points []geometry.Point     `json:"points"`
	Bounds geometry.BoundingBox `json:"bounds"`
}

// =============================================================================
// Evaluate / classify
// =============================================================================

// HandleEvaluate evaluates an arithmetic expression.
//
// Evaluation failures are 422 with the error kind, so clients can tell a
// division by zero from a syntax problem.
func (s *Server) HandleEvaluate() gin.HandlerFunc {
	evaluator := expr.New()
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleEvaluate")
		defer span.End()

		var req EvaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		span.SetAttributes(attribute.String("expression", req.Expression))

		v, err := evaluator.Evaluate(req.Expression)
		if err != nil {
			kind := "error"
			if k, ok := expr.KindOf(err); ok {
				kind = k.String()
			}
			s.metrics.ObserveEvaluation(kind)
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": kind})
			return
		}

		s.metrics.ObserveEvaluation("ok")
		c.JSON(http.StatusOK, EvaluateResponse{
			Expression: req.Expression,
			Result:     v,
			Display:    expr.FormatResult(v),
		})
	}
}

// HandleClassify runs the shape classifier over a posted path.
func (s *Server) HandleClassify() gin.HandlerFunc {
	classifier := shape.New(shape.WithMinSamples(s.cfg.Session.MinSamples))
	return func(c *gin.Context) {
		_, span := handlerTracer.Start(c.Request.Context(), "HandleClassify")
		defer span.End()

		var req ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		res := classifier.Classify(req.Points, req.Color)
		span.SetAttributes(
			attribute.Int("points", len(req.Points)),
			attribute.String("shape", res.Shape.String()))
		if res.Detected() {
			s.metrics.ObserveDetection(res.Shape.String())
		}
		c.JSON(http.StatusOK, ClassifyResponse{
			Shape:    res.Shape.String(),
			Detected: res.Detected(),
			Box:      res.Box,
		})
	}
}

// =============================================================================
// Templates
// =============================================================================

// ListTemplates returns every template in catalog order.
func (s *Server) ListTemplates() gin.HandlerFunc {
	return func(c *gin.Context) {
		catalog := s.registry.Catalog()
		out := make([]TemplateSummary, 0, catalog.Len())
		for _, name := range catalog.Names() {
			t, _ := catalog.Lookup(name)
			out = append(out, TemplateSummary{Name: t.Name(), Points: t.Len(), Segments: t.Segments()})
		}
		c.JSON(http.StatusOK, gin.H{"templates": out, "count": len(out)})
	}
}

// GetTemplate returns the points of one template.
func (s *Server) GetTemplate() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := s.registry.Lookup(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}
		c.JSON(http.StatusOK, templateDetail(t))
	}
}

func templateDetail(t *templates.Template) TemplateDetail {
	return TemplateDetail{Name: t.Name(), Points: t.Points(), Bounds: t.Bounds()}
}

// =============================================================================
// Snapshots
// =============================================================================

// ListSnapshots returns saved snapshots, newest first.
func (s *Server) ListSnapshots() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireSnapshots(c) {
			return
		}
		ctx, span := handlerTracer.Start(c.Request.Context(), "ListSnapshots")
		defer span.End()

		list, err := s.snapshots.List(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to list snapshots", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snapshots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"snapshots": list, "count": len(list)})
	}
}

// GetSnapshot returns one snapshot with its segments.
func (s *Server) GetSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireSnapshots(c) {
			return
		}
		ctx, span := handlerTracer.Start(c.Request.Context(), "GetSnapshot")
		defer span.End()

		snap, err := s.snapshots.Get(ctx, c.Param("id"))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeSnapshotError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// DeleteSnapshot removes one snapshot.
func (s *Server) DeleteSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireSnapshots(c) {
			return
		}
		ctx, span := handlerTracer.Start(c.Request.Context(), "DeleteSnapshot")
		defer span.End()

		if err := s.snapshots.Delete(ctx, c.Param("id")); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			writeSnapshotError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) requireSnapshots(c *gin.Context) bool {
	if s.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot storage is disabled"})
		return false
	}
	return true
}

func writeSnapshotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidSnapshotID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot id"})
	case errors.Is(err, storage.ErrSnapshotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
	default:
		slog.Error("Snapshot storage failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot storage failed"})
	}
}
