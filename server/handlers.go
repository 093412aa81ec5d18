package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/trickle"
	"github.com/hupe1980/trickle/dataset"
	"github.com/hupe1980/trickle/internal/resource"
	"github.com/hupe1980/trickle/model"
	"github.com/hupe1980/trickle/session"
)

type createQuery struct {
	Data string `form:"data" binding:"required"`
}

type sampleQuery struct {
	Size int `form:"size" binding:"gte=0"`
}

type allDataQuery struct {
	Remaining bool `form:"remaining"`
}

type dimensionQuery struct {
	Dimension string `form:"dimension" binding:"required"`
}

type steerQuery struct {
	Dimension string   `form:"dimension" binding:"required"`
	Min       *float64 `form:"min" binding:"required"`
	Max       *float64 `form:"max" binding:"required"`
	ID        string   `form:"id"`
}

type cancelQuery struct {
	ID string `form:"id"`
}

// chunkResponse is the wire shape of a chunk.
type chunkResponse struct {
	Timestamp string         `json:"timestamp"`
	Sample    []model.Record `json:"sample"`
}

func newChunkResponse(records []model.Record) chunkResponse {
	if records == nil {
		records = []model.Record{}
	}
	return chunkResponse{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Sample:    records,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownSession), errors.Is(err, dataset.ErrUnknownDataset):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrBusy), errors.Is(err, resource.ErrRecordLimitExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.opts.Logger.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(code, errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) params(c *gin.Context, ds *dataset.Dataset) params {
	return params{q: c.Request.URL.Query(), defaults: s.opts.Defaults, ds: ds}
}

// withSession runs fn with exclusive access to the Sampler of the session
// named by the :id path parameter.
func (s *Server) withSession(c *gin.Context, fn func(*trickle.Sampler) error) bool {
	sess, err := s.dir.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return false
	}
	if err := sess.Do(fn); err != nil {
		s.fail(c, err)
		return false
	}
	return true
}

func (s *Server) health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": s.dir.Stats(),
		})
	}
}

func (s *Server) createPipeline() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q createQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		ds, err := s.source.Load(ctx, q.Data)
		if err != nil {
			s.fail(c, err)
			return
		}
		cfg, err := s.params(c, ds).pipeline()
		if err != nil {
			s.fail(c, err)
			return
		}
		sess, err := s.dir.Create(ctx, c.Param("id"), q.Data, cfg)
		s.metrics.Sessions.Set(float64(s.dir.Len()))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Info())
	}
}

func (s *Server) updateLinearization() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok := s.withSession(c, func(p *trickle.Sampler) error {
			cfg, err := s.params(c, p.Dataset()).linearization()
			if err != nil {
				return err
			}
			return p.SwapLinearization(c.Request.Context(), cfg)
		})
		if ok {
			c.Status(http.StatusNoContent)
		}
	}
}

func (s *Server) updateSubdivision() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok := s.withSession(c, func(p *trickle.Sampler) error {
			cfg, err := s.params(c, p.Dataset()).subdivision()
			if err != nil {
				return err
			}
			return p.SwapSubdivision(c.Request.Context(), cfg)
		})
		if ok {
			c.Status(http.StatusNoContent)
		}
	}
}

func (s *Server) updateSelection() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok := s.withSession(c, func(p *trickle.Sampler) error {
			cfg, err := s.params(c, p.Dataset()).selection()
			if err != nil {
				return err
			}
			if !c.Request.URL.Query().Has("dimension") {
				cfg.Attribute = p.Config().Selection.Attribute
			}
			return p.SwapSelection(c.Request.Context(), cfg)
		})
		if ok {
			c.Status(http.StatusNoContent)
		}
	}
}

func (s *Server) updateDimension() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dimensionQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.badRequest(c, err)
			return
		}
		ok := s.withSession(c, func(p *trickle.Sampler) error {
			a, err := resolveAttribute(p.Dataset(), model.StageSelection, "dimension", q.Dimension)
			if err != nil {
				return err
			}
			return p.SetSelectionAttribute(c.Request.Context(), a)
		})
		if ok {
			c.Status(http.StatusNoContent)
		}
	}
}

func (s *Server) sample() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q sampleQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.badRequest(c, err)
			return
		}
		sess, err := s.dir.Get(c.Param("id"))
		if err != nil {
			s.fail(c, err)
			return
		}
		chunk, ok, err := sess.Sample(c.Request.Context(), q.Size)
		if err != nil {
			s.fail(c, err)
			return
		}
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, newChunkResponse(chunk))
	}
}

// allData returns every record of the session's dataset, or with
// ?remaining=true drains the records not yet sampled.
func (s *Server) allData() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q allDataQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.badRequest(c, err)
			return
		}
		var records []model.Record
		ok := s.withSession(c, func(p *trickle.Sampler) error {
			if q.Remaining {
				records = p.Drain(c.Request.Context())
			} else {
				records = p.Dataset().Records()
			}
			return nil
		})
		if ok {
			c.JSON(http.StatusOK, newChunkResponse(records))
		}
	}
}

func (s *Server) dataSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		var size int
		ok := s.withSession(c, func(p *trickle.Sampler) error {
			size = p.DatasetSize()
			return nil
		})
		if ok {
			c.JSON(http.StatusOK, size)
		}
	}
}

func (s *Server) steer() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q steerQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.badRequest(c, err)
			return
		}
		apply := func(p *trickle.Sampler) error {
			a, err := resolveAttribute(p.Dataset(), model.StageSelection, "dimension", q.Dimension)
			if err != nil {
				return err
			}
			return p.Steer(a, *q.Min, *q.Max)
		}

		var err error
		switch {
		case q.ID != "":
			var sess *session.Session
			if sess, err = s.dir.Get(q.ID); err == nil {
				err = sess.Do(apply)
			}
		default:
			if a, convErr := strconv.Atoi(q.Dimension); convErr == nil {
				err = s.dir.SteerAll(a, *q.Min, *q.Max)
			} else {
				err = s.dir.Each(func(sess *session.Session) error { return sess.Do(apply) })
			}
		}
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) cancelSteering() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q cancelQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			s.badRequest(c, err)
			return
		}
		if q.ID == "" {
			s.dir.ClearSteeringAll()
			c.Status(http.StatusNoContent)
			return
		}
		sess, err := s.dir.Get(q.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
		_ = sess.Do(func(p *trickle.Sampler) error {
			p.ClearSteering()
			return nil
		})
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) reset() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.dir.Reset()
		s.metrics.Sessions.Set(0)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) listSessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := []session.Info{}
		_ = s.dir.Each(func(sess *session.Session) error {
			infos = append(infos, sess.Info())
			return nil
		})
		c.JSON(http.StatusOK, infos)
	}
}

func (s *Server) getSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.dir.Get(c.Param("id"))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Info())
	}
}

func (s *Server) deleteSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.dir.Delete(c.Param("id"))
		s.metrics.Sessions.Set(float64(s.dir.Len()))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
