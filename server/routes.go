package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.health())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	r.GET("/create_pipeline/:id", s.createPipeline())
	r.GET("/update_linearization/:id", s.updateLinearization())
	r.GET("/update_subdivision/:id", s.updateSubdivision())
	r.GET("/update_selection/:id", s.updateSelection())
	r.GET("/update_dimension/:id", s.updateDimension())

	r.GET("/sample/:id", s.sample())
	r.GET("/all_data/:id", s.allData())
	r.GET("/data_size/:id", s.dataSize())

	r.GET("/steer", s.steer())
	r.GET("/steer/cancel", s.cancelSteering())
	r.GET("/reset", s.reset())

	sessions := r.Group("/sessions")
	{
		sessions.GET("", s.listSessions())
		sessions.GET("/:id", s.getSession())
		sessions.DELETE("/:id", s.deleteSession())
	}
}
