package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	payoutdomain "github.com/verifield/fieldpay/internal/payout/domain"
)

// throttle guards the calculation endpoint with the shared token bucket,
// keyed per caller. With no Redis configured every request passes.
func (s *Server) throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := s.bucket.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !ok {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func (s *Server) CalculatePayout(c *gin.Context) {
	var req payoutdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.Calculate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSlabs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.slabs.Catalog().Definitions()})
}
