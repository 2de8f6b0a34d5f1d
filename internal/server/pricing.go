package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/verifield/fieldpay/internal/pricing/domain"
)

func (s *Server) GetPricingConfig(c *gin.Context) {
	cfg := s.pricingSvc.Current(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

func (s *Server) UpdatePricingConfig(c *gin.Context) {
	var req pricingdomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pricingSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
