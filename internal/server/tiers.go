package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tierdomain "github.com/verifield/fieldpay/internal/tier/domain"
)

func (s *Server) ListTiers(c *gin.Context) {
	resp, err := s.tierSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveTier(c *gin.Context) {
	pincode := strings.TrimSpace(c.Param("pincode"))
	if pincode == "" {
		AbortWithError(c, tierdomain.ErrInvalidPincode)
		return
	}

	tier, mapped := s.tierSvc.Resolve(c.Request.Context(), pincode)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"pincode": pincode,
		"tier":    tier,
		"mapped":  mapped,
	}})
}

func (s *Server) ReloadTiers(c *gin.Context) {
	if err := s.tierSvc.Reload(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

func (s *Server) AssignPincodes(c *gin.Context) {
	var req tierdomain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Tier = strings.TrimSpace(c.Param("tier"))

	resp, err := s.tierSvc.AssignPincodes(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemovePincode(c *gin.Context) {
	pincode := strings.TrimSpace(c.Param("pincode"))

	if err := s.tierSvc.RemovePincode(c.Request.Context(), pincode); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
