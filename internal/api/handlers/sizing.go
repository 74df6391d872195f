package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/model"
	"hybrid-dispatch/internal/sizing"
)

// Size handles POST /api/v1/sizing
func Size(c *gin.Context) {
	var req models.SizingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	ts, err := snapshots(req.Snapshots, req.Start, len(req.Demand))
	if err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	peak, err := model.ParsePeakHours(req.PeakHours)
	if err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	res, err := sizing.Estimate(sizing.Input{
		Snapshots:          ts,
		Demand:             req.Demand,
		SolarPerUnit:       req.SolarPerUnit,
		SolarCapacityMW:    req.SolarCapacityMW,
		PeakHours:          peak,
		PeakTarget:         req.PeakTarget,
		DispatchEfficiency: req.DispatchEfficiency,
		DoD:                req.DoD,
	})
	if err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	c.JSON(http.StatusOK, models.SizingResponse{
		Days:                   toDaily(res),
		TotalRequiredDischarge: res.TotalRequiredDischargeMWh(),
		MaxRequiredCapacity:    res.MaxRequiredCapacityMWh(),
	})
}
