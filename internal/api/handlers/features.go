package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/formulation"
)

var featureCatalog = []models.FeatureInfo{
	{
		Name:        string(formulation.FeaturePeakDemand),
		Description: "Unmet demand in peak hours is at most (1 - peak_target) of peak demand.",
		Requires:    []string{"peak_target", "peak_hours"},
	},
	{
		Name:        string(formulation.FeaturePeakStorageRules),
		Description: "Battery covers peak_target of peak demand, charges from solar first, discharges only when solar is short, and solar dispatch is capped by PPA and connectivity limits.",
		Requires:    []string{"ess", "peak_target", "peak_hours"},
	},
	{
		Name:        string(formulation.FeatureBatteryEnergyCap),
		Description: "State of charge is capped at max_energy_capacity x storage nameplate.",
		Requires:    []string{"ess", "ess.max_energy_capacity"},
	},
	{
		Name:        string(formulation.FeatureAnnualCurtailmentCap),
		Description: "Total curtailment is at most annual_curtailment_limit of total potential generation.",
		Requires:    []string{"annual_curtailment_limit"},
	},
	{
		Name:        string(formulation.FeatureChargeFromRenewables),
		Description: "The battery only charges from renewable dispatch and never stores negative energy.",
		Requires:    []string{"ess"},
	},
	{
		Name:        string(formulation.FeatureStrictDoD),
		Description: "State of charge never drops below (1 - dod) of storage nameplate.",
		Requires:    []string{"ess", "options.strict_dod"},
	},
	{
		Name:        string(formulation.FeatureDailyDischarge),
		Description: "Daily discharge meets the requirement estimated by the daily sizing stage.",
		Requires:    []string{"ess", "two_stage"},
	},
	{
		Name:        string(formulation.FeatureDailySOCCycle),
		Description: "End-of-day state of charge stays within the cycle bounds of start-of-day state of charge.",
		Requires:    []string{"ess", "two_stage"},
	},
}

// ListFeatures handles GET /api/v1/features
func ListFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": featureCatalog})
}
