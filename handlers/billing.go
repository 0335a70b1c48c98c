package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"mercato-backend/config"
	"mercato-backend/dtos"
	"mercato-backend/models"
	"mercato-backend/utils"
)

type BillingHandler struct {
	DB *gorm.DB
}

// defaultCommissionRate applies when BILLING_COMMISSION_RATE is unset.
const defaultCommissionRate = 0.10

func commissionRate() float64 {
	raw := config.GetEnv("BILLING_COMMISSION_RATE", "")
	if raw == "" {
		return defaultCommissionRate
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 || rate >= 1 {
		log.Printf("Ignoring invalid BILLING_COMMISSION_RATE %q", raw)
		return defaultCommissionRate
	}
	return rate
}

// periodBounds converts a "YYYY-MM" period into its half-open UTC interval.
func periodBounds(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// ListBillingRecords returns commission statements, optionally filtered by
// period or store.
func (h *BillingHandler) ListBillingRecords(c *gin.Context) {
	query := h.DB.Model(&models.BillingRecord{}).Preload("Store")

	if period := c.Query("period"); period != "" {
		query = query.Where("period = ?", period)
	}
	if storeID := c.Query("store_id"); storeID != "" {
		query = query.Where("store_id = ?", storeID)
	}

	var records []models.BillingRecord
	if err := query.Order("period DESC, created_at DESC").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch billing records"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// RunBilling kicks off a commission run for a period and returns a job ID
// the admin can poll. Defaults to the previous calendar month.
func (h *BillingHandler) RunBilling(c *gin.Context) {
	var req struct {
		Period string `json:"period"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	period := req.Period
	if period == "" {
		period = time.Now().AddDate(0, -1, 0).Format("2006-01")
	}
	if _, _, err := periodBounds(period); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Period must be formatted as YYYY-MM"})
		return
	}

	var stores []models.Store
	if err := h.DB.Where("is_active = ?", true).Find(&stores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stores"})
		return
	}

	job := utils.Store.CreateJob(period, len(stores))
	go h.processBillingRun(job.ID, period, stores)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID.String(),
		"status": job.Status,
		"period": period,
		"total":  job.Total,
	})
}

func (h *BillingHandler) processBillingRun(jobID uuid.UUID, period string, stores []models.Store) {
	utils.Store.UpdateJob(jobID, func(j *dtos.BillingJob) {
		j.Status = dtos.JobStatusRunning
	})

	start, end, _ := periodBounds(period)
	rate := commissionRate()
	failed := 0

	for _, store := range stores {
		err := h.generateStatement(store, period, start, end, rate, jobID)
		utils.Store.UpdateJob(jobID, func(j *dtos.BillingJob) {
			j.Processed++
			if err != nil {
				j.Failed++
				j.Errors = append(j.Errors, dtos.JobError{
					StoreID: store.ID,
					Message: err.Error(),
				})
			}
		})
		if err != nil {
			failed++
			log.Printf("Billing run %s: store %s failed: %v", jobID, store.ID, err)
		}
	}

	status := dtos.JobStatusCompleted
	if failed > 0 && failed == len(stores) {
		status = dtos.JobStatusFailed
	}
	utils.Store.CompleteJob(jobID, status)
}

// generateStatement creates one store's billing record for the period, or
// skips it when a statement already exists.
func (h *BillingHandler) generateStatement(store models.Store, period string, start, end time.Time, rate float64, jobID uuid.UUID) error {
	var existing int64
	if err := h.DB.Model(&models.BillingRecord{}).
		Where("store_id = ? AND period = ?", store.ID, period).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		utils.Store.UpdateJob(jobID, func(j *dtos.BillingJob) {
			j.Skipped++
		})
		return nil
	}

	// Only delivered orders count toward commission.
	var agg struct {
		OrderCount  int64
		GrossVolume float64
	}
	if err := h.DB.Model(&models.Order{}).
		Where("store_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			store.ID, models.OrderStatusDelivered, start, end).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS gross_volume").
		Scan(&agg).Error; err != nil {
		return err
	}

	record := models.BillingRecord{
		StoreID:        store.ID,
		Period:         period,
		OrderCount:     agg.OrderCount,
		GrossVolume:    agg.GrossVolume,
		CommissionRate: rate,
		Commission:     agg.GrossVolume * rate,
		GeneratedAt:    time.Now(),
	}
	if err := h.DB.Create(&record).Error; err != nil {
		return err
	}

	utils.Store.UpdateJob(jobID, func(j *dtos.BillingJob) {
		j.Generated++
	})
	return nil
}

// GetBillingJob reports the progress of a billing run.
func (h *BillingHandler) GetBillingJob(c *gin.Context) {
	id := c.Param("id")
	jobID, err := uuid.Parse(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, exists := utils.Store.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}
