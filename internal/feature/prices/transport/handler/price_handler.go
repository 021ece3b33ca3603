// Package handler provides the HTTP handlers for the prices feature.
// The HTTP surface is read-only: it serves stored prices and never
// triggers provider fetches, which belong to the batch jobs.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockwatch/internal/feature/prices/domain/entity"
	"stockwatch/internal/feature/prices/transport/http/dto"
	"stockwatch/internal/feature/prices/usecase"
)

const dateFormat = "2006-01-02"

// PricesUsecase defines the price read operations the HTTP surface
// needs. Following Go convention, the interface is declared by the
// consumer (handler), not the provider (usecase).
type PricesUsecase interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]entity.StoredPrice, error)
	GetPriceOnDate(ctx context.Context, symbol string, date time.Time, lookbackDays int) (*entity.StoredPrice, error)
}

// PriceHandler handles HTTP requests for stored prices.
type PriceHandler struct {
	uc PricesUsecase
}

// NewPriceHandler creates a PriceHandler over the given usecase.
func NewPriceHandler(uc PricesUsecase) *PriceHandler {
	return &PriceHandler{uc: uc}
}

// GetHistory returns the stored prices for a symbol over a date range.
//
// Endpoint example:
// GET /prices/AAPL?start=2024-03-01&end=2024-03-31
//
// With no range given it serves the last 30 days.
func (h *PriceHandler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")

	end, err := parseDateQuery(c, "end", time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, want YYYY-MM-DD"})
		return
	}
	start, err := parseDateQuery(c, "start", end.AddDate(0, 0, -30))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, want YYYY-MM-DD"})
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must not be after end"})
		return
	}

	prices, err := h.uc.History(c.Request.Context(), symbol, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.PriceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetOnDate returns the stored price for a symbol on a date, scanning
// backward over market-closed days.
//
// Endpoint example:
// GET /prices/AAPL/at?date=2024-03-10&lookback=5
func (h *PriceHandler) GetOnDate(c *gin.Context) {
	symbol := c.Param("symbol")

	date, err := parseDateQuery(c, "date", time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}
	lookback, err := strconv.Atoi(c.DefaultQuery("lookback", "0"))
	if err != nil || lookback < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lookback, want a non-negative integer"})
		return
	}

	price, err := h.uc.GetPriceOnDate(c.Request.Context(), symbol, date, lookback)
	if errors.Is(err, usecase.ErrPriceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price stored for this date"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(*price))
}

func parseDateQuery(c *gin.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return entity.NormalizeDate(fallback), nil
	}
	d, err := time.Parse(dateFormat, raw)
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}

func toResponse(p entity.StoredPrice) dto.PriceResponse {
	return dto.PriceResponse{
		Symbol:   p.Symbol,
		Date:     p.Date.UTC().Format(dateFormat),
		Open:     p.Open.Ptr(),
		High:     p.High.Ptr(),
		Low:      p.Low.Ptr(),
		Close:    p.Close,
		AdjClose: p.AdjClose.Ptr(),
		Volume:   p.Volume.Ptr(),
		Source:   p.Source,
	}
}
