package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StationStatRequest sets the passenger count of a station for one month.
type StationStatRequest struct {
	Station    string `json:"station"    binding:"required,max=128" example:"Mustaqillik maydoni"`
	Year       int    `json:"year"       binding:"required,min=1900" example:"2024"`
	Month      int    `json:"month"      binding:"required,min=1,max=12" example:"5"`
	Passengers *int64 `json:"user_count" binding:"required,min=0" example:"125000"`
}

// VisitorsResponse is the distinct visitor counter.
type VisitorsResponse struct {
	Visitors int64 `json:"visitors" example:"4821"`
}

// ListStations godoc
// @ID          listStations
// @Summary     Station passenger statistics
// @Tags        Statistics
// @Produce     json
// @Param       year  query  int  false  "Year; all years when omitted"
// @Success     200  {array}   domain.StationStat
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /statistics/stations [get]
func (h *Handlers) ListStations(c *gin.Context) {
	year := 0
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 0 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "year must be a number")
			return
		}
		year = y
	}
	items, err := h.statsSvc.Stations(c.Request.Context(), year)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// UpsertStation godoc
// @ID          upsertStation
// @Summary     Set a station's monthly passenger count
// @Tags        Statistics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.StationStatRequest  true  "Station statistic"
// @Success     200  {object}  domain.StationStat
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /statistics/stations [put]
func (h *Handlers) UpsertStation(c *gin.Context) {
	var req StationStatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "station, year, month (1-12) and user_count are required")
		return
	}
	st, err := h.statsSvc.UpsertStation(c.Request.Context(), req.Station, req.Year, req.Month, *req.Passengers)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// Visitors godoc
// @ID          visitors
// @Summary     Distinct site visitors
// @Tags        Statistics
// @Produce     json
// @Success     200  {object}  handlers.VisitorsResponse
// @Router      /statistics/visitors [get]
func (h *Handlers) Visitors(c *gin.Context) {
	n, err := h.statsSvc.Visitors(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, VisitorsResponse{Visitors: n})
}
