package handlers

import (
	"net/http"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/fiscal"
	"github.com/GregMSThompson/ca-portal/internal/response"
)

// number of years offered by the year selector, current first
const selectableYears = 5

type systemHandlers struct {
	ResponseHandler response.ResponseHandler
	Location        *time.Location
	clockNow        func() time.Time
}

func NewSystemHandlers(deps *Deps) *systemHandlers {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &systemHandlers{
		ResponseHandler: deps.ResponseHandler,
		Location:        loc,
		clockNow:        time.Now,
	}
}

func (h *systemHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *systemHandlers) FinancialYears(w http.ResponseWriter, r *http.Request) {
	now := h.clockNow().In(h.Location)
	years := fiscal.Recent(now, selectableYears)
	out := dto.FinancialYears{Current: fiscal.Current(now).String(), Years: make([]string, 0, len(years))}
	for _, y := range years {
		out.Years = append(out.Years, y.String())
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, out)
}
