package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/salamyar/salamyar/pkg/aggregate"
	"github.com/salamyar/salamyar/pkg/selection"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query parameter 'q' is required"})
		return
	}

	from, _ := strconv.Atoi(q.Get("from"))
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = 12
	}
	if size > 50 {
		size = 50
	}

	result, err := s.Basalam.Search(r.Context(), query, from, size)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "search upstream failed"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var candidate selection.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sel := s.Store.Select(candidate)
	writeJSON(w, http.StatusOK, sel)
}

type selectionsResponse struct {
	Products   []selection.Selection `json:"products"`
	TotalCount int                   `json:"total_count"`
}

func (s *Server) handleListSelections(w http.ResponseWriter, r *http.Request) {
	selections := s.Store.List()
	writeJSON(w, http.StatusOK, selectionsResponse{
		Products:   selections,
		TotalCount: len(selections),
	})
}

func (s *Server) handleVendorSelections(w http.ResponseWriter, r *http.Request) {
	vendorID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query parameter 'id' must be a vendor id"})
		return
	}

	selections := s.Store.ListByVendor(vendorID)
	writeJSON(w, http.StatusOK, selectionsResponse{
		Products:   selections,
		TotalCount: len(selections),
	})
}

func (s *Server) handleRemoveSelection(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "item id must be numeric"})
		return
	}

	if !s.Store.Remove(itemID) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "product not found in selection"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "product removed from selection",
		Success: true,
	})
}

func (s *Server) handleClearSelections(w http.ResponseWriter, r *http.Request) {
	count := s.Store.Clear()
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "cleared " + strconv.Itoa(count) + " selected products",
		Success: true,
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.RunTimeout)
	defer cancel()

	report, err := aggregate.Run(ctx, s.aggregateConfig())
	if err != nil {
		if errors.Is(err, aggregate.ErrNoSelections) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no products selected; select at least one product first"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
