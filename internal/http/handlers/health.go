package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

const serviceName = "storefront"

type HealthHandler struct {
	Probes []clients.HealthProbe
}

func (h *HealthHandler) Service(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(model.HealthResponse{
		Status:  "ok",
		Service: serviceName,
	})
}

func (h *HealthHandler) Upstreams(w http.ResponseWriter, r *http.Request) {
	results := make([]clients.HealthResult, len(h.Probes))

	var wg sync.WaitGroup
	wg.Add(len(h.Probes))
	for i := range h.Probes {
		go func() {
			defer wg.Done()
			results[i] = clients.CheckHealth(r.Context(), h.Probes[i])
		}()
	}
	wg.Wait()

	status := "ok"
	for _, res := range results {
		if !res.OK {
			status = "degraded"
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   status,
		"service":  serviceName,
		"upstream": results,
	})
}
