package config

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"

	hw "lautenbacher.net/sdhw/hwconfig"
)

// RegistryHandler serves the hardware tables of reg. The tables are
// read-only, so every method but GET is refused. JSON is the default;
// "?format=yaml" returns the file representation.
func RegistryHandler(reg *hw.Registry) http.HandlerFunc {
	// The registry never changes, render it once.
	hardware := FromRegistry(reg)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		slog.Debug("Handling GET /api/hardware request", "remote", r.RemoteAddr)

		switch r.URL.Query().Get("format") {
		case "", "json":
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(hardware); err != nil {
				slog.Error("Failed to encode hardware tables to JSON", "error", err)
				http.Error(w, "Failed to serialize hardware tables", http.StatusInternalServerError)
			}
		case "yaml":
			data, err := yaml.Marshal(Config{Hardware: hardware})
			if err != nil {
				slog.Error("Failed to marshal hardware tables to YAML", "error", err)
				http.Error(w, "Failed to serialize hardware tables", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(data)
		default:
			http.Error(w, "Unknown format", http.StatusBadRequest)
		}
	}
}

// RouteHandler resolves "?slot=<name>" to the slot's interface and bus.
func RouteHandler(reg *hw.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("slot")
		for i := 0; i < reg.CountSdSlots(); i++ {
			if reg.SdSlot(i).Name != name {
				continue
			}
			route, err := reg.Route(i)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(struct {
				Slot      string `json:"Slot"`
				Interface int    `json:"Interface"`
				Bus       string `json:"Bus"`
				Route     string `json:"Route"`
			}{route.Slot.Name, route.Slot.Interface, route.Bus.Peripheral, route.String()})
			return
		}
		http.Error(w, "Unknown slot", http.StatusNotFound)
	}
}
