package entity

// VesselInfo represents vessel voyage attributes for data transfer between layers.
//
// String fields always carry a displayable value; resolvers fall back to
// "Unknown"-style defaults rather than leaving them empty. Numeric fields
// stay nil when the source document carries no parseable figure.
type VesselInfo struct {
	Vessel        string   `json:"vessel"`
	Port          string   `json:"port"`
	Cargo         string   `json:"cargo"`
	Operation     string   `json:"operation"`
	VoyageFrom    string   `json:"voyage_from"`
	VoyageTo      string   `json:"voyage_to"`
	DemurrageRate *float64 `json:"demurrage_rate,omitempty"`
	DispatchRate  *float64 `json:"dispatch_rate,omitempty"`
	LoadRate      *float64 `json:"load_rate,omitempty"`
	CargoQuantity *float64 `json:"cargo_quantity,omitempty"`
}
