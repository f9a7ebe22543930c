package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateTableRequest struct {
	Number   int    `json:"number"   validate:"required,min=1"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
	Area     string `json:"area"     validate:"required,oneof=internal external balcony private"`
}

type OccupyTableRequest struct {
	ClientCount int `json:"client_count" validate:"required,min=1"`
}

type AddClientsRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OccupancyResponse struct {
	ClientCount int    `json:"client_count"`
	StartedAt   string `json:"started_at"`
	ServerID    string `json:"server_id"`
}

type TableResponse struct {
	ID        string             `json:"id"`
	Number    int                `json:"number"`
	Capacity  int                `json:"capacity"`
	Area      string             `json:"area"`
	Status    string             `json:"status"`
	Occupancy *OccupancyResponse `json:"occupancy"`
}
