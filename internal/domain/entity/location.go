package entity

import "time"

// Location representa una sede o bodega donde se encuentra el activo (directorio externo, solo lectura).
type Location struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}
