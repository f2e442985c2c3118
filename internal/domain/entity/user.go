package entity

// Roles válidos para User.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User representa un empleado del directorio externo. El núcleo solo lo lee.
type User struct {
	ID         string
	Name       string
	Email      string
	Role       string // ADMIN, USER
	Department string
	Active     bool
}
