// Package userdir consulta el directorio de usuarios corporativo por REST (solo lectura).
package userdir

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.UserRepository = (*Client)(nil)

// userPayload respuesta de GET /users/{id}.
type userPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Active     bool   `json:"active"`
}

// Client implementa repository.UserRepository contra el directorio REST.
type Client struct {
	http *resty.Client
}

// NewClient construye el cliente. token opcional (Bearer) para el directorio.
func NewClient(baseURL string, timeout time.Duration, token string) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

// GetByID devuelve (nil, nil) si el directorio responde 404.
func (c *Client) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var payload userPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		Get("/users/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("directorio de usuarios: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("directorio de usuarios: estado %d", resp.StatusCode())
	}

	role := strings.ToUpper(strings.TrimSpace(payload.Role))
	if role != entity.RoleAdmin {
		role = entity.RoleUser
	}
	if payload.ID == "" {
		payload.ID = id
	}
	return &entity.User{
		ID:         payload.ID,
		Name:       payload.Name,
		Email:      payload.Email,
		Role:       role,
		Department: payload.Department,
		Active:     payload.Active,
	}, nil
}
