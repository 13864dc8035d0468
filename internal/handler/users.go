package handler

import (
	"fmt"
	"net/http"

	"github.com/menezmethod/salute/internal/router"
)

// mockUsers is the static list served by GET /api/users. There is no
// persistence layer; everything resets on restart.
var mockUsers = []map[string]any{
	{"id": "1", "name": "Ada Lovelace", "email": "ada@example.com", "role": "admin"},
	{"id": "2", "name": "Grace Hopper", "email": "grace@example.com", "role": "user"},
	{"id": "3", "name": "Alan Turing", "email": "alan@example.com", "role": "user"},
}

// ListUsers handles GET /api/users.
func ListUsers() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		return res.Success(http.StatusOK, map[string]any{
			"users": mockUsers,
			"total": len(mockUsers),
		})
	}
}

// GetUser handles GET /api/users/:id, synthesizing a user from the id.
func GetUser() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		id := req.Params["id"]
		return res.Success(http.StatusOK, map[string]any{
			"id":    id,
			"name":  fmt.Sprintf("User %s", id),
			"email": fmt.Sprintf("user%s@example.com", id),
		})
	}
}

// CreateUser handles POST /api/users: 201 with the body echoed back.
func CreateUser() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		var body map[string]any
		if len(req.Body) > 0 {
			if err := req.JSON(&body); err != nil {
				return err
			}
		}
		return res.Success(http.StatusCreated, body)
	}
}

// UpdateUser handles PUT /api/users/:id: merges the body into {id, ...}.
func UpdateUser() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		merged := map[string]any{}
		if len(req.Body) > 0 {
			if err := req.JSON(&merged); err != nil {
				return err
			}
		}
		merged["id"] = req.Params["id"]
		return res.Success(http.StatusOK, merged)
	}
}

// DeleteUser handles DELETE /api/users/:id with a confirmation message.
func DeleteUser() router.Handler {
	return func(req *router.Request, res *router.Response) error {
		return res.Success(http.StatusOK, map[string]any{
			"message": fmt.Sprintf("User %s deleted", req.Params["id"]),
		})
	}
}
