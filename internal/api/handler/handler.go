package handler

import (
	"github.com/ebakoking/cardmatchapp-sub000/internal/chathub"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

// Handler carries the hub and the dependencies the HTTP surface needs.
type Handler struct {
	Hub       *chathub.ManagerService
	Storage   storage.Storage
	JWTSecret []byte
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, jwtSecret string) *Handler {
	return &Handler{Hub: hub, Storage: s, JWTSecret: []byte(jwtSecret)}
}
