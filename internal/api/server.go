package api

import (
	"github.com/pawdesk/pawdesk/internal/image"
	"github.com/pawdesk/pawdesk/internal/tenancy"
)

type Server struct {
	db      DatabaseService
	auth    AuthService
	storage ObjectStorage
	images  *image.Processor
	audit   AuditRecorder
	locales *tenancy.Locales
}

func NewServer(db DatabaseService, authService AuthService, storage ObjectStorage, images *image.Processor, recorder AuditRecorder, locales *tenancy.Locales) *Server {
	return &Server{
		db:      db,
		auth:    authService,
		storage: storage,
		images:  images,
		audit:   recorder,
		locales: locales,
	}
}
