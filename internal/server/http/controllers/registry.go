package controllers

import (
	"net/http"

	"github.com/EvModder/438-TSN/internal/runtime"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general  *GeneralController
	users    *UsersController
	timeline *TimelineController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and service.
func NewControllerRegistry(rt *runtime.Runtime, svc *timelinesvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		users:    NewUsersController(svc, logger),
		timeline: NewTimelineController(svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.users.RegisterRoutes(mux)
	r.timeline.RegisterRoutes(mux)
}
