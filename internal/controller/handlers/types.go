package handlers

import (
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers holds the dependencies of every bot command.
type Handlers struct {
	userService         *service.UserService
	scheduleService     *service.ScheduleService
	enrollmentService   *service.EnrollmentService
	forumService        *service.ForumService
	notificationService *service.NotificationService
	stateManager        *state.Manager
	location            *time.Location
	logger              *zap.Logger
}

func NewHandlers(
	userService *service.UserService,
	scheduleService *service.ScheduleService,
	enrollmentService *service.EnrollmentService,
	forumService *service.ForumService,
	notificationService *service.NotificationService,
	stateManager *state.Manager,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	if location == nil {
		location = time.UTC
	}
	return &Handlers{
		userService:         userService,
		scheduleService:     scheduleService,
		enrollmentService:   enrollmentService,
		forumService:        forumService,
		notificationService: notificationService,
		stateManager:        stateManager,
		location:            location,
		logger:              logger,
	}
}
