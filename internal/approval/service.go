package approval

import (
	"errors"
	"fmt"
	"time"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"

	"github.com/google/uuid"
)

// ErrNotPending is returned when an approval transition targets a request or
// event that already left the pending state. Rejection is terminal: no
// resubmission is modeled.
var ErrNotPending = errors.New("not in pending state")

// ErrReasonRequired is returned when an event rejection omits the mandatory
// reason text.
var ErrReasonRequired = errors.New("rejection reason is required")

type DBLayer interface {
	CreateOrganizerRequest(request *models.OrganizerRequest) error
	GetOrganizerRequestByID(id string) (*models.OrganizerRequest, error)
	UpdateOrganizerRequest(request *models.OrganizerRequest) error
	ListOrganizerRequests(status string) ([]models.OrganizerRequest, error)
	CreateOrganizer(organizer *models.Organizer) error
	GetOrganizerByID(id string) (*models.Organizer, error)
	UpdateOrganizerStatus(organizer *models.Organizer) error
	GetEventByID(id string) (*models.Event, error)
	UpdateEventApproval(event *models.Event) error
}

type Publisher interface {
	Publish(key string, payload interface{}) error
}

// Service runs the two admin-gated workflows: organizer onboarding and event
// approval. Both share the pending → approved|rejected shape.
type Service struct {
	DB             DBLayer
	OrganizerTopic Publisher
	EventTopic     Publisher
	Logger         *logger.Logger
}

func NewService(db DBLayer, organizerTopic, eventTopic Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, OrganizerTopic: organizerTopic, EventTopic: eventTopic, Logger: log}
}

// SubmitOrganizerRequest queues an onboarding application.
func (s *Service) SubmitOrganizerRequest(request *models.OrganizerRequest) error {
	if request.OrgName == "" {
		return fmt.Errorf("org_name is required")
	}
	if request.Email == "" {
		return fmt.Errorf("email is required")
	}

	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.Status = models.RequestStatusPending
	request.CreatedAt = time.Now()

	if err := s.DB.CreateOrganizerRequest(request); err != nil {
		return fmt.Errorf("failed to create organizer request: %w", err)
	}
	s.Logger.LogWorkflow("SUBMITTED", request.ID, fmt.Sprintf("organizer request from %s", request.OrgName))
	return nil
}

func (s *Service) ListOrganizerRequests(status string) ([]models.OrganizerRequest, error) {
	return s.DB.ListOrganizerRequests(status)
}

// ApproveOrganizerRequest promotes the request into an active Organizer with
// zeroed aggregates.
func (s *Service) ApproveOrganizerRequest(requestID string) (*models.Organizer, error) {
	request, err := s.DB.GetOrganizerRequestByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("organizer request %s not found: %w", requestID, err)
	}
	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("organizer request %s is %s: %w", requestID, request.Status, ErrNotPending)
	}

	request.Status = models.RequestStatusApproved
	if err := s.DB.UpdateOrganizerRequest(request); err != nil {
		return nil, fmt.Errorf("failed to approve organizer request %s: %w", requestID, err)
	}

	organizer := &models.Organizer{
		ID:                uuid.NewString(),
		RequestID:         request.ID,
		Name:              request.OrgName,
		Email:             request.Email,
		Phone:             request.Phone,
		ApprovedAt:        time.Now(),
		TotalEvents:       0,
		TotalRevenueCents: 0,
		Status:            models.OrganizerStatusActive,
	}
	if err := s.DB.CreateOrganizer(organizer); err != nil {
		return nil, fmt.Errorf("failed to create organizer for request %s: %w", requestID, err)
	}

	if err := s.OrganizerTopic.Publish(organizer.ID, organizer); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "organizer-approved", err.Error())
	}

	s.Logger.LogWorkflow("APPROVED", requestID, fmt.Sprintf("organizer %s activated", organizer.ID))
	return organizer, nil
}

// RejectOrganizerRequest is terminal.
func (s *Service) RejectOrganizerRequest(requestID string) error {
	request, err := s.DB.GetOrganizerRequestByID(requestID)
	if err != nil {
		return fmt.Errorf("organizer request %s not found: %w", requestID, err)
	}
	if request.Status != models.RequestStatusPending {
		return fmt.Errorf("organizer request %s is %s: %w", requestID, request.Status, ErrNotPending)
	}

	request.Status = models.RequestStatusRejected
	if err := s.DB.UpdateOrganizerRequest(request); err != nil {
		return fmt.Errorf("failed to reject organizer request %s: %w", requestID, err)
	}
	s.Logger.LogWorkflow("REJECTED", requestID, "organizer request denied")
	return nil
}

// SuspendOrganizer / ReactivateOrganizer toggle a live organizer account.

func (s *Service) SuspendOrganizer(organizerID string) error {
	return s.setOrganizerStatus(organizerID, models.OrganizerStatusSuspended)
}

func (s *Service) ReactivateOrganizer(organizerID string) error {
	return s.setOrganizerStatus(organizerID, models.OrganizerStatusActive)
}

func (s *Service) setOrganizerStatus(organizerID, status string) error {
	organizer, err := s.DB.GetOrganizerByID(organizerID)
	if err != nil {
		return fmt.Errorf("organizer %s not found: %w", organizerID, err)
	}
	organizer.Status = status
	if err := s.DB.UpdateOrganizerStatus(organizer); err != nil {
		return fmt.Errorf("failed to update organizer %s: %w", organizerID, err)
	}
	s.Logger.LogWorkflow("STATUS", organizerID, fmt.Sprintf("organizer now %s", status))
	return nil
}

// ApproveEvent makes the event publicly visible in the catalog.
func (s *Service) ApproveEvent(eventID string) error {
	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return fmt.Errorf("event %s not found: %w", eventID, err)
	}
	if event.Status != models.EventStatusPending {
		return fmt.Errorf("event %s is %s: %w", eventID, event.Status, ErrNotPending)
	}

	event.Status = models.EventStatusApproved
	event.RejectionReason = ""
	if err := s.DB.UpdateEventApproval(event); err != nil {
		return fmt.Errorf("failed to approve event %s: %w", eventID, err)
	}

	if err := s.EventTopic.Publish(event.ID, event); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "event-approval", err.Error())
	}
	s.Logger.LogWorkflow("APPROVED", eventID, "event visible in catalog")
	return nil
}

// RejectEvent requires a reason; the event stays visible to its organizer
// and to admins only.
func (s *Service) RejectEvent(eventID, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return fmt.Errorf("event %s not found: %w", eventID, err)
	}
	if event.Status != models.EventStatusPending {
		return fmt.Errorf("event %s is %s: %w", eventID, event.Status, ErrNotPending)
	}

	event.Status = models.EventStatusRejected
	event.RejectionReason = reason
	if err := s.DB.UpdateEventApproval(event); err != nil {
		return fmt.Errorf("failed to reject event %s: %w", eventID, err)
	}

	if err := s.EventTopic.Publish(event.ID, event); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "event-approval", err.Error())
	}
	s.Logger.LogWorkflow("REJECTED", eventID, reason)
	return nil
}
