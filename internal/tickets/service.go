package tickets

import (
	"fmt"
	"time"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/order"
	"ms-marketplace/internal/tickets/qr"
	"ms-marketplace/internal/utils"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateTicket(ticket *models.Ticket) error
	GetTicketByID(ticketID string) (*models.Ticket, error)
	UpdateTicket(ticket *models.Ticket) error
	GetTicketsByOrder(orderID string) ([]models.Ticket, error)
	GetOrderByID(id string) (*models.Order, error)
	UpdateOrderCheckIn(order *models.Order) error
	CountCheckedIn(eventID string) (checkedIn int, total int, err error)
}

// Service mints tickets on payment confirmation and handles gate check-in.
type Service struct {
	DB     DBLayer
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewService(db DBLayer, qrGen *qr.Generator, log *logger.Logger) *Service {
	return &Service{DB: db, QR: qrGen, Logger: log}
}

// IssueTickets mints one ticket per seat in the order, each with an
// encrypted QR payload.
func (s *Service) IssueTickets(o *models.Order) ([]models.Ticket, error) {
	issued := make([]models.Ticket, 0, o.Quantity)
	for serial := 1; serial <= o.Quantity; serial++ {
		ticket := models.Ticket{
			TicketID: uuid.NewString(),
			OrderID:  o.OrderID,
			EventID:  o.EventID,
			Serial:   serial,
			Code:     utils.GenerateTicketSerial(o.EventID, serial),
			IssuedAt: time.Now(),
		}

		qrBytes, err := s.QR.GenerateEncryptedQR(qr.Payload{
			TicketID: ticket.TicketID,
			OrderID:  ticket.OrderID,
			EventID:  ticket.EventID,
			Serial:   ticket.Serial,
		})
		if err != nil {
			return issued, fmt.Errorf("failed to generate QR for ticket %s: %w", ticket.TicketID, err)
		}
		ticket.QRCode = qrBytes

		if err := s.DB.CreateTicket(&ticket); err != nil {
			return issued, fmt.Errorf("failed to create ticket %s: %w", ticket.TicketID, err)
		}
		issued = append(issued, ticket)
	}

	s.Logger.Info("TICKETS", fmt.Sprintf("issued %d ticket(s) for order %s", len(issued), o.OrderID))
	return issued, nil
}

// CheckIn marks one ticket as used at the gate. When the last ticket of an
// order is used, the order itself moves to Used.
func (s *Service) CheckIn(ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	if ticket.CheckedIn {
		return nil, fmt.Errorf("ticket %s checked in at %s: %w",
			ticketID, ticket.CheckedInTime.Format(time.RFC3339), order.ErrAlreadyUsed)
	}

	owningOrder, err := s.DB.GetOrderByID(ticket.OrderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", ticket.OrderID, err)
	}
	switch owningOrder.Status {
	case models.OrderStatusConfirmed, models.OrderStatusUsed:
		// order may already be Used if sibling tickets raced; the per-ticket
		// CheckedIn flag above is the real guard
	default:
		return nil, fmt.Errorf("cannot check in order in state %s: %w",
			owningOrder.Status, order.ErrInvalidTransition)
	}

	ticket.CheckedIn = true
	ticket.CheckedInTime = time.Now()
	if err := s.DB.UpdateTicket(ticket); err != nil {
		return nil, fmt.Errorf("failed to check in ticket %s: %w", ticketID, err)
	}

	// Move the order to Used once every ticket is through the gate
	siblings, err := s.DB.GetTicketsByOrder(ticket.OrderID)
	if err == nil {
		allUsed := true
		for _, sibling := range siblings {
			if sibling.TicketID != ticket.TicketID && !sibling.CheckedIn {
				allUsed = false
				break
			}
		}
		if allUsed && owningOrder.Status == models.OrderStatusConfirmed {
			owningOrder.Status = models.OrderStatusUsed
			owningOrder.CheckedInAt = ticket.CheckedInTime
			if err := s.DB.UpdateOrderCheckIn(owningOrder); err != nil {
				s.Logger.Error("TICKETS", fmt.Sprintf("failed to mark order %s used: %v", owningOrder.OrderID, err))
			}
		}
	}

	s.Logger.Info("TICKETS", fmt.Sprintf("ticket %s checked in (order %s)", ticketID, ticket.OrderID))
	return ticket, nil
}

// VerifyQR decodes a scanned QR string and checks the ticket it names.
func (s *Service) VerifyQR(encoded string) (*models.Ticket, error) {
	payload, err := s.QR.DecodePayload(encoded)
	if err != nil {
		return nil, fmt.Errorf("unreadable QR payload: %w", err)
	}
	return s.CheckIn(payload.TicketID)
}

func (s *Service) TicketsByOrder(orderID string) ([]models.Ticket, error) {
	return s.DB.GetTicketsByOrder(orderID)
}

// Attendance returns the checked-in/total counters for an event.
func (s *Service) Attendance(eventID string) (checkedIn int, total int, err error) {
	return s.DB.CountCheckedIn(eventID)
}
