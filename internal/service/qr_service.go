package service

import (
	"fmt"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QRService renders a booking's reference as a scannable ticket.
type QRService struct{}

func NewQRService() *QRService {
	return &QRService{}
}

func (s *QRService) TicketPNG(booking *domain.Booking) ([]byte, error) {
	payload := fmt.Sprintf("parkwise://booking/%s", booking.Reference)
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("error encoding booking QR: %w", err)
	}
	return png, nil
}
