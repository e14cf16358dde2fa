package boarding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ms-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

var ErrInvalidPass = errors.New("invalid boarding pass payload")

// Pass is what the QR code carries once decrypted.
type Pass struct {
	BookingID        string   `json:"booking_id"`
	BookingReference string   `json:"booking_reference"`
	ScheduleID       string   `json:"schedule_id"`
	JourneyDate      string   `json:"journey_date"`
	DepartureTime    string   `json:"departure_time"`
	SeatNumbers      []string `json:"seat_numbers"`
	Passengers       []string `json:"passengers"`
}

func PassFor(b *models.Booking) Pass {
	pass := Pass{
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		ScheduleID:       b.ScheduleID,
		SeatNumbers:      b.SeatNumbers,
	}
	for _, p := range b.PassengerDetails {
		pass.Passengers = append(pass.Passengers, p.Name)
	}
	if b.Schedule != nil {
		pass.JourneyDate = b.Schedule.JourneyDay()
		pass.DepartureTime = b.Schedule.DepartureTime
	}
	return pass
}

// QRGenerator renders encrypted boarding passes as PNG QR codes.
type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// RenderTicket encodes the booking's pass into a PNG.
func (q *QRGenerator) RenderTicket(b *models.Booking) ([]byte, error) {
	token, err := q.Encrypt(PassFor(b))
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, qrSize)
}

// Encrypt seals the pass with AES-GCM and returns it URL-safe base64 encoded.
func (q *QRGenerator) Encrypt(pass Pass) (string, error) {
	data, err := json.Marshal(pass)
	if err != nil {
		return "", err
	}

	gcm, err := q.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Scanners at boarding use it to read a pass.
func (q *QRGenerator) Decrypt(token string) (Pass, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Pass{}, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}

	gcm, err := q.aead()
	if err != nil {
		return Pass{}, err
	}
	if len(raw) < gcm.NonceSize() {
		return Pass{}, ErrInvalidPass
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	data, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Pass{}, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}

	var pass Pass
	if err := json.Unmarshal(data, &pass); err != nil {
		return Pass{}, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	return pass, nil
}

func (q *QRGenerator) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
