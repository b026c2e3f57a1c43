// Package notify sends push notifications to staff devices.
package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type Notifier interface {
	Send(ctx context.Context, token string, msg Message) error
}

// ======================================================
// FCM
// ======================================================

type FCM struct {
	client *messaging.Client
}

func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	return &FCM{client: client}, nil
}

func (f *FCM) Send(ctx context.Context, token string, msg Message) error {
	_, err := f.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	return err
}

// Noop is used when firebase is not configured.
type Noop struct{}

func (Noop) Send(context.Context, string, Message) error { return nil }

// New falls back to Noop when the credentials are missing or invalid.
func New(ctx context.Context, credentialsFile string) Notifier {
	if credentialsFile == "" {
		return Noop{}
	}
	fcm, err := NewFCM(ctx, credentialsFile)
	if err != nil {
		log.Printf("[notify] firebase disabled: %v", err)
		return Noop{}
	}
	log.Println("[notify] firebase cloud messaging ready")
	return fcm
}

// ======================================================
// MESSAGES
// ======================================================

func NewBookingMessage(ap *models.Appointment, clientName, serviceName string, loc *time.Location) Message {
	start := ap.StartTime.In(loc)
	return Message{
		Title: "Novo agendamento",
		Body: fmt.Sprintf("%s marcou %s em %s às %s",
			clientName, serviceName, start.Format("02/01"), start.Format("15:04")),
		Data: map[string]string{
			"type":           "appointment_created",
			"appointment_id": strconv.FormatUint(uint64(ap.ID), 10),
			"source":         ap.Source,
		},
	}
}

// NotifyBarber pushes msg to the barber's device. Failures are only logged:
// a missed push never fails a booking.
func NotifyBarber(ctx context.Context, n Notifier, barber *models.User, msg Message) {
	if barber == nil || barber.FCMToken == "" {
		return
	}
	if err := n.Send(ctx, barber.FCMToken, msg); err != nil {
		log.Printf("[notify] push to user %d failed: %v", barber.ID, err)
	}
}
