package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// MessagingClient defines the subset of the Firebase Messaging API the
// dispatcher uses. The interface allows mocking the client in unit tests;
// *messaging.Client satisfies it directly.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

var (
	fcmOnce   sync.Once
	fcmClient MessagingClient
	fcmErr    error
)

// NewMessagingClient initializes the Firebase messaging client once per
// process. Credentials come from FIREBASE_SA_JSON (inline service-account
// JSON) or, when unset, application default credentials
// (GOOGLE_APPLICATION_CREDENTIALS). Repeated calls return the same client.
func NewMessagingClient(ctx context.Context) (MessagingClient, error) {
	fcmOnce.Do(func() {
		var opts []option.ClientOption
		if saJSON := os.Getenv("FIREBASE_SA_JSON"); saJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(saJSON)))
		}

		app, err := firebase.NewApp(ctx, nil, opts...)
		if err != nil {
			fcmErr = fmt.Errorf("initialize firebase app: %w", err)
			return
		}

		client, err := app.Messaging(ctx)
		if err != nil {
			fcmErr = fmt.Errorf("create fcm messaging client: %w", err)
			return
		}

		slog.Info("fcm messaging client initialized")
		fcmClient = client
	})
	return fcmClient, fcmErr
}
