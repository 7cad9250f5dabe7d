package opqueue

import (
	"context"
	"log"
	"os"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirestoreMirrorConfig configures the optional real-time mirror.
type FirestoreMirrorConfig struct {
	ProjectID       string
	CredentialsFile string
	Enabled         bool
	Collection      string
	Logger          *log.Logger
}

// DefaultFirestoreMirrorConfig reads its fields from environment variables,
// following this tree's config-from-env convention.
func DefaultFirestoreMirrorConfig() FirestoreMirrorConfig {
	return FirestoreMirrorConfig{
		ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Enabled:         os.Getenv("OPQUEUE_FIRESTORE_MIRROR") == "true",
		Collection:      "opqueue_items",
		Logger:          log.New(log.Writer(), "[OpQueueMirror] ", log.LstdFlags),
	}
}

// FirestoreMirror republishes a queue item to Firestore each time Mirror is
// called with it, so an external dashboard gets a real-time view without
// reading PostgresStore directly. Queue and Worker do not call Mirror, so
// only items a caller passes to it are published. It never backs reads the
// queue itself depends on — PostgresStore
// remains the only system of record — so a Firestore outage cannot stall
// relaying.
type FirestoreMirror struct {
	app        *firebase.App
	client     *gcpfirestore.Client
	collection string
	enabled    bool
	logger     *log.Logger
}

// NewFirestoreMirror dials Firestore, or returns a disabled no-op mirror if
// cfg.Enabled is false.
func NewFirestoreMirror(ctx context.Context, cfg FirestoreMirrorConfig) (*FirestoreMirror, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[OpQueueMirror] ", log.LstdFlags)
	}
	if !cfg.Enabled {
		cfg.Logger.Println("Firestore mirror disabled")
		return &FirestoreMirror{enabled: false, logger: cfg.Logger}, nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Printf("Firestore mirror enabled (project=%s, collection=%s)", cfg.ProjectID, cfg.Collection)
	return &FirestoreMirror{app: app, client: client, collection: cfg.Collection, enabled: true, logger: cfg.Logger}, nil
}

// Mirror publishes item's current state. Failures are logged and
// swallowed: the mirror is best-effort and must never fail the op it is
// reporting on.
func (m *FirestoreMirror) Mirror(ctx context.Context, item Item) {
	if !m.enabled {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := m.client.Collection(m.collection).Doc(item.ID.String()).Set(mctx, map[string]any{
		"bucket":     item.Bucket,
		"status":     item.Status,
		"kind":       item.Op.Kind(),
		"attempts":   item.Attempts,
		"updated_at": item.UpdatedAt,
	})
	if err != nil {
		m.logger.Printf("mirror write failed for %s: %v", item.ID, err)
	}
}

// Close releases the underlying Firestore client, if one was opened.
func (m *FirestoreMirror) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
