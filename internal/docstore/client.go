// Package docstore keeps carts and wishlists as one document per owner,
// either in Firestore or in process memory.
package docstore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
)

const (
	cartsCollection     = "carts"
	wishlistsCollection = "wishlists"
)

// Client wraps the Firestore client used by the document repositories.
type Client struct {
	fs        *firestore.Client
	projectID string
}

// NewFirestore connects with the credentials file when one is configured and
// with application default credentials otherwise.
func NewFirestore(ctx context.Context, cfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("gcp project id is required")
	}
	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", projectID), "firestore client ready")
	}
	return &Client{fs: fs, projectID: projectID}, nil
}

// Ping lists a single collection; Firestore has no dedicated health call.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.fs == nil {
		return fmt.Errorf("firestore client is nil")
	}
	iter := c.fs.Collections(ctx)
	if _, err := iter.Next(); err != nil && !isDone(err) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.fs == nil {
		return nil
	}
	return c.fs.Close()
}
