// Package shopper wires the cart and wishlist managers, the credential store
// and the server bridge into one client that a frontend can embed.
package shopper

import (
	"context"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/logger"
	"github.com/angelmondragon/saree-storefront/pkg/metrics"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/bridge"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/cart"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/identity"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/partition"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/session"
	"github.com/angelmondragon/saree-storefront/pkg/shopper/wishlist"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// RefreshTokenKey is where the refresh token sits next to the credential.
const RefreshTokenKey = "refresh_token"

type Config struct {
	APIBaseURL string
	// Backend holds the partitions and the credential. Defaults to memory.
	Backend    partition.Backend
	HTTPClient *http.Client
	Timeout    time.Duration
	Navigator  identity.Navigator
	Logger     *logger.Logger
	// Registerer receives the sync metrics when set.
	Registerer    prometheus.Registerer
	OnSyncFailure func(bridge.Failure)
}

type Client struct {
	Cart     *cart.Manager
	Wishlist *wishlist.Manager

	backend partition.Backend
	creds   *identity.Credentials
	bus     *partition.Bus
	api     *bridge.Client
	queue   *bridge.Queue
	session *session.Transition
	logg    *logger.Logger
}

func New(cfg Config) (*Client, error) {
	logg := cfg.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	backend := cfg.Backend
	if backend == nil {
		backend = partition.NewMemory()
	}

	creds := identity.NewCredentials(backend)
	api, err := bridge.New(cfg.APIBaseURL, creds, bridge.WithHTTPClient(cfg.HTTPClient), bridge.WithTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	var syncMetrics *metrics.SyncMetrics
	if cfg.Registerer != nil {
		syncMetrics = metrics.NewSyncMetrics(cfg.Registerer)
	}
	queue := bridge.NewQueue(bridge.QueueOptions{Logger: logg, Metrics: syncMetrics, OnFail: cfg.OnSyncFailure})

	bus := partition.NewBus()
	gate := identity.NewGate(creds, cfg.Navigator)
	cartStore := partition.NewStore[types.CartItem](backend, partition.Cart, bus)
	wishStore := partition.NewStore[types.Product](backend, partition.Wishlist, bus)

	cartMgr, err := cart.NewManager(cart.Params{Gate: gate, Store: cartStore, Mirror: api, Queue: queue, Logger: logg})
	if err != nil {
		return nil, err
	}
	wishMgr, err := wishlist.NewManager(wishlist.Params{Gate: gate, Store: wishStore, Mirror: api, Queue: queue, Logger: logg})
	if err != nil {
		return nil, err
	}
	transition, err := session.NewTransition(session.Params{
		Credentials:  creds,
		Cart:         cartStore,
		Wishlist:     wishStore,
		Replayer:     api,
		Revoker:      api,
		CartSync:     cartMgr,
		WishlistSync: wishMgr,
		Bus:          bus,
		Logger:       logg,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		Cart:     cartMgr,
		Wishlist: wishMgr,
		backend:  backend,
		creds:    creds,
		bus:      bus,
		api:      api,
		queue:    queue,
		session:  transition,
		logg:     logg,
	}, nil
}

// Login signs in and reconciles the guest partitions. Reconciliation
// problems land in the report; only the sign-in call itself can fail.
// Mirror calls still queued for the previous identity finish first.
func (c *Client) Login(ctx context.Context, email, password string) (session.Report, error) {
	if err := c.queue.Flush(ctx); err != nil {
		return session.Report{Identity: c.Identity(ctx)}, err
	}
	sess, err := c.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return session.Report{Identity: c.Identity(ctx)}, err
	}
	return c.authenticated(ctx, sess), nil
}

func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (session.Report, error) {
	if err := c.queue.Flush(ctx); err != nil {
		return session.Report{Identity: c.Identity(ctx)}, err
	}
	sess, err := c.api.Register(ctx, req)
	if err != nil {
		return session.Report{Identity: c.Identity(ctx)}, err
	}
	return c.authenticated(ctx, sess), nil
}

func (c *Client) authenticated(ctx context.Context, sess *types.AuthSession) session.Report {
	if err := c.storeRefresh(ctx, sess.RefreshToken); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "refresh token not persisted")
	}
	return c.session.OnAuthenticated(ctx, sess.AccessToken)
}

// Refresh swaps the stored credential for a fresh one. The identity does not
// change, so no partition work happens.
func (c *Client) Refresh(ctx context.Context) error {
	refresh, ok, err := c.backend.Get(ctx, RefreshTokenKey)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read refresh token")
	}
	if !ok || refresh == "" {
		return identity.ErrLoginRequired
	}
	if err := c.queue.Flush(ctx); err != nil {
		return err
	}
	sess, err := c.api.Refresh(ctx, refresh)
	if err != nil {
		return err
	}
	if err := c.creds.Store(ctx, sess.AccessToken); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist credential")
	}
	return c.storeRefresh(ctx, sess.RefreshToken)
}

func (c *Client) storeRefresh(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return c.backend.Set(ctx, RefreshTokenKey, token)
}

// Logout waits for pending mirror calls so they still carry the credential,
// then drops it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.queue.Flush(ctx); err != nil {
		return err
	}
	if err := c.session.Logout(ctx); err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, RefreshTokenKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear refresh token")
	}
	return nil
}

func (c *Client) Identity(ctx context.Context) identity.Identity {
	return c.creds.Current(ctx)
}

func (c *Client) Authenticated(ctx context.Context) bool {
	_, ok := c.creds.Token(ctx)
	return ok
}

func (c *Client) Products(ctx context.Context, category string) ([]types.Product, error) {
	return c.api.ListProducts(ctx, category)
}

func (c *Client) Product(ctx context.Context, id string) (*types.Product, error) {
	return c.api.GetProduct(ctx, id)
}

// Subscribe registers fn for a change event such as partition.Cart.Event.
func (c *Client) Subscribe(event string, fn func()) func() {
	return c.bus.Subscribe(event, fn)
}

// Flush blocks until every queued mirror call has finished.
func (c *Client) Flush(ctx context.Context) error {
	return c.queue.Flush(ctx)
}

// Pending is the number of mirror calls not yet finished.
func (c *Client) Pending() int {
	return c.queue.Pending()
}
