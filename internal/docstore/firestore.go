package docstore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/saree-storefront/internal/cart"
)

type cartDoc struct {
	Items     []cartLineDoc `firestore:"items"`
	UpdatedAt time.Time     `firestore:"updatedAt"`
}

type cartLineDoc struct {
	ProductID     string    `firestore:"productId"`
	Quantity      int       `firestore:"quantity"`
	SelectedColor *string   `firestore:"selectedColor,omitempty"`
	AddedAt       time.Time `firestore:"addedAt"`
}

type wishlistDoc struct {
	ProductIDs []string  `firestore:"productIds"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isDone(err error) bool {
	return errors.Is(err, iterator.Done)
}

// FirestoreCarts stores each cart as carts/{ownerID}.
type FirestoreCarts struct {
	client *Client
	now    func() time.Time
}

func NewFirestoreCarts(client *Client) *FirestoreCarts {
	return &FirestoreCarts{client: client, now: time.Now}
}

func (r *FirestoreCarts) doc(owner uuid.UUID) *firestore.DocumentRef {
	return r.client.fs.Collection(cartsCollection).Doc(owner.String())
}

func (r *FirestoreCarts) List(ctx context.Context, owner uuid.UUID) ([]cart.Line, error) {
	snap, err := r.doc(owner).Get(ctx)
	if isNotFound(err) {
		return []cart.Line{}, nil
	}
	if err != nil {
		return nil, err
	}
	var d cartDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	return linesFromDoc(d), nil
}

func (r *FirestoreCarts) Get(ctx context.Context, owner uuid.UUID, productID string) (*cart.Line, error) {
	lines, err := r.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return findLine(lines, productID), nil
}

func (r *FirestoreCarts) Upsert(ctx context.Context, owner uuid.UUID, line cart.Line) error {
	return r.mutate(ctx, owner, func(lines []cart.Line) []cart.Line {
		return upsertLine(lines, line, r.now())
	})
}

func (r *FirestoreCarts) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	return r.mutate(ctx, owner, func(lines []cart.Line) []cart.Line {
		return removeLine(lines, productID)
	})
}

func (r *FirestoreCarts) Clear(ctx context.Context, owner uuid.UUID) error {
	_, err := r.doc(owner).Set(ctx, docFromLines(nil, r.now()))
	return err
}

// mutate applies fn to the stored lines inside a transaction so concurrent
// requests for the same owner do not lose writes.
func (r *FirestoreCarts) mutate(ctx context.Context, owner uuid.UUID, fn func([]cart.Line) []cart.Line) error {
	ref := r.doc(owner)
	return r.client.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current cartDoc
		snap, err := tx.Get(ref)
		switch {
		case isNotFound(err):
		case err != nil:
			return err
		default:
			if err := snap.DataTo(&current); err != nil {
				return err
			}
		}
		return tx.Set(ref, docFromLines(fn(linesFromDoc(current)), r.now()))
	})
}

// FirestoreWishlists stores each wishlist as wishlists/{ownerID}.
type FirestoreWishlists struct {
	client *Client
	now    func() time.Time
}

func NewFirestoreWishlists(client *Client) *FirestoreWishlists {
	return &FirestoreWishlists{client: client, now: time.Now}
}

func (r *FirestoreWishlists) doc(owner uuid.UUID) *firestore.DocumentRef {
	return r.client.fs.Collection(wishlistsCollection).Doc(owner.String())
}

func (r *FirestoreWishlists) List(ctx context.Context, owner uuid.UUID) ([]string, error) {
	snap, err := r.doc(owner).Get(ctx)
	if isNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var d wishlistDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	if d.ProductIDs == nil {
		return []string{}, nil
	}
	return d.ProductIDs, nil
}

// Add appends productID unless present; ArrayUnion keeps it idempotent.
func (r *FirestoreWishlists) Add(ctx context.Context, owner uuid.UUID, productID string) error {
	_, err := r.doc(owner).Set(ctx, map[string]any{
		"productIds": firestore.ArrayUnion(productID),
		"updatedAt":  r.now().UTC(),
	}, firestore.MergeAll)
	return err
}

func (r *FirestoreWishlists) Remove(ctx context.Context, owner uuid.UUID, productID string) error {
	_, err := r.doc(owner).Set(ctx, map[string]any{
		"productIds": firestore.ArrayRemove(productID),
		"updatedAt":  r.now().UTC(),
	}, firestore.MergeAll)
	return err
}

func (r *FirestoreWishlists) Clear(ctx context.Context, owner uuid.UUID) error {
	_, err := r.doc(owner).Set(ctx, wishlistDoc{ProductIDs: []string{}, UpdatedAt: r.now().UTC()})
	return err
}

func linesFromDoc(d cartDoc) []cart.Line {
	out := make([]cart.Line, 0, len(d.Items))
	for _, item := range d.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		out = append(out, cart.Line{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SelectedColor: item.SelectedColor,
			AddedAt:       item.AddedAt,
		})
	}
	return out
}

func docFromLines(lines []cart.Line, now time.Time) cartDoc {
	items := make([]cartLineDoc, 0, len(lines))
	for _, line := range lines {
		items = append(items, cartLineDoc{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			SelectedColor: line.SelectedColor,
			AddedAt:       line.AddedAt.UTC(),
		})
	}
	return cartDoc{Items: items, UpdatedAt: now.UTC()}
}
