package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/state"
)

type CatalogReader interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
}

type CartReader interface {
	Items(ctx context.Context) (model.CartSnapshot, error)
}

// SyncMode decides what happens when reloads for the same viewer resolve out
// of order.
type SyncMode string

const (
	// SyncSequenced discards a reload that resolves after a newer one.
	SyncSequenced SyncMode = "sequenced"
	// SyncUnordered lets whichever reload resolves last win.
	SyncUnordered SyncMode = "unordered"
)

func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case SyncSequenced, SyncUnordered:
		return SyncMode(s), nil
	default:
		return "", fmt.Errorf("unknown sync mode %q", s)
	}
}

type catalogSnapshot struct {
	Authenticated bool                `json:"authenticated"`
	Products      []model.Product     `json:"products"`
	Cart          *model.CartSnapshot `json:"cart,omitempty"`
}

func (s catalogSnapshot) view() CatalogView {
	return MergeCatalog(s.Products, s.Cart, s.Authenticated)
}

// Store runs the fetch -> commit -> merge pipeline for catalog and cart
// views. Every load replaces the viewer's snapshot wholesale.
type Store struct {
	catalog CatalogReader
	cart    CartReader
	repo    state.Repository
	mode    SyncMode
	logger  *log.Logger
}

func NewStore(catalog CatalogReader, cart CartReader, repo state.Repository, mode SyncMode, logger *log.Logger) *Store {
	if mode == "" {
		mode = SyncSequenced
	}
	return &Store{catalog: catalog, cart: cart, repo: repo, mode: mode, logger: logger}
}

// LoadProducts fetches the product list and, for an authenticated viewer,
// the cart, then merges them. On failure the returned view is a failed
// placeholder and the error says why.
func (s *Store) LoadProducts(ctx context.Context, viewerID string, authenticated bool) (CatalogView, error) {
	seq := s.begin(ctx, viewerID, state.ResourceCatalog)

	snap := catalogSnapshot{Authenticated: authenticated}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.catalog.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		snap.Products = products
		return nil
	})
	if authenticated {
		g.Go(func() error {
			cart, err := s.cart.Items(gctx)
			if err != nil {
				return fmt.Errorf("load cart: %w", err)
			}
			snap.Cart = &cart
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CatalogView{Authenticated: authenticated, Failed: true}, err
	}

	// A stale reload falls back to the newer snapshot only if it was taken
	// under the same session state as this page load.
	var committed catalogSnapshot
	if s.commit(ctx, viewerID, state.ResourceCatalog, seq, snap, &committed) && committed.Authenticated == authenticated {
		return committed.view(), nil
	}
	return snap.view(), nil
}

// LoadCart fetches the cart snapshot and maps it to the cart view.
func (s *Store) LoadCart(ctx context.Context, viewerID string) (CartView, error) {
	seq := s.begin(ctx, viewerID, state.ResourceCart)

	snap, err := s.cart.Items(ctx)
	if err != nil {
		return CartView{Failed: true}, fmt.Errorf("load cart: %w", err)
	}

	var committed model.CartSnapshot
	if s.commit(ctx, viewerID, state.ResourceCart, seq, snap, &committed) {
		return CartViewOf(committed), nil
	}
	return CartViewOf(snap), nil
}

// PriorCatalog returns the last committed catalog view for the viewer. A
// snapshot taken under a different session state than authenticated is
// never reused.
func (s *Store) PriorCatalog(ctx context.Context, viewerID string, authenticated bool) (CatalogView, bool) {
	var snap catalogSnapshot
	if !s.prior(ctx, viewerID, state.ResourceCatalog, &snap) || snap.Authenticated != authenticated {
		return CatalogView{}, false
	}
	return snap.view(), true
}

// PriorCart returns the last committed cart view. Anonymous viewers have no
// cart to fall back to.
func (s *Store) PriorCart(ctx context.Context, viewerID string, authenticated bool) (CartView, bool) {
	if !authenticated {
		return CartView{}, false
	}
	var snap model.CartSnapshot
	if !s.prior(ctx, viewerID, state.ResourceCart, &snap) {
		return CartView{}, false
	}
	return CartViewOf(snap), true
}

// Forget drops the viewer's committed snapshots. It runs whenever the
// identity behind the browser changes, so one account's catalog or cart is
// never shown to the next.
func (s *Store) Forget(ctx context.Context, viewerID string) {
	if viewerID == "" {
		return
	}
	if err := s.repo.Reset(ctx, viewerID, state.ResourceCatalog, state.ResourceCart); err != nil {
		s.logf("forget snapshots for viewer %s: %v", viewerID, err)
	}
}

// begin reserves the sequence number for a reload that is about to fetch.
// Zero means the reload is not sequenced.
func (s *Store) begin(ctx context.Context, viewerID string, res state.Resource) int64 {
	if s.mode != SyncSequenced || viewerID == "" {
		return 0
	}
	seq, err := s.repo.Next(ctx, viewerID, res)
	if err != nil {
		s.logf("sequence %s for viewer %s: %v", res, viewerID, err)
		return 0
	}
	return seq
}

// commit stores fetched and decodes whatever ends up being current into out.
// It returns false when state is unavailable; callers then render fetched
// as is.
func (s *Store) commit(ctx context.Context, viewerID string, res state.Resource, seq int64, fetched, out any) bool {
	if viewerID == "" {
		return false
	}
	data, err := json.Marshal(fetched)
	if err != nil {
		s.logf("encode %s snapshot: %v", res, err)
		return false
	}

	mode := state.Overwrite
	if seq > 0 {
		mode = state.RequireNewer
	}
	stored, err := s.repo.Commit(ctx, viewerID, res, state.Entry{Seq: seq, Data: data}, mode)
	if err != nil {
		s.logf("commit %s snapshot for viewer %s: %v", res, viewerID, err)
		return false
	}
	if stored {
		return json.Unmarshal(data, out) == nil
	}

	s.logf("discarding stale %s reload #%d for viewer %s", res, seq, viewerID)
	return s.prior(ctx, viewerID, res, out)
}

func (s *Store) prior(ctx context.Context, viewerID string, res state.Resource, out any) bool {
	if viewerID == "" {
		return false
	}
	e, err := s.repo.Load(ctx, viewerID, res)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			s.logf("load %s snapshot for viewer %s: %v", res, viewerID, err)
		}
		return false
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		s.logf("decode %s snapshot for viewer %s: %v", res, viewerID, err)
		return false
	}
	return true
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
