// internal/application/usecase/cart_reconcile.go
package usecase

import (
	"context"

	"go.uber.org/zap"

	cartdom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/cart"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
	sessiondom "github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/session"
)

// needsReconcile reports whether sess has not been reconciled yet.
// A session whose reconciliation failed in this process is not retried until the
// next auth change, otherwise every cart.updated would re-trigger it.
func (s *CartStore) needsReconcile(ctx context.Context, sess *sessiondom.Session) bool {
	fp := sess.Fingerprint()
	if fp == "" {
		return false
	}

	s.mu.Lock()
	failed := s.failedFP == fp
	s.mu.Unlock()
	if failed {
		return false
	}

	raw, ok, err := s.kv.Get(ctx, localstore.KeyReconciled)
	if err != nil {
		s.log.Warn("read reconcile marker failed", zap.Error(err))
		return false
	}
	return !ok || string(raw) != fp
}

// reconcile merges the guest partition into the server cart of sess and rebuilds the
// owner partition from the server's answer.
//
//  1. lines with a product id are pushed with SyncCart
//  2. the server cart is fetched and becomes the base of the owner partition
//  3. guest lines without a product id are appended with fresh ids
//  4. the guest partition is deleted and the session fingerprint recorded
//
// Remote failures are logged and leave local state usable: the guest partition is only
// deleted once the server cart has been read back.
func (s *CartStore) reconcile(ctx context.Context, sess *sessiondom.Session, owner sessiondom.OwnerKey) {
	log := s.log.With(zap.String("owner", owner.String()))
	fp := sess.Fingerprint()

	guest, err := s.readPartition(ctx, sessiondom.Guest)
	if err != nil {
		log.Warn("read guest partition failed", zap.Error(err))
		s.markFailed(fp)
		return
	}
	withProduct, localOnly := cartdom.Split(guest)

	if s.api == nil {
		log.Warn("no cart api configured; guest cart kept")
		s.markFailed(fp)
		return
	}

	if len(withProduct) > 0 {
		lines := make([]CartLine, 0, len(withProduct))
		for _, it := range withProduct {
			lines = append(lines, CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		cctx, cancel := s.withTimeout(ctx)
		err := s.api.SyncCart(cctx, sess.Token, lines)
		cancel()
		if err != nil {
			log.Warn("cart sync failed; guest cart kept", zap.Error(err), zap.Int("lines", len(lines)))
			s.markFailed(fp)
			return
		}

		// pushed lines are now owned by the server; a later retry must not send them twice
		if err := s.writePartition(ctx, sessiondom.Guest, localOnly); err != nil {
			log.Warn("trim guest partition failed", zap.Error(err))
		}
	}

	cctx, cancel := s.withTimeout(ctx)
	remote, err := s.api.FetchCart(cctx, sess.Token)
	cancel()
	if err != nil {
		log.Warn("cart fetch failed", zap.Error(err))
		s.markFailed(fp)
		return
	}

	next := buildFromServer(remote, s.clock, s.maxQty)
	for _, it := range localOnly {
		it.ID = s.newID()
		next = append(next, it)
	}

	if err := s.writePartition(ctx, owner, next); err != nil {
		log.Warn("write owner partition failed", zap.Error(err))
		s.markFailed(fp)
		return
	}
	if err := s.kv.Delete(ctx, localstore.PartitionKey(sessiondom.Guest.String())); err != nil {
		log.Warn("delete guest partition failed", zap.Error(err))
	}
	if err := s.kv.Set(ctx, localstore.KeyReconciled, []byte(fp)); err != nil {
		log.Warn("write reconcile marker failed", zap.Error(err))
		s.markFailed(fp)
		return
	}

	log.Info("guest cart reconciled",
		zap.Int("pushed", len(withProduct)),
		zap.Int("server_lines", len(remote)),
		zap.Int("local_only", len(localOnly)),
	)
}

func (s *CartStore) markFailed(fp string) {
	s.mu.Lock()
	s.failedFP = fp
	s.mu.Unlock()
}

// buildFromServer turns the server cart into local lines. Lines for the same product
// are folded into one; invalid lines are dropped.
func buildFromServer(remote []RemoteCartItem, clock Clock, maxQty int) []cartdom.Item {
	now := clock.Now()
	out := make([]cartdom.Item, 0, len(remote))
	byProduct := map[int64]int{}

	for _, r := range remote {
		if r.ProductID <= 0 || r.Quantity < 1 {
			continue
		}
		if idx, ok := byProduct[r.ProductID]; ok {
			q := out[idx].Quantity + r.Quantity
			if maxQty > 0 && q > maxQty {
				q = maxQty
			}
			out[idx].Quantity = q
			continue
		}

		byProduct[r.ProductID] = len(out)
		out = append(out, cartdom.Item{
			ID:        cartdom.ServerItemID(now, r.ProductID),
			Name:      r.Name,
			Price:     cartdom.NormalizePrice(r.Price),
			Quantity:  r.Quantity,
			ProductID: r.ProductID,
		})
	}
	return out
}
