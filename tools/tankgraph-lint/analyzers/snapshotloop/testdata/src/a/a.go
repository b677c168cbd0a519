package a

import "context"

type Snapshot struct{ Triples []string }

type Repository interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

type Store struct{ triples []string }

func (s *Store) Triples() []string { return append([]string(nil), s.triples...) }
func (s *Store) Count() int         { return len(s.triples) }

func bad(ctx context.Context, graphs []*Snapshot, repo Repository, store *Store) {
	for _, g := range graphs {
		repo.SaveSnapshot(ctx, g) // want "SaveSnapshot called inside loop"
		for j := 0; j < 2; j++ {
			repo.LoadSnapshot(ctx) // want "LoadSnapshot called inside loop"
		}
	}
	for i := 0; i < store.Count(); i++ {
		_ = store.Triples()[i] // want "Triples copies the whole graph inside loop"
	}
}

func good(ctx context.Context, graphs []*Snapshot, repo Repository, store *Store) {
	snap, _ := repo.LoadSnapshot(ctx)
	triples := store.Triples()
	for i := range triples {
		_ = triples[i]
	}
	for _, g := range graphs {
		_ = len(g.Triples)
		save := func() error { return repo.SaveSnapshot(ctx, snap) }
		_ = save
	}
}
