package infra

import (
	"context"
	"sync"
	"time"

	"coach-gateway/middleware/ratelimit/domain"
)

// MemoryCounterStore é o contador de janela fixa em memória do processo.
//
// Cada chave tem sua própria entrada com mutex; não existe lock global da
// tabela, então a varredura periódica não bloqueia incrementos de outras chaves.
// Os contadores não são compartilhados entre instâncias do gateway.
type MemoryCounterStore struct {
	entries    sync.Map // string -> *counterEntry
	sweepEvery time.Duration

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type counterEntry struct {
	mu      sync.Mutex
	count   int64
	resetAt time.Time
	// dead marca entradas já removidas pela varredura; quem pegar uma entrada
	// morta precisa buscar (ou criar) outra.
	dead bool
}

type MemoryOption func(*MemoryCounterStore)

// WithSweepEvery define o intervalo da varredura. <= 0 desliga o janitor.
func WithSweepEvery(d time.Duration) MemoryOption {
	return func(s *MemoryCounterStore) { s.sweepEvery = d }
}

// NewMemoryCounterStore cria o store e já inicia o janitor.
// Pare chamando Close.
func NewMemoryCounterStore(opts ...MemoryOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		sweepEvery: time.Minute,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startJanitor()
	return s
}

// Consume implementa domain.CounterStore.
func (s *MemoryCounterStore) Consume(_ context.Context, p domain.ConsumeParams) (domain.ConsumeResult, error) {
	if err := p.Validate(); err != nil {
		return domain.ConsumeResult{}, err
	}
	key := p.NamespacedKey()

	for {
		ent := s.load(key)
		now := time.Now()

		ent.mu.Lock()
		if ent.dead {
			ent.mu.Unlock()
			continue
		}
		if ent.count == 0 || !ent.resetAt.After(now) {
			ent.count = 1
			ent.resetAt = now.Add(p.Window)
		} else {
			ent.count++
		}
		count, resetAt := ent.count, ent.resetAt
		ent.mu.Unlock()

		return domain.NewConsumeResult(count, p.Max, now, resetAt.Sub(now)), nil
	}
}

func (s *MemoryCounterStore) load(key string) *counterEntry {
	if v, ok := s.entries.Load(key); ok {
		return v.(*counterEntry)
	}
	v, _ := s.entries.LoadOrStore(key, &counterEntry{})
	return v.(*counterEntry)
}

// Sweep remove entradas cuja janela já terminou e retorna quantas saíram.
func (s *MemoryCounterStore) Sweep() int {
	now := time.Now()
	removed := 0

	s.entries.Range(func(k, v any) bool {
		ent := v.(*counterEntry)
		ent.mu.Lock()
		if !ent.dead && ent.count > 0 && !ent.resetAt.After(now) {
			ent.dead = true
			s.entries.CompareAndDelete(k, ent)
			removed++
		}
		ent.mu.Unlock()
		return true
	})
	return removed
}

// Len retorna o número de entradas na tabela (vivas ou aguardando varredura).
func (s *MemoryCounterStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *MemoryCounterStore) startJanitor() {
	if s.sweepEvery <= 0 {
		close(s.done)
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer close(s.done)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}

// Close para o janitor e espera a goroutine sair. Pode ser chamado mais de uma vez.
func (s *MemoryCounterStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}
