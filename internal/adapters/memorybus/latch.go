package memorybus

import "sync"

// Latch garantit qu'un effet de bord global ne se déclenche qu'une fois par
// condition: le premier TryFire gagne, les suivants sont absorbés jusqu'au
// prochain Reset. Utilisé pour la redirection "serveur indisponible" quand
// plusieurs appels échouent dans le même cycle.
type Latch struct {
	mu    sync.Mutex
	fired bool
}

func NewLatch() *Latch {
	return &Latch{}
}

// TryFire renvoie true pour le premier appelant seulement.
func (l *Latch) TryFire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fired {
		return false
	}
	l.fired = true
	return true
}

func (l *Latch) Fired() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fired
}

// Reset réarme le latch. Appelé dès qu'un backend répond à nouveau.
func (l *Latch) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fired = false
}
