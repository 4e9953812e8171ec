package posts

import "sync"

// Feed es el broker en memoria del feed en vivo: cada post nuevo se empuja
// a todos los suscriptores con el contrato subscribe(handler) -> unsubscribe().
type Feed struct {
	mu     sync.Mutex
	subs   map[int]func(Post)
	nextID int
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Post))}
}

// Subscribe registra un handler. El unsubscribe devuelto es idempotente.
func (f *Feed) Subscribe(fn func(Post)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Publish entrega el post a cada suscriptor en orden de llegada.
// La entrega es sincrónica fuera del lock; un handler lento frena el fanout
// pero nunca deadlockea un unsubscribe hecho desde el propio handler.
func (f *Feed) Publish(p Post) {
	f.mu.Lock()
	fns := make([]func(Post), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}
