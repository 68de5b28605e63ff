package stub

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type Page struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalCount int       `json:"totalCount"`
	TotalPages int       `json:"totalPages"`
}

// Store is an in-memory product table ordered by creation time.
type Store struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]Product
	order []uuid.UUID
}

func NewStore(seed int) *Store {
	s := &Store{byID: make(map[uuid.UUID]Product, seed)}
	for i := 0; i < seed; i++ {
		s.Create(ProductInput{Name: "Seed product", Description: "Seeded", Price: float64(i%100) + 0.99})
	}
	return s
}

func (s *Store) Create(in ProductInput) Product {
	p := Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.byID[p.ID] = p
	s.order = append(s.order, p.ID)
	s.mu.Unlock()
	return p
}

func (s *Store) Get(id uuid.UUID) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

func (s *Store) Update(id uuid.UUID, in ProductInput) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return Product{}, false
	}
	p.Name, p.Description, p.Price = in.Name, in.Description, in.Price
	s.byID[id] = p
	return p, true
}

func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i := range s.order {
		if s.order[i] == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Page returns products newest first. Pages past the end are empty.
func (s *Store) Page(page, pageSize int) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	pages := (total + pageSize - 1) / pageSize
	out := Page{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}
	if page > pages {
		out.Items = []Product{}
		return out
	}
	out.Items = s.newestLocked((page-1)*pageSize, pageSize)
	return out
}

func (s *Store) Bulk(limit int) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestLocked(0, limit)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) newestLocked(offset, limit int) []Product {
	if offset < 0 || offset >= len(s.order) || limit < 1 {
		return []Product{}
	}
	items := make([]Product, 0, min(limit, len(s.order)-offset))
	for i := len(s.order) - 1 - offset; i >= 0 && len(items) < limit; i-- {
		items = append(items, s.byID[s.order[i]])
	}
	return items
}
