package symbols

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"sigtrace/internal/syntax"
)

const defaultServiceSize = 256

// Service memoizes symbol tables by unit key.
type Service struct {
	tables *lru.Cache[string, *Table]
}

// NewService creates a service keeping at most size tables.
func NewService(size int) (*Service, error) {
	if size <= 0 {
		size = defaultServiceSize
	}
	cache, err := lru.New[string, *Table](size)
	if err != nil {
		return nil, err
	}
	return &Service{tables: cache}, nil
}

// For returns the table of u, building it on first use.
func (s *Service) For(u *syntax.Unit) *Table {
	if t, ok := s.tables.Get(u.Key()); ok {
		return t
	}
	t := Build(u)
	s.tables.Add(u.Key(), t)
	return t
}
