// Package memory implementa los puertos de persistencia en memoria del proceso.
// Las escrituras trabajan sobre una copia del estado que se publica completa al confirmar,
// así ningún lector observa una transacción a medias.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// state valores inmutables una vez publicados: las escrituras reemplazan punteros, nunca mutan.
type state struct {
	products  map[string]*entity.Product
	skus      map[string]string // sku → productID
	orphans   map[string][]entity.StockMovement
	sales     map[string]*entity.Sale
	customers map[string]*entity.Customer
}

func newState() *state {
	return &state{
		products:  make(map[string]*entity.Product),
		skus:      make(map[string]string),
		orphans:   make(map[string][]entity.StockMovement),
		sales:     make(map[string]*entity.Sale),
		customers: make(map[string]*entity.Customer),
	}
}

func (s *state) clone() *state {
	return &state{
		products:  maps.Clone(s.products),
		skus:      maps.Clone(s.skus),
		orphans:   maps.Clone(s.orphans),
		sales:     maps.Clone(s.sales),
		customers: maps.Clone(s.customers),
	}
}

// Store almacén en memoria. Un único escritor a la vez (transacción serializada);
// lectores concurrentes con RLock.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repositorios atados a una copia de trabajo; publica la copia solo si fn
// devuelve nil. Mientras dura la transacción ningún otro escritor avanza.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	acc := txAccess{st: work}
	if err := fn(ctx, repository.TxRepos{
		Products:  &ProductRepo{acc: acc},
		Sales:     &SaleRepo{acc: acc},
		Customers: &CustomerRepo{acc: acc},
	}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Products repositorio fuera de transacción (cada escritura confirma sola).
func (s *Store) Products() *ProductRepo { return &ProductRepo{acc: autoAccess{s: s}} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{acc: autoAccess{s: s}} }

// Customers repositorio de clientes fuera de transacción.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{acc: autoAccess{s: s}} }

// Movements lectura del kardex global.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{acc: autoAccess{s: s}} }

// access abstrae si el repositorio opera dentro de Run o en modo autocommit.
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

type txAccess struct{ st *state }

func (a txAccess) read(fn func(st *state) error) error  { return fn(a.st) }
func (a txAccess) write(fn func(st *state) error) error { return fn(a.st) }

type autoAccess struct{ s *Store }

func (a autoAccess) read(fn func(st *state) error) error {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return fn(a.s.st)
}

func (a autoAccess) write(fn func(st *state) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	work := a.s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	a.s.st = work
	return nil
}
