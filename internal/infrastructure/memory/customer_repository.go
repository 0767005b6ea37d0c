package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/jhoicas/retail-ledger-api/internal/domain"
	"github.com/jhoicas/retail-ledger-api/internal/domain/entity"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación en memoria de CustomerRepository.
type CustomerRepo struct {
	acc access
}

func cloneCustomer(c *entity.Customer) *entity.Customer {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Create persiste un cliente nuevo.
func (r *CustomerRepo) Create(_ context.Context, customer *entity.Customer) error {
	return r.acc.write(func(st *state) error {
		if _, ok := st.customers[customer.ID]; ok {
			return domain.ErrDuplicate
		}
		st.customers[customer.ID] = cloneCustomer(customer)
		return nil
	})
}

// GetByID devuelve una copia del cliente o nil.
func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.acc.read(func(st *state) error {
		out = cloneCustomer(st.customers[id])
		return nil
	})
	return out, err
}

// List devuelve los clientes ordenados por nombre.
func (r *CustomerRepo) List(_ context.Context) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.acc.read(func(st *state) error {
		for _, c := range st.customers {
			out = append(out, cloneCustomer(c))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *entity.Customer) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, err
}

// Update reemplaza los datos del cliente. Las ventas existentes conservan su snapshot.
func (r *CustomerRepo) Update(_ context.Context, customer *entity.Customer) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.customers[customer.ID]
		if !ok {
			return domain.ErrNotFound
		}
		next := cloneCustomer(customer)
		next.CreatedAt = cur.CreatedAt
		st.customers[customer.ID] = next
		return nil
	})
}
