package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/repository"
)

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type customerRepo struct {
	s *Store
}

func (r *customerRepo) Create(ctx context.Context, c *models.Customer) error {
	if err := models.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	defer r.s.lock()()

	st := r.s.st
	st.nextCustomerID++
	c.ID = st.nextCustomerID
	c.CreatedAt = time.Now()
	st.customers[c.ID] = *c
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	c, ok := r.s.st.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *customerRepo) GetByName(ctx context.Context, name string) (*models.Customer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	st := r.s.st
	for _, id := range sortedKeys(st.customers) {
		if c := st.customers[id]; c.Name == name {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *customerRepo) GetAll(ctx context.Context) ([]models.Customer, error) {
	defer r.s.lock()()

	st := r.s.st
	customers := make([]models.Customer, 0, len(st.customers))
	for _, id := range sortedKeys(st.customers) {
		customers = append(customers, st.customers[id])
	}
	return customers, nil
}

func (r *customerRepo) Update(ctx context.Context, c *models.Customer) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	if err := models.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	defer r.s.lock()()

	existing, ok := r.s.st.customers[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	r.s.st.customers[c.ID] = *c
	return nil
}

func (r *customerRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	st := r.s.st
	if _, ok := st.customers[id]; !ok {
		return repository.ErrNotFound
	}
	for _, sale := range st.sales {
		if sale.CustomerID == id {
			return fmt.Errorf("%w: sales_customer_id_fkey", repository.ErrConflict)
		}
	}
	delete(st.customers, id)
	return nil
}

type productRepo struct {
	s *Store
}

func (r *productRepo) nameTaken(name string, exceptID int64) bool {
	for id, p := range r.s.st.products {
		if id != exceptID && p.Name == name {
			return true
		}
	}
	return false
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := models.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	defer r.s.lock()()

	if r.nameTaken(p.Name, 0) {
		return fmt.Errorf("%w: products_name_key", repository.ErrDuplicate)
	}

	st := r.s.st
	st.nextProductID++
	now := time.Now()
	p.ID = st.nextProductID
	p.CreatedAt = now
	p.UpdatedAt = now
	st.products[p.ID] = *p
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	p, ok := r.s.st.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

// GetByIDForUpdate needs no row lock: a transaction already owns the whole
// store.
func (r *productRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	for _, p := range r.s.st.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *productRepo) SearchByName(ctx context.Context, fragment string) ([]models.Product, error) {
	if fragment == "" {
		return nil, fmt.Errorf("%w: search text cannot be empty", repository.ErrInvalidInput)
	}
	needle := strings.ToLower(fragment)
	return r.filter(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *productRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.filter(func(models.Product) bool { return true }), nil
}

func (r *productRepo) filter(match func(models.Product) bool) []models.Product {
	defer r.s.lock()()

	st := r.s.st
	products := []models.Product{}
	for _, id := range sortedKeys(st.products) {
		if p := st.products[id]; match(p) {
			products = append(products, p)
		}
	}
	return products
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	if err := models.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	defer r.s.lock()()

	existing, ok := r.s.st.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(p.Name, p.ID) {
		return fmt.Errorf("%w: products_name_key", repository.ErrDuplicate)
	}

	existing.Name = p.Name
	existing.Price = p.Price
	existing.UpdatedAt = time.Now()
	r.s.st.products[p.ID] = existing
	*p = existing
	return nil
}

func (r *productRepo) UpdateStock(ctx context.Context, id int64, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	p, ok := r.s.st.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	r.s.st.products[id] = p
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	st := r.s.st
	if _, ok := st.products[id]; !ok {
		return repository.ErrNotFound
	}
	for _, sale := range st.sales {
		if sale.ProductID == id {
			return fmt.Errorf("%w: sales_product_id_fkey", repository.ErrConflict)
		}
	}
	delete(st.products, id)
	for mid, m := range st.movements {
		if m.ProductID == id {
			delete(st.movements, mid)
		}
	}
	return nil
}

type saleRepo struct {
	s *Store
}

func (r *saleRepo) Create(ctx context.Context, sale *models.Sale) error {
	if sale == nil {
		return fmt.Errorf("%w: sale cannot be nil", repository.ErrInvalidInput)
	}
	if err := models.Validate(sale); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	if sale.SoldAt.IsZero() {
		return fmt.Errorf("%w: sale timestamp must be set", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	st := r.s.st
	if _, ok := st.customers[sale.CustomerID]; !ok {
		return fmt.Errorf("%w: sales_customer_id_fkey", repository.ErrConflict)
	}
	if _, ok := st.products[sale.ProductID]; !ok {
		return fmt.Errorf("%w: sales_product_id_fkey", repository.ErrConflict)
	}

	st.nextSaleID++
	sale.ID = st.nextSaleID
	st.sales[sale.ID] = *sale
	return nil
}

func (r *saleRepo) result(sale models.Sale) models.SaleResult {
	c := r.s.st.customers[sale.CustomerID]
	p := r.s.st.products[sale.ProductID]
	return *models.NewSaleResult(&sale, &c, &p)
}

func (r *saleRepo) GetByID(ctx context.Context, id int64) (*models.SaleResult, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: sale ID must be positive", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	sale, ok := r.s.st.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	res := r.result(sale)
	return &res, nil
}

func (r *saleRepo) GetAll(ctx context.Context) ([]models.SaleResult, error) {
	return r.filter(func(models.Sale) bool { return true }), nil
}

func (r *saleRepo) GetByCustomerID(ctx context.Context, customerID int64) ([]models.SaleResult, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customer ID must be positive", repository.ErrInvalidInput)
	}
	return r.filter(func(s models.Sale) bool { return s.CustomerID == customerID }), nil
}

func (r *saleRepo) GetByProductID(ctx context.Context, productID int64) ([]models.SaleResult, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product ID must be positive", repository.ErrInvalidInput)
	}
	return r.filter(func(s models.Sale) bool { return s.ProductID == productID }), nil
}

func (r *saleRepo) GetByCustomerAndProduct(ctx context.Context, customerID, productID int64) ([]models.SaleResult, error) {
	if customerID <= 0 || productID <= 0 {
		return nil, fmt.Errorf("%w: customer and product IDs must be positive", repository.ErrInvalidInput)
	}
	return r.filter(func(s models.Sale) bool {
		return s.CustomerID == customerID && s.ProductID == productID
	}), nil
}

func (r *saleRepo) GetBySoldAt(ctx context.Context, soldAt time.Time) ([]models.SaleResult, error) {
	return r.filter(func(s models.Sale) bool { return s.SoldAt.Equal(soldAt) }), nil
}

func (r *saleRepo) filter(match func(models.Sale) bool) []models.SaleResult {
	defer r.s.lock()()

	st := r.s.st
	sales := []models.SaleResult{}
	for _, id := range sortedKeys(st.sales) {
		if s := st.sales[id]; match(s) {
			sales = append(sales, r.result(s))
		}
	}
	return sales
}

func (r *saleRepo) Delete(ctx context.Context, id int64) (*models.Sale, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: sale ID must be positive", repository.ErrInvalidInput)
	}
	defer r.s.lock()()

	sale, ok := r.s.st.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.s.st.sales, id)
	return &sale, nil
}

func (r *saleRepo) ExistsByCustomerID(ctx context.Context, customerID int64) (bool, error) {
	return r.exists(func(s models.Sale) bool { return s.CustomerID == customerID }), nil
}

func (r *saleRepo) ExistsByProductID(ctx context.Context, productID int64) (bool, error) {
	return r.exists(func(s models.Sale) bool { return s.ProductID == productID }), nil
}

func (r *saleRepo) exists(match func(models.Sale) bool) bool {
	defer r.s.lock()()

	for _, s := range r.s.st.sales {
		if match(s) {
			return true
		}
	}
	return false
}

func (r *saleRepo) DeleteByCustomerID(ctx context.Context, customerID int64) (int64, error) {
	return r.deleteWhere(func(s models.Sale) bool { return s.CustomerID == customerID }), nil
}

func (r *saleRepo) DeleteByProductID(ctx context.Context, productID int64) (int64, error) {
	return r.deleteWhere(func(s models.Sale) bool { return s.ProductID == productID }), nil
}

func (r *saleRepo) deleteWhere(match func(models.Sale) bool) int64 {
	defer r.s.lock()()

	var n int64
	for id, s := range r.s.st.sales {
		if match(s) {
			delete(r.s.st.sales, id)
			n++
		}
	}
	return n
}

type movementRepo struct {
	s *Store
}

func (r *movementRepo) Create(ctx context.Context, m *models.StockMovement) error {
	if m == nil {
		return fmt.Errorf("%w: movement cannot be nil", repository.ErrInvalidInput)
	}
	if m.ProductID <= 0 {
		return fmt.Errorf("%w: product ID must be positive", repository.ErrInvalidInput)
	}
	if m.QuantityDelta == 0 {
		return fmt.Errorf("%w: the quantity delta cannot be 0", repository.ErrInvalidInput)
	}
	if m.MovementType != models.MovementOutgoing && m.MovementType != models.MovementIncoming {
		return fmt.Errorf("%w: invalid movement type '%s'", repository.ErrInvalidInput, m.MovementType)
	}
	defer r.s.lock()()

	st := r.s.st
	if _, ok := st.products[m.ProductID]; !ok {
		return fmt.Errorf("%w: stock_movements_product_id_fkey", repository.ErrConflict)
	}

	st.nextMovementID++
	m.ID = st.nextMovementID
	m.CreatedAt = time.Now()
	st.movements[m.ID] = *m
	return nil
}

func (r *movementRepo) GetByProductID(ctx context.Context, productID int64) ([]models.StockMovement, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	return r.filter(func(m models.StockMovement) bool { return m.ProductID == productID }), nil
}

func (r *movementRepo) GetBySaleID(ctx context.Context, saleID int64) ([]models.StockMovement, error) {
	if saleID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	return r.filter(func(m models.StockMovement) bool {
		return m.SaleID != nil && *m.SaleID == saleID
	}), nil
}

func (r *movementRepo) filter(match func(models.StockMovement) bool) []models.StockMovement {
	defer r.s.lock()()

	st := r.s.st
	movements := []models.StockMovement{}
	for _, id := range sortedKeys(st.movements) {
		if m := st.movements[id]; match(m) {
			movements = append(movements, m)
		}
	}
	return movements
}
