// Package cart keeps shopping carts per (customer or guest session, restaurant).
package cart

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNoOwner               = apperr.Forbidden("Only customers and guests have carts")
	ErrInvalidQuantity       = apperr.Validation("Quantity must be at least 1")
	ErrProductNotFound       = apperr.NotFound("Product does not exist")
	ErrProductUnavailable    = apperr.Validation("Product is not available")
	ErrCategoryInactive      = apperr.Validation("Product category is not active")
	ErrRestaurantUnavailable = apperr.Validation("Restaurant is not accepting orders")
	ErrWrongRestaurant       = apperr.Validation("Product belongs to another restaurant")
	ErrInvalidOption         = apperr.Validation("Option does not belong to this product")
	ErrOptionUnavailable     = apperr.Validation("Option is not available")
	ErrInsufficientStock     = apperr.Conflict("Not enough stock for this product")
	ErrItemNotFound          = apperr.NotFound("Cart item not found")
)

// Owner identifies whose cart is addressed. Exactly one field is set.
type Owner struct {
	CustomerID string
	SessionID  string
}

// OwnerFrom derives the cart owner from the actor in ctx.
func OwnerFrom(ctx context.Context) (Owner, error) {
	a, ok := actor.From(ctx)
	if !ok || a.ID == "" {
		return Owner{}, ErrNoOwner
	}
	switch a.Role {
	case actor.RoleCustomer:
		return Owner{CustomerID: a.ID}, nil
	case actor.RoleGuest:
		return Owner{SessionID: a.ID}, nil
	}
	return Owner{}, ErrNoOwner
}

func (o Owner) scope(restaurantID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("restaurant_id = ? AND customer_id = ? AND session_id = ?",
			restaurantID, o.CustomerID, o.SessionID)
	}
}

// AddInput describes one product added to the cart with its chosen options.
type AddInput struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	OptionIDs []uint `json:"option_ids"`
	Notes     string `json:"notes"`
}

// View is a cart with its computed subtotal.
type View struct {
	RestaurantID uint              `json:"restaurant_id"`
	Items        []models.CartItem `json:"items"`
	ItemCount    int               `json:"item_count"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
}

// Subtotal sums the line totals of items.
func Subtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

func newView(restaurantID uint, items []models.CartItem) View {
	if items == nil {
		items = []models.CartItem{}
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return View{RestaurantID: restaurantID, Items: items, ItemCount: count, Subtotal: Subtotal(items)}
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Find loads the owner's cart for a restaurant with its items and options.
// It returns gorm.ErrRecordNotFound when the cart does not exist.
func Find(tx *gorm.DB, owner Owner, restaurantID uint) (models.Cart, error) {
	var c models.Cart
	err := tx.Scopes(owner.scope(restaurantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at, id") }).
		Preload("Items.Options", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&c).Error
	return c, err
}

// Delete removes a cart with every item and option row.
func Delete(tx *gorm.DB, cartID uint) error {
	itemIDs := tx.Model(&models.CartItem{}).Select("id").Where("cart_id = ?", cartID)
	if err := tx.Where("cart_item_id IN (?)", itemIDs).Delete(&models.CartItemOption{}).Error; err != nil {
		return err
	}
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Cart{}, cartID).Error
}

func (s *Service) Get(ctx context.Context, restaurantID uint) (View, error) {
	owner, err := OwnerFrom(ctx)
	if err != nil {
		return View{}, err
	}
	return s.view(s.db.WithContext(ctx), owner, restaurantID)
}

func (s *Service) view(tx *gorm.DB, owner Owner, restaurantID uint) (View, error) {
	c, err := Find(tx, owner, restaurantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newView(restaurantID, nil), nil
	}
	if err != nil {
		return View{}, err
	}
	return newView(restaurantID, c.Items), nil
}

// Add puts a product into the cart. A line with the same product and the same
// option set absorbs the quantity instead of creating a new line.
func (s *Service) Add(ctx context.Context, restaurantID uint, in AddInput) (View, error) {
	owner, err := OwnerFrom(ctx)
	if err != nil {
		return View{}, err
	}
	if in.Quantity < 1 {
		return View{}, ErrInvalidQuantity
	}

	var out View
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := loadOrderable(tx, restaurantID, in.ProductID)
		if err != nil {
			return err
		}
		sel, err := resolveSelection(product, in.OptionIDs)
		if err != nil {
			return err
		}

		c, err := findOrCreate(tx, owner, restaurantID)
		if err != nil {
			return err
		}
		if err := checkStock(tx, product, c.ID, 0, in.Quantity); err != nil {
			return err
		}

		var line models.CartItem
		err = tx.Where("cart_id = ? AND product_id = ? AND selection_key = ?", c.ID, product.ID, sel.key).
			First(&line).Error
		switch {
		case err == nil:
			line.Quantity += in.Quantity
			line.UnitPrice = sel.unitPrice
			line.ProductName = product.Name
			if line.Notes == "" {
				line.Notes = in.Notes
			}
			if err := tx.Save(&line).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = models.CartItem{
				CartID:       c.ID,
				ProductID:    product.ID,
				ProductName:  product.Name,
				UnitPrice:    sel.unitPrice,
				Quantity:     in.Quantity,
				SelectionKey: sel.key,
				Notes:        in.Notes,
				Options:      sel.options,
				AddedAt:      time.Now(),
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		default:
			return err
		}

		out, err = s.view(tx, owner, restaurantID)
		return err
	})
	return out, err
}

// SetQuantity changes the quantity of one line; zero removes it.
func (s *Service) SetQuantity(ctx context.Context, restaurantID, itemID uint, quantity int) (View, error) {
	owner, err := OwnerFrom(ctx)
	if err != nil {
		return View{}, err
	}
	if quantity < 0 {
		return View{}, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, restaurantID, itemID)
	}

	var out View
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line, err := findLine(tx, owner, restaurantID, itemID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := checkStock(tx, product, line.CartID, line.Quantity, quantity); err != nil {
			return err
		}

		if err := tx.Model(&line).Update("quantity", quantity).Error; err != nil {
			return err
		}
		out, err = s.view(tx, owner, restaurantID)
		return err
	})
	return out, err
}

func (s *Service) Remove(ctx context.Context, restaurantID, itemID uint) (View, error) {
	owner, err := OwnerFrom(ctx)
	if err != nil {
		return View{}, err
	}

	var out View
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line, err := findLine(tx, owner, restaurantID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_item_id = ?", line.ID).Delete(&models.CartItemOption{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&line).Error; err != nil {
			return err
		}
		out, err = s.view(tx, owner, restaurantID)
		return err
	})
	return out, err
}

// Clear deletes the cart. Clearing a missing cart is not an error.
func (s *Service) Clear(ctx context.Context, restaurantID uint) error {
	owner, err := OwnerFrom(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Cart
		err := tx.Scopes(owner.scope(restaurantID)).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return Delete(tx, c.ID)
	})
}

// MergeSessionCart moves every cart of a guest session into the customer's
// carts, summing quantities of identical lines, and deletes the session carts.
// It reports whether anything was merged.
func (s *Service) MergeSessionCart(ctx context.Context, sessionID, customerID string) (bool, error) {
	if sessionID == "" || customerID == "" {
		return false, nil
	}

	merged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var guestCarts []models.Cart
		err := tx.Where("session_id = ? AND customer_id = ''", sessionID).
			Preload("Items.Options").
			Find(&guestCarts).Error
		if err != nil {
			return err
		}

		customer := Owner{CustomerID: customerID}
		for _, gc := range guestCarts {
			if len(gc.Items) == 0 {
				if err := Delete(tx, gc.ID); err != nil {
					return err
				}
				continue
			}

			uc, err := findOrCreate(tx, customer, gc.RestaurantID)
			if err != nil {
				return err
			}

			for _, item := range gc.Items {
				var existing models.CartItem
				err := tx.Where("cart_id = ? AND product_id = ? AND selection_key = ?",
					uc.ID, item.ProductID, item.SelectionKey).First(&existing).Error
				switch {
				case err == nil:
					err = tx.Model(&existing).Updates(map[string]any{
						"quantity": existing.Quantity + item.Quantity,
						"added_at": time.Now(),
					}).Error
				case errors.Is(err, gorm.ErrRecordNotFound):
					err = tx.Model(&models.CartItem{}).Where("id = ?", item.ID).Update("cart_id", uc.ID).Error
				}
				if err != nil {
					return err
				}
			}

			if err := Delete(tx, gc.ID); err != nil {
				return err
			}
			merged = true
		}
		return nil
	})
	return merged, err
}

func findOrCreate(tx *gorm.DB, owner Owner, restaurantID uint) (models.Cart, error) {
	c := models.Cart{RestaurantID: restaurantID, CustomerID: owner.CustomerID, SessionID: owner.SessionID}
	err := tx.Scopes(owner.scope(restaurantID)).FirstOrCreate(&c).Error
	return c, err
}

func findLine(tx *gorm.DB, owner Owner, restaurantID, itemID uint) (models.CartItem, error) {
	var line models.CartItem
	err := tx.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ?", itemID).
		Where("carts.restaurant_id = ? AND carts.customer_id = ? AND carts.session_id = ?",
			restaurantID, owner.CustomerID, owner.SessionID).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return line, ErrItemNotFound
	}
	return line, err
}

// loadOrderable returns the product when it can currently be ordered from the restaurant.
func loadOrderable(tx *gorm.DB, restaurantID, productID uint) (models.Product, error) {
	var p models.Product
	err := tx.Preload("Category").
		Preload("Groups.Options").
		First(&p, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, ErrProductNotFound
	}
	if err != nil {
		return p, err
	}
	if p.RestaurantID != restaurantID {
		return p, ErrWrongRestaurant
	}
	if !p.Available {
		return p, ErrProductUnavailable
	}
	if p.Category == nil || !p.Category.Active {
		return p, ErrCategoryInactive
	}

	var r models.Restaurant
	if err := tx.Select("id", "active").First(&r, restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p, ErrRestaurantUnavailable
		}
		return p, err
	}
	if !r.Active {
		return p, ErrRestaurantUnavailable
	}
	return p, nil
}

type selection struct {
	key       string
	unitPrice decimal.Decimal
	options   []models.CartItemOption
}

// resolveSelection checks chosen options against the product's groups and
// prices the line.
func resolveSelection(p models.Product, optionIDs []uint) (selection, error) {
	type owned struct {
		group  *models.CustomizationGroup
		option models.CustomizationOption
	}
	byID := make(map[uint]owned)
	for gi := range p.Groups {
		g := &p.Groups[gi]
		for _, o := range g.Options {
			byID[o.ID] = owned{group: g, option: o}
		}
	}

	ids := dedupe(optionIDs)
	perGroup := make(map[uint]int)
	sel := selection{unitPrice: p.Price}
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return selection{}, ErrInvalidOption
		}
		if !o.option.Available {
			return selection{}, apperr.Wrap(ErrOptionUnavailable, errors.New(o.option.Name))
		}
		perGroup[o.group.ID]++
		sel.unitPrice = sel.unitPrice.Add(o.option.PriceDelta)
		sel.options = append(sel.options, models.CartItemOption{
			OptionID:   o.option.ID,
			GroupName:  o.group.Name,
			OptionName: o.option.Name,
			PriceDelta: o.option.PriceDelta,
		})
	}

	for _, g := range p.Groups {
		n := perGroup[g.ID]
		if n < g.MinSelect {
			return selection{}, apperr.Validationf("Choose at least %d option(s) for %s", g.MinSelect, g.Name)
		}
		if g.MaxSelect > 0 && n > g.MaxSelect {
			return selection{}, apperr.Validationf("Choose at most %d option(s) for %s", g.MaxSelect, g.Name)
		}
	}

	sel.key = SelectionKey(ids)
	sel.unitPrice = sel.unitPrice.Round(2)
	return sel, nil
}

// SelectionKey returns the canonical key for a set of option ids.
func SelectionKey(optionIDs []uint) string {
	ids := dedupe(optionIDs)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkStock verifies that the product's quantity across the cart, with one
// line going from oldQty to newQty, fits the tracked stock.
func checkStock(tx *gorm.DB, p models.Product, cartID uint, oldQty, newQty int) error {
	if !p.TrackStock {
		return nil
	}
	var inCart int64
	err := tx.Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, p.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&inCart).Error
	if err != nil {
		return err
	}
	if int(inCart)-oldQty+newQty > p.Stock {
		return ErrInsufficientStock
	}
	return nil
}
