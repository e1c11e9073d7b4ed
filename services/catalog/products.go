package catalog

import (
	"context"
	"strings"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCategoryMismatch = apperr.Validation("Category belongs to another restaurant")
	ErrNegativeStock    = apperr.Validation("Stock cannot be negative")
	ErrInvalidGroup     = apperr.Validation("Minimum selection cannot exceed maximum")
)

// ProductInput carries editable product fields. Nil pointers are left unchanged on update.
type ProductInput struct {
	CategoryID  uint             `json:"category_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Position    *int             `json:"position"`
	Available   *bool            `json:"available"`
	TrackStock  *bool            `json:"track_stock"`
	Stock       *int             `json:"stock"`
}

func (in ProductInput) validate() error {
	if in.Price != nil && in.Price.IsNegative() {
		return ErrNegativePrice
	}
	if in.Stock != nil && *in.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Position != nil {
		p.Position = *in.Position
	}
	if in.Available != nil {
		p.Available = *in.Available
	}
	if in.TrackStock != nil {
		p.TrackStock = *in.TrackStock
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
}

func checkCategory(tx *gorm.DB, restaurantID, categoryID uint) error {
	var c models.Category
	if err := tx.Select("id", "restaurant_id").First(&c, categoryID).Error; err != nil {
		return notFound(err, ErrCategoryNotFound)
	}
	if c.RestaurantID != restaurantID {
		return ErrCategoryMismatch
	}
	return nil
}

// CreateProduct adds a product to a category. Products start available.
func (s *Service) CreateProduct(ctx context.Context, restaurantID uint, in ProductInput) (models.Product, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return models.Product{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.Product{}, ErrNameRequired
	}
	if in.Price == nil {
		return models.Product{}, apperr.Validation("Price is required")
	}
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	p := models.Product{RestaurantID: restaurantID, CategoryID: in.CategoryID, Available: true}
	in.apply(&p)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, restaurantID, in.CategoryID); err != nil {
			return err
		}
		if in.Position == nil {
			pos, err := nextPosition(tx, &models.Product{}, "category_id", in.CategoryID)
			if err != nil {
				return err
			}
			p.Position = pos
		}
		return tx.Create(&p).Error
	})
	return p, err
}

// GetProduct loads a product with its customization groups in display order.
func (s *Service) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("Groups.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		First(&p, id).Error
	if err != nil {
		return p, notFound(err, ErrProductNotFound)
	}
	if err := authorize(ctx, p.RestaurantID); err != nil {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return p, err
	}
	if err := in.validate(); err != nil {
		return p, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CategoryID != 0 && in.CategoryID != p.CategoryID {
			if err := checkCategory(tx, p.RestaurantID, in.CategoryID); err != nil {
				return err
			}
			p.CategoryID = in.CategoryID
		}
		in.apply(&p)
		return tx.Omit("Groups", "Category").Save(&p).Error
	})
	if err != nil {
		return models.Product{}, err
	}
	return s.GetProduct(ctx, id)
}

func (s *Service) SetProductAvailable(ctx context.Context, id uint, available bool) (models.Product, error) {
	return s.UpdateProduct(ctx, id, ProductInput{Available: &available})
}

// SetStock sets the tracked stock level and turns stock tracking on.
func (s *Service) SetStock(ctx context.Context, id uint, stock int) (models.Product, error) {
	track := true
	return s.UpdateProduct(ctx, id, ProductInput{Stock: &stock, TrackStock: &track})
}

// DeleteProduct soft-deletes a product; past orders keep their snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Product{}, p.ID).Error
}

// ProductFilter narrows ListProducts. Zero fields are ignored.
type ProductFilter struct {
	CategoryID    uint
	Search        string
	AvailableOnly bool
}

func (s *Service) ListProducts(ctx context.Context, restaurantID uint, f ProductFilter) ([]models.Product, error) {
	if err := authorize(ctx, restaurantID); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if f.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	var out []models.Product
	err := q.Order("category_id, position, id").Find(&out).Error
	return out, err
}

// ReorderProducts sets positions to follow the order of ids.
func (s *Service) ReorderProducts(ctx context.Context, restaurantID uint, ids []uint) error {
	if err := authorize(ctx, restaurantID); err != nil {
		return err
	}
	return reorder(s.db.WithContext(ctx), &models.Product{}, restaurantID, ids)
}

// GroupInput describes a customization group and, on creation, its options.
type GroupInput struct {
	Name      string        `json:"name"`
	MinSelect int           `json:"min_select"`
	MaxSelect int           `json:"max_select"`
	Position  int           `json:"position"`
	Options   []OptionInput `json:"options"`
}

type OptionInput struct {
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Position   int             `json:"position"`
}

func (in GroupInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.MinSelect < 0 || in.MaxSelect < 0 || (in.MaxSelect > 0 && in.MinSelect > in.MaxSelect) {
		return ErrInvalidGroup
	}
	for _, o := range in.Options {
		if strings.TrimSpace(o.Name) == "" {
			return ErrNameRequired
		}
	}
	return nil
}

// AddGroup attaches a customization group with its options to a product.
func (s *Service) AddGroup(ctx context.Context, productID uint, in GroupInput) (models.CustomizationGroup, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return models.CustomizationGroup{}, err
	}
	if err := in.validate(); err != nil {
		return models.CustomizationGroup{}, err
	}

	g := models.CustomizationGroup{
		ProductID: p.ID,
		Name:      strings.TrimSpace(in.Name),
		MinSelect: in.MinSelect,
		MaxSelect: in.MaxSelect,
		Position:  in.Position,
	}
	for i, o := range in.Options {
		pos := o.Position
		if pos == 0 {
			pos = i
		}
		g.Options = append(g.Options, models.CustomizationOption{
			Name:       strings.TrimSpace(o.Name),
			PriceDelta: o.PriceDelta.Round(2),
			Available:  true,
			Position:   pos,
		})
	}
	err = s.db.WithContext(ctx).Create(&g).Error
	return g, err
}

func (s *Service) groupForUpdate(ctx context.Context, groupID uint) (models.CustomizationGroup, error) {
	var g models.CustomizationGroup
	if err := s.db.WithContext(ctx).First(&g, groupID).Error; err != nil {
		return g, notFound(err, ErrGroupNotFound)
	}
	if _, err := s.GetProduct(ctx, g.ProductID); err != nil {
		return models.CustomizationGroup{}, ErrGroupNotFound
	}
	return g, nil
}

func (s *Service) DeleteGroup(ctx context.Context, groupID uint) error {
	g, err := s.groupForUpdate(ctx, groupID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", g.ID).Delete(&models.CustomizationOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CustomizationGroup{}, g.ID).Error
	})
}

// AddOption appends one option to an existing group.
func (s *Service) AddOption(ctx context.Context, groupID uint, in OptionInput) (models.CustomizationOption, error) {
	g, err := s.groupForUpdate(ctx, groupID)
	if err != nil {
		return models.CustomizationOption{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.CustomizationOption{}, ErrNameRequired
	}
	o := models.CustomizationOption{
		GroupID:    g.ID,
		Name:       strings.TrimSpace(in.Name),
		PriceDelta: in.PriceDelta.Round(2),
		Available:  true,
		Position:   in.Position,
	}
	err = s.db.WithContext(ctx).Create(&o).Error
	return o, err
}

func (s *Service) SetOptionAvailable(ctx context.Context, optionID uint, available bool) (models.CustomizationOption, error) {
	var o models.CustomizationOption
	if err := s.db.WithContext(ctx).First(&o, optionID).Error; err != nil {
		return o, notFound(err, ErrOptionNotFound)
	}
	if _, err := s.groupForUpdate(ctx, o.GroupID); err != nil {
		return models.CustomizationOption{}, ErrOptionNotFound
	}
	if err := s.db.WithContext(ctx).Model(&models.CustomizationOption{}).Where("id = ?", o.ID).Update("available", available).Error; err != nil {
		return o, err
	}
	o.Available = available
	return o, nil
}
