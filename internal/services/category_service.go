package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

var defaultCategories = []core.CategoryInput{
	{Name: "Food & Dining", Description: "Restaurants, groceries, food delivery", Color: "#ef4444", Icon: "utensils", Type: core.CategoryExpense},
	{Name: "Transportation", Description: "Gas, public transport, car maintenance", Color: "#3b82f6", Icon: "car", Type: core.CategoryExpense},
	{Name: "Shopping", Description: "Clothing, electronics, general purchases", Color: "#8b5cf6", Icon: "shopping-bag", Type: core.CategoryExpense},
	{Name: "Entertainment", Description: "Movies, games, hobbies, subscriptions", Color: "#f59e0b", Icon: "gamepad-2", Type: core.CategoryExpense},
	{Name: "Bills & Utilities", Description: "Rent, electricity, internet, phone", Color: "#dc2626", Icon: "receipt", Type: core.CategoryExpense},
	{Name: "Healthcare", Description: "Medical expenses, insurance, pharmacy", Color: "#059669", Icon: "heart-pulse", Type: core.CategoryExpense},
	{Name: "Other Expense", Description: "Miscellaneous expenses", Color: "#6b7280", Icon: "more-horizontal", Type: core.CategoryExpense},
	{Name: "Salary", Description: "Primary job income", Color: "#10b981", Icon: "briefcase", Type: core.CategoryIncome},
	{Name: "Freelance", Description: "Contract work and side projects", Color: "#8b5cf6", Icon: "laptop", Type: core.CategoryIncome},
	{Name: "Investment Returns", Description: "Dividends, interest, capital gains", Color: "#f59e0b", Icon: "trending-up", Type: core.CategoryIncome},
	{Name: "Gift/Bonus", Description: "Gifts received, work bonuses", Color: "#ec4899", Icon: "gift", Type: core.CategoryIncome},
	{Name: "Other Income", Description: "Miscellaneous income sources", Color: "#6b7280", Icon: "plus", Type: core.CategoryIncome},
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, userID string, f core.CategoryFilter) ([]core.Category, error) {
	if f.Type != "" {
		f.Type = core.NormalizeCategoryType(string(f.Type))
		if !f.Type.Valid() {
			return nil, core.Validation("Invalid category type")
		}
	}
	return s.store.ListCategories(ctx, userID, f)
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, id, userID)
}

func (s *CategoryService) Create(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	c, err := s.create(ctx, userID, in)
	return c, core.Op("create category", err)
}

func (s *CategoryService) create(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	in.Type = core.NormalizeCategoryType(string(in.Type))
	if msgs := checkCategoryFields(in.Name, in.Type); len(msgs) > 0 {
		return core.Category{}, core.Validation(msgs...)
	}

	saved, err := s.store.CreateCategory(ctx, core.Category{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Color:       orString(in.Color, core.DefaultColor),
		Icon:        orString(in.Icon, core.DefaultCategoryIcon),
		Active:      true,
	})
	if err != nil {
		return core.Category{}, err
	}
	slog.InfoContext(ctx, "Category created",
		"category_id", saved.ID,
		"user_id", userID,
		"type", saved.Type)
	return saved, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, p core.CategoryPatch) (core.Category, error) {
	c, err := s.update(ctx, userID, id, p)
	return c, core.Op("update category", err)
}

func (s *CategoryService) update(ctx context.Context, userID, id string, p core.CategoryPatch) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id, userID)
	if err != nil {
		return core.Category{}, err
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = strings.TrimSpace(*p.Description)
	}
	if p.Type != nil {
		c.Type = core.NormalizeCategoryType(string(*p.Type))
	}
	if p.Color != nil {
		c.Color = orString(*p.Color, c.Color)
	}
	if p.Icon != nil {
		c.Icon = orString(*p.Icon, c.Icon)
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	if msgs := checkCategoryFields(c.Name, c.Type); len(msgs) > 0 {
		return core.Category{}, core.Validation(msgs...)
	}

	saved, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	slog.InfoContext(ctx, "Category updated", "category_id", id, "user_id", userID)
	return saved, nil
}

// Deactivate hides the category from new transactions; existing ones keep it.
func (s *CategoryService) Deactivate(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := s.store.DeactivateCategory(ctx, id, userID)
	if err != nil {
		return core.Category{}, core.Op("deactivate category", err)
	}
	slog.InfoContext(ctx, "Category deactivated", "category_id", id, "user_id", userID)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCategory(ctx, id, userID); err != nil {
		return core.Op("delete category", err)
	}
	slog.InfoContext(ctx, "Category deleted", "category_id", id, "user_id", userID)
	return nil
}

// SeedDefaults creates the starter categories, skipping names already taken.
func (s *CategoryService) SeedDefaults(ctx context.Context, userID string) ([]core.Category, error) {
	created := []core.Category{}
	for _, in := range defaultCategories {
		c, err := s.create(ctx, userID, in)
		if core.IsConflict(err) {
			slog.InfoContext(ctx, "Skipping existing category", "name", in.Name, "user_id", userID)
			continue
		}
		if err != nil {
			return created, core.Op("create default categories", err)
		}
		created = append(created, c)
	}
	return created, nil
}

func checkCategoryFields(name string, t core.CategoryType) []string {
	var msgs []string
	if strings.TrimSpace(name) == "" {
		msgs = append(msgs, "Category name is required")
	}
	if !t.Valid() {
		msgs = append(msgs, "Invalid category type")
	}
	return msgs
}
