package patient

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 4
	MaxPageSize     = 100
)

var ErrNotFound = errors.New("patient not found")

// Page is one zero-indexed slice of an ordered result set.
type Page struct {
	Content       []Patient
	Number        int
	Size          int
	TotalElements int64
	TotalPages    int
}

// Repository is the persistence gateway for patients.
type Repository interface {
	Save(ctx context.Context, p *Patient) error
	FindByID(ctx context.Context, id uint) (*Patient, error)
	DeleteByID(ctx context.Context, id uint) error
	FindPage(ctx context.Context, page, size int) (Page, error)
	FindByNameContains(ctx context.Context, keyword string, page, size int) (Page, error)
	Count(ctx context.Context) (int64, error)
}

// NormalizePageRequest clamps a caller supplied page request.
func NormalizePageRequest(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Save creates the patient when ID is zero and otherwise overwrites the
// stored row. Invalid patients never reach the store.
func (r *GormRepository) Save(ctx context.Context, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == 0 {
		if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Patient
		if err := tx.Select("id", "created_at").First(&existing, p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load patient %d: %w", p.ID, err)
		}
		p.CreatedAt = existing.CreatedAt
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("update patient %d: %w", p.ID, err)
		}
		return nil
	})
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Patient, error) {
	var p Patient
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find patient %d: %w", id, err)
	}
	return &p, nil
}

// DeleteByID returns ErrNotFound when no row had that id.
func (r *GormRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Patient{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete patient %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) FindPage(ctx context.Context, page, size int) (Page, error) {
	return r.FindByNameContains(ctx, "", page, size)
}

// FindByNameContains matches names holding keyword as a case-sensitive
// substring. An empty keyword matches every patient.
func (r *GormRepository) FindByNameContains(ctx context.Context, keyword string, page, size int) (Page, error) {
	page, size = NormalizePageRequest(page, size)
	q := r.db.WithContext(ctx).Model(&Patient{})
	if keyword != "" {
		q = q.Where(containsClause(r.db.Dialector.Name()), keyword)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("count patients: %w", err)
	}
	result := Page{
		Content:       []Patient{},
		Number:        page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
	}
	if page >= result.TotalPages {
		return result, nil
	}
	if err := q.Order("id ASC").Offset(page * size).Limit(size).Find(&result.Content).Error; err != nil {
		return Page{}, fmt.Errorf("list patients: %w", err)
	}
	return result, nil
}

func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Patient{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

// containsClause avoids LIKE so that wildcard characters in the keyword
// are matched literally and sqlite stays case-sensitive.
func containsClause(dialect string) string {
	if dialect == "postgres" {
		return "strpos(name, ?) > 0"
	}
	return "instr(name, ?) > 0"
}
