// Package repository provides a generic gorm-backed store.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Option mutates the query before execution.
type Option func(*gorm.DB) *gorm.DB

// Repository is a typed persistence facade over gorm.
type Repository[T any] interface {
	Get(ctx context.Context, filter *T, opts ...Option) (*T, error)
	Find(ctx context.Context, filter *T, opts ...Option) ([]*T, error)
	Count(ctx context.Context, filter *T) (int64, error)
	Create(ctx context.Context, record *T) error
	Save(ctx context.Context, record *T) error
	Updates(ctx context.Context, filter *T, values map[string]any) (int64, error)
	Delete(ctx context.Context, filter *T) error
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore constructs a Repository bound to the given connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

// Get returns the first matching record or nil when absent.
func (s *store[T]) Get(ctx context.Context, filter *T, opts ...Option) (*T, error) {
	query := s.apply(ctx, opts...)
	var record T
	err := query.Where(filter).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) Find(ctx context.Context, filter *T, opts ...Option) ([]*T, error) {
	query := s.apply(ctx, opts...)
	var records []*T
	if err := query.Where(filter).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store[T]) Count(ctx context.Context, filter *T) (int64, error) {
	var model T
	var total int64
	err := s.db.WithContext(ctx).Model(&model).Where(filter).Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) Save(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Save(record).Error
}

// Updates applies a partial update and returns the affected row count.
func (s *store[T]) Updates(ctx context.Context, filter *T, values map[string]any) (int64, error) {
	var model T
	result := s.db.WithContext(ctx).Model(&model).Where(filter).Updates(values)
	return result.RowsAffected, result.Error
}

func (s *store[T]) Delete(ctx context.Context, filter *T) error {
	var model T
	return s.db.WithContext(ctx).Where(filter).Delete(&model).Error
}

func (s *store[T]) apply(ctx context.Context, opts ...Option) *gorm.DB {
	query := s.db.WithContext(ctx)
	for _, opt := range opts {
		if opt != nil {
			query = opt(query)
		}
	}
	return query
}
