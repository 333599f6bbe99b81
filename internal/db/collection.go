package db

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Row 是集合表中的一行：seq 记录插入顺序，data 为记录的 JSON 编码。
type Row struct {
	Seq  int64  `gorm:"primaryKey;autoIncrement:false"`
	Data []byte `gorm:"not null"`
}

// Collection 用一张表实现 store.Collection，WriteAll 在事务内整表替换。
type Collection[T any] struct {
	db    *gorm.DB
	table string
}

func NewCollection[T any](db *gorm.DB, table string) *Collection[T] {
	return &Collection[T]{db: db, table: table}
}

func (c *Collection[T]) ReadAll(ctx context.Context) ([]T, error) {
	var rows []Row
	if err := c.db.WithContext(ctx).Table(c.table).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var rec T
		if err := json.Unmarshal(r.Data, &rec); err != nil {
			return nil, fmt.Errorf("decode %s row %d: %w", c.table, r.Seq, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Collection[T]) WriteAll(ctx context.Context, records []T) error {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		rows = append(rows, Row{Seq: int64(i + 1), Data: b})
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(c.table).Where("1 = 1").Delete(&Row{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Table(c.table).CreateInBatches(rows, 200).Error
	})
}
