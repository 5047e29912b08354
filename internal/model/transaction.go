package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrImmutableTransaction = errors.New("committed transactions cannot be modified or deleted")

type TransactionKind string

const (
	TxAddition   TransactionKind = "ADDITION"
	TxRemoval    TransactionKind = "REMOVAL"
	TxAdjustment TransactionKind = "ADJUSTMENT"
)

// ParseTransactionKind accepts any letter case.
func ParseTransactionKind(s string) (TransactionKind, bool) {
	k := TransactionKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case TxAddition, TxRemoval, TxAdjustment:
		return k, true
	}
	return "", false
}

// Transaction is one immutable, signed stock change. Rows are only ever inserted.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_item_seq,priority:1" json:"item_id"`
	Item          *InventoryItem  `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Kind          TransactionKind `gorm:"type:varchar(20);not null" json:"kind"`
	Delta         int64           `gorm:"not null" json:"delta"`
	QuantityAfter int64           `gorm:"not null" json:"quantity_after"`
	Sequence      int64           `gorm:"not null;uniqueIndex:idx_transactions_item_seq,priority:2" json:"sequence"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableTransaction
}
