package services

import (
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
)

// Invoice numbers are a legal sequence: once issued they must never repeat,
// and committed numbers must be gap-free. Allocation is optimistic — each
// attempt runs in its own transaction and the unique index on
// (restaurant_id, invoice_no) is the authoritative conflict detector.
const maxAllocateAttempts = 5

// ErrAllocateExhausted surfaces after all attempts collide. This is fatal to
// the caller; the allocator never silently skips or duplicates.
var ErrAllocateExhausted = errors.New("could not allocate invoice number")

type SequenceAllocator struct {
	db *gorm.DB
}

func NewSequenceAllocator(db *gorm.DB) *SequenceAllocator {
	return &SequenceAllocator{db: db}
}

// Allocate picks the next sequence number for (restaurantID, fy) and runs
// the caller's insert with it inside the same transaction that advances the
// counter. The insert must create the row carrying the unique invoice_no;
// a duplicate-key failure aborts the attempt and triggers a retry with a
// freshly-read candidate. Returns the committed sequence and the number of
// attempts used (observable for tests).
func (a *SequenceAllocator) Allocate(restaurantID uint, fy string, insert func(tx *gorm.DB, seq int64) error) (int64, int, error) {
	fyStart, err := FiscalYearStart(fy)
	if err != nil {
		return 0, 0, err
	}
	fyStartKey := fyStart.Format("2006-01-02")

	for attempt := 1; attempt <= maxAllocateAttempts; attempt++ {
		var seq int64
		err := a.db.Transaction(func(tx *gorm.DB) error {
			last, err := counterValue(tx, restaurantID, fyStartKey)
			if err != nil {
				return err
			}
			issued, err := maxIssuedSequence(tx, restaurantID, fy)
			if err != nil {
				return err
			}
			// Defensive cross-check: a drifted counter self-heals by
			// following the numbers actually on record.
			seq = last
			if issued > seq {
				seq = issued
			}
			seq++

			if err := insert(tx, seq); err != nil {
				return err
			}
			return advanceCounter(tx, restaurantID, fyStartKey, seq)
		})
		if err == nil {
			return seq, attempt, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return 0, attempt, err
	}
	return 0, maxAllocateAttempts, ErrAllocateExhausted
}

func counterValue(tx *gorm.DB, restaurantID uint, fyStart string) (int64, error) {
	var counter models.InvoiceCounter
	err := tx.Where("restaurant_id = ? AND fy_start = ?", restaurantID, fyStart).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.LastNumber, nil
}

// maxIssuedSequence reads the highest sequence already recorded under the
// fiscal-year prefix. Zero-padding makes lexicographic order equal numeric
// order, so the max invoice_no carries the max sequence.
func maxIssuedSequence(tx *gorm.DB, restaurantID uint, fy string) (int64, error) {
	prefix := fy + "/"
	var invoiceNo string
	err := tx.Model(&models.Invoice{}).
		Where("restaurant_id = ? AND invoice_no LIKE ?", restaurantID, prefix+"%").
		Order("invoice_no DESC").
		Limit(1).
		Pluck("invoice_no", &invoiceNo).Error
	if err != nil {
		return 0, err
	}
	if invoiceNo == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(invoiceNo, prefix), 10, 64)
	if err != nil {
		return 0, nil
	}
	return seq, nil
}

func advanceCounter(tx *gorm.DB, restaurantID uint, fyStart string, seq int64) error {
	res := tx.Model(&models.InvoiceCounter{}).
		Where("restaurant_id = ? AND fy_start = ?", restaurantID, fyStart).
		Update("last_number", gorm.Expr(
			"CASE WHEN last_number < ? THEN ? ELSE last_number END", seq, seq))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return tx.Create(&models.InvoiceCounter{
		RestaurantID: restaurantID,
		FYStart:      fyStart,
		LastNumber:   seq,
	}).Error
}
