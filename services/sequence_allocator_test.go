package services

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/models"
)

// insertInvoice is the minimal closure a real caller passes: create the row
// carrying the unique invoice_no.
func insertInvoice(restaurantID, orderID uint, fy string) func(tx *gorm.DB, seq int64) error {
	return func(tx *gorm.DB, seq int64) error {
		return tx.Create(&models.Invoice{
			RestaurantID: restaurantID,
			OrderID:      orderID,
			InvoiceNo:    FormatInvoiceNo(fy, seq),
			InvoiceDate:  time.Now(),
			Status:       InvoiceStatusOpen,
		}).Error
	}
}

func TestAllocateSequential(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db)
	allocator := NewSequenceAllocator(db)

	for i := int64(1); i <= 5; i++ {
		seq, attempts, err := allocator.Allocate(restaurant.ID, "FY24-25",
			insertInvoice(restaurant.ID, uint(i), "FY24-25"))
		assert.NoError(t, err)
		assert.Equal(t, i, seq)
		assert.Equal(t, 1, attempts)
	}

	var counter models.InvoiceCounter
	assert.NoError(t, db.Where("restaurant_id = ? AND fy_start = ?",
		restaurant.ID, "2024-04-01").First(&counter).Error)
	assert.Equal(t, int64(5), counter.LastNumber)
}

func TestAllocateConcurrent(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db)
	allocator := NewSequenceAllocator(db)

	const callers = 10
	results := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seq, _, err := allocator.Allocate(restaurant.ID, "FY24-25",
				insertInvoice(restaurant.ID, uint(i+1), "FY24-25"))
			results[i] = seq
			errs[i] = err
		}(i)
	}
	wg.Wait()

	// N parallel callers must get N distinct, consecutive numbers with no
	// duplicates and no gaps.
	sort.Slice(results, func(a, b int) bool { return results[a] < results[b] })
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, int64(i+1), results[i])
	}
}

func TestAllocateScopedPerRestaurantAndYear(t *testing.T) {
	db := setupTestDB(t)
	first := seedRestaurant(t, db)
	second := seedRestaurant(t, db)
	allocator := NewSequenceAllocator(db)

	seq, _, err := allocator.Allocate(first.ID, "FY24-25", insertInvoice(first.ID, 1, "FY24-25"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	// A different restaurant starts its own sequence at 1.
	seq, _, err = allocator.Allocate(second.ID, "FY24-25", insertInvoice(second.ID, 2, "FY24-25"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	// A new fiscal year resets the same restaurant to 1.
	seq, _, err = allocator.Allocate(first.ID, "FY25-26", insertInvoice(first.ID, 3, "FY25-26"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}

func TestAllocateHealsDriftedCounter(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db)
	allocator := NewSequenceAllocator(db)

	// Invoice 000007 is on record but the counter lags at 2.
	assert.NoError(t, db.Create(&models.Invoice{
		RestaurantID: restaurant.ID,
		OrderID:      1,
		InvoiceNo:    FormatInvoiceNo("FY24-25", 7),
		InvoiceDate:  time.Now(),
		Status:       InvoiceStatusOpen,
	}).Error)
	assert.NoError(t, db.Create(&models.InvoiceCounter{
		RestaurantID: restaurant.ID,
		FYStart:      "2024-04-01",
		LastNumber:   2,
	}).Error)

	seq, _, err := allocator.Allocate(restaurant.ID, "FY24-25",
		insertInvoice(restaurant.ID, 2, "FY24-25"))
	assert.NoError(t, err)
	assert.Equal(t, int64(8), seq, "cross-check must follow issued numbers, not the drifted counter")
}

func TestAllocateExhaustsAfterBoundedRetries(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db)
	allocator := NewSequenceAllocator(db)

	calls := 0
	_, attempts, err := allocator.Allocate(restaurant.ID, "FY24-25", func(tx *gorm.DB, seq int64) error {
		calls++
		return gorm.ErrDuplicatedKey
	})
	assert.ErrorIs(t, err, ErrAllocateExhausted)
	assert.Equal(t, 5, attempts)
	assert.Equal(t, 5, calls)

	// Nothing committed: the next caller still gets sequence 1.
	seq, _, err := allocator.Allocate(restaurant.ID, "FY24-25",
		insertInvoice(restaurant.ID, 1, "FY24-25"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), seq)
}
