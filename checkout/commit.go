package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentMethodCOD is the client value for cash on delivery. Any other value
// is paid online through the gateway.
const PaymentMethodCOD = "cod"

// StoredPaymentMethod maps the client payment method to the persisted one.
func StoredPaymentMethod(input string) models.PaymentMethod {
	if strings.EqualFold(strings.TrimSpace(input), PaymentMethodCOD) {
		return models.PaymentMethodCash
	}
	return models.PaymentMethodCard
}

type CommitRequest struct {
	CartID             uint
	Resolution         Resolution
	PaymentMethod      string
	PromoCodeID        *uint
	DeliveryTimeSlotID *uint
	DeliveryDate       *time.Time
	Notes              string
}

type CommitResult struct {
	OrderID       uint
	OrderRef      string
	CustomerID    uint
	Snapshot      *Snapshot
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod models.PaymentMethod
}

// Commit turns the cart into a pending order in a single transaction. The cart
// is re-priced and stock re-checked inside the transaction; every decrement is
// conditional on enough stock remaining. Any failure rolls everything back.
func Commit(ctx context.Context, db *gorm.DB, req CommitRequest) (*CommitResult, error) {
	var result *CommitResult

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := BuildSnapshot(ctx, tx, req.CartID)
		if err != nil {
			return err
		}

		avail, err := CheckAvailability(ctx, tx, snap.Normalize())
		if err != nil {
			return err
		}
		if err := avail.Err(); err != nil {
			return err
		}

		customerID, err := ensureCustomer(tx, req.Resolution.Customer)
		if err != nil {
			return err
		}

		addr := req.Resolution.Address
		if addr.SaveToProfile {
			if err := saveAddress(tx, customerID, addr); err != nil {
				return fmt.Errorf("save address: %w", err)
			}
		}

		order := models.Order{
			OrderRef:               generateOrderRef(),
			CustomerID:             customerID,
			Subtotal:               snap.Subtotal,
			DeliveryFee:            addr.DeliveryFee,
			Total:                  snap.Subtotal.Add(addr.DeliveryFee).Round(2),
			Status:                 models.OrderStatusPending,
			PaymentMethod:          StoredPaymentMethod(req.PaymentMethod),
			PaymentStatus:          models.PaymentStatusPending,
			DeliveryStreet:         addr.Street,
			DeliveryCity:           addr.CityName,
			DeliveryZone:           addr.ZoneName,
			DeliveryZoneID:         addr.ZoneID,
			DeliveryAdditionalInfo: addr.AdditionalInfo,
			DeliveryDate:           req.DeliveryDate,
			DeliveryTimeSlotID:     req.DeliveryTimeSlotID,
			PromoCodeID:            req.PromoCodeID,
			Notes:                  strings.TrimSpace(req.Notes),
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range snap.Items {
			if err := materializeItem(tx, order.ID, item); err != nil {
				return fmt.Errorf("order item %q: %w", item.Name, err)
			}
		}

		if err := clearCart(tx, req.CartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		result = &CommitResult{
			OrderID:       order.ID,
			OrderRef:      order.OrderRef,
			CustomerID:    customerID,
			Snapshot:      snap,
			Subtotal:      order.Subtotal,
			DeliveryFee:   order.DeliveryFee,
			Total:         order.Total,
			PaymentMethod: order.PaymentMethod,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// materializeItem records one snapshot line on the order and takes its stock.
func materializeItem(tx *gorm.DB, orderID uint, item PricedItem) error {
	instance := models.ProductInstance{ProductID: item.ProductID, Kind: models.InstanceKindSingle}
	if item.IsPack {
		instance.Kind = models.InstanceKindPack
	}
	if err := tx.Omit(clause.Associations).Create(&instance).Error; err != nil {
		return fmt.Errorf("create product instance: %w", err)
	}

	if item.IsPack && len(item.Flavors) > 0 {
		rows := make([]models.ProductInstanceFlavor, 0, len(item.Flavors))
		for _, f := range item.Flavors {
			rows = append(rows, models.ProductInstanceFlavor{
				ProductInstanceID: instance.ID,
				FlavorID:          f.FlavorID,
				SizeID:            f.Size.ID(),
				Quantity:          f.Quantity,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("create instance flavors: %w", err)
		}
	}

	orderItem := models.OrderItem{
		OrderID:           orderID,
		ProductInstanceID: instance.ID,
		Quantity:          item.Quantity,
		UnitPrice:         item.UnitPrice(),
		Total:             item.Total,
	}
	if err := tx.Omit(clause.Associations).Create(&orderItem).Error; err != nil {
		return fmt.Errorf("create order item: %w", err)
	}

	if !item.IsPack {
		return decrementProduct(tx, item.ProductID, item.Name, item.Quantity)
	}
	for _, f := range item.Flavors {
		if err := decrementFlavor(tx, f.FlavorID, f.Name, f.Size, f.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func decrementProduct(tx *gorm.DB, id uint, name string, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var p models.Product
		available := 0
		if err := tx.Select("stock_quantity").First(&p, id).Error; err == nil {
			available = p.StockQuantity
		}
		return &StockUnavailableError{Items: []OutOfStockEntry{{
			Type: StockKindProduct, ID: id, Name: name, Requested: qty, Available: available,
		}}}
	}
	return nil
}

func decrementFlavor(tx *gorm.DB, id uint, name string, size models.FlavorSize, qty int) error {
	col := models.FlavorStockColumn(size)
	res := tx.Model(&models.Flavor{}).
		Where("id = ? AND "+col+" >= ?", id, qty).
		UpdateColumn(col, gorm.Expr(col+" - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement flavor %d (%s): %w", id, size, res.Error)
	}
	if res.RowsAffected == 0 {
		var f models.Flavor
		available := 0
		if err := tx.First(&f, id).Error; err == nil {
			available = f.StockFor(size)
		}
		return &StockUnavailableError{Items: []OutOfStockEntry{{
			Type: StockKindFlavor, ID: id, Name: name, Size: size.Tier(), Requested: qty, Available: available,
		}}}
	}
	return nil
}

func clearCart(tx *gorm.DB, cartID uint) error {
	lines := tx.Model(&models.CartItem{}).Select("id").Where("cart_id = ?", cartID)
	if err := tx.Where("cart_item_id IN (?)", lines).Delete(&models.CartItemFlavor{}).Error; err != nil {
		return err
	}
	return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// generateOrderRef returns e.g. 20250908130500-<uuid4>.
func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// IsStockError reports whether err is a stock shortage.
func IsStockError(err error) bool {
	var se *StockUnavailableError
	return errors.As(err, &se)
}
