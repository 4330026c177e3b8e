package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wawashop/storefront/internal/config"
	"github.com/wawashop/storefront/internal/domain/order"
)

func TestRenderHTML(t *testing.T) {
	svc := NewService(&config.Config{Receipt: config.ReceiptConfig{
		CompanyName:  "Wawa Shop",
		CompanyPhone: "02-000-0000",
	}})
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC) }

	html, err := svc.RenderHTML(&order.Order{
		OrderNumber:  "MQT20240305-ABC12",
		CustomerCode: "C001",
		Status:       order.OrderStatusCancelled,
		DocDate:      "2024-03-05",
		DocTime:      "14:30",
		TotalAmount:  decimal.RequireFromString("21"),
		Remark:       "Deliver to: <b>12 Sukhumvit</b>",
		Items: []order.OrderItem{{
			ItemCode:   "A1",
			ItemName:   "ข้าวหอมมะลิ",
			UnitCode:   "ถุง",
			Quantity:   2,
			Price:      decimal.RequireFromString("10.5"),
			LineAmount: decimal.RequireFromString("21"),
		}},
	})

	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Wawa Shop")
	assert.Contains(t, out, "Tel. 02-000-0000")
	assert.Contains(t, out, "MQT20240305-ABC12")
	assert.Contains(t, out, "2024-03-05 14:30")
	assert.Contains(t, out, "ข้าวหอมมะลิ")
	assert.Contains(t, out, "10.50")
	assert.Contains(t, out, "Total 21.00")
	assert.Contains(t, out, `class="status-cancelled"`)
	assert.Contains(t, out, "Printed 2024-03-05 15:00")
	assert.NotContains(t, out, "<b>12 Sukhumvit</b>")
	assert.NotContains(t, out, "Sales")
}
